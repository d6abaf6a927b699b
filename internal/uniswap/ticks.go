package uniswap

// Tick bounds of a Uniswap V3 pool.
const (
	MinTick = -887272
	MaxTick = 887272
)

// Fee tiers with a registered tick spacing.
const (
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

var tickSpacings = map[uint32]int32{
	FeeLow:    10,
	FeeMedium: 60,
	FeeHigh:   200,
}

// TickSpacing returns the spacing for fee. Unknown tiers fall back to the
// 0.05% tier; ok is false in that case and fee is replaced.
func TickSpacing(fee uint32) (spacing int32, effectiveFee uint32, ok bool) {
	if spacing, found := tickSpacings[fee]; found {
		return spacing, fee, true
	}
	return tickSpacings[FeeLow], FeeLow, false
}

// AlignTicks floors both ticks to a multiple of spacing and keeps the range
// non-empty by pushing upper one spacing above lower when needed.
func AlignTicks(lower, upper, spacing int32) (int32, int32) {
	if spacing <= 0 {
		return lower, upper
	}
	lower = floorDiv(lower, spacing) * spacing
	upper = floorDiv(upper, spacing) * spacing
	if upper <= lower {
		upper = lower + spacing
	}
	return lower, upper
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
