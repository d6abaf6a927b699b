package liquidity

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"liquidityAgent/internal/metrics"
	"liquidityAgent/internal/model"
	"liquidityAgent/internal/uniswap"
	"liquidityAgent/internal/wallet"
)

var (
	mainnetWETH    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	mainnetUSDC    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	mainnetPM      = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	mainnetFactory = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	mainnetPool    = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")

	fixedNow = time.Unix(1_700_000_000, 0)
)

type memJournal struct {
	records []model.ActionRecord
}

func (j *memJournal) Record(_ context.Context, rec model.ActionRecord) error {
	j.records = append(j.records, rec)
	return nil
}

func (j *memJournal) Close() error { return nil }

func (j *memJournal) last(t *testing.T) model.ActionRecord {
	t.Helper()
	if len(j.records) == 0 {
		t.Fatalf("no journal records")
	}
	return j.records[len(j.records)-1]
}

func newTestService(t *testing.T) (*Service, *memJournal, *metrics.Metrics) {
	t.Helper()
	reg, err := uniswap.DefaultRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	journal := &memJournal{}
	m := metrics.New(prometheus.NewRegistry())
	svc, err := NewService(reg, zap.NewNop(), m, journal)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.now = func() time.Time { return fixedNow }
	return svc, journal, m
}

func units(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("bad test number " + value)
	}
	return v
}

func fundedWallet() *fakeWallet {
	w := newFakeWallet()
	w.outputs[mainnetWETH.Hex()+".balanceOf"] = []interface{}{units("5000000000000000000")}
	w.outputs[mainnetUSDC.Hex()+".balanceOf"] = []interface{}{units("20000000000")}
	return w
}

func defaultCreateRequest() CreateLiquidityRequest {
	return CreateLiquidityRequest{
		AmountWETH: "0.1",
		AmountUSDC: "1000",
		TickLower:  -60000,
		TickUpper:  60000,
		FeeTier:    3000,
		Slippage:   0.5,
	}
}

func mintLogs(t *testing.T, tokenID int64, liquidity int64) []*types.Log {
	t.Helper()
	pmABI, err := uniswap.PositionManagerABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	increase := pmABI.Events["IncreaseLiquidity"]
	data, err := increase.Inputs.NonIndexed().Pack(big.NewInt(liquidity), big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return []*types.Log{
		{Address: mainnetUSDC, Topics: []common.Hash{{}, {}, {}}},
		{Address: mainnetPM, Topics: []common.Hash{pmABI.Events["Transfer"].ID, {}, common.BytesToHash(owner.Bytes()), common.BigToHash(big.NewInt(tokenID))}},
		{Address: mainnetPM, Topics: []common.Hash{increase.ID, common.BigToHash(big.NewInt(tokenID))}, Data: data},
	}
}

type mintArgs struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

func decodeCall(t *testing.T, parsed abi.ABI, method string, data []byte) []interface{} {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("unknown method %s", method)
	}
	if len(data) < 4 || string(data[:4]) != string(m.ID) {
		t.Fatalf("selector mismatch for %s: %x", method, data)
	}
	values, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack %s: %v", method, err)
	}
	return values
}

func TestCreateLiquiditySuccess(t *testing.T) {
	svc, journal, m := newTestService(t)
	w := fundedWallet()
	w.logs[2] = mintLogs(t, 812345, 5000)

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())

	want := "Successfully created Uniswap V3 liquidity position with:\n" +
		"- 0.1 WETH\n" +
		"- 1000 USDC\n" +
		"- Price range ticks: -60000 to 60000 (aligned with fee tier spacing)\n" +
		"- Fee tier: 3000\n" +
		"Transaction hash: " + txHash(2).Hex() +
		"\nPosition NFT ID: 812345" +
		"\nLiquidity minted: 5000"
	if got != want {
		t.Fatalf("message mismatch:\n got %q\nwant %q", got, want)
	}

	if len(w.sent) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(w.sent))
	}

	erc20, _ := uniswap.ERC20ABI()
	if w.sent[0].To != mainnetWETH || w.sent[1].To != mainnetUSDC {
		t.Fatalf("approval order mismatch: %s %s", w.sent[0].To.Hex(), w.sent[1].To.Hex())
	}
	wethApprove := decodeCall(t, erc20, "approve", w.sent[0].Data)
	if wethApprove[0].(common.Address) != mainnetPM || wethApprove[1].(*big.Int).Cmp(units("100000000000000000")) != 0 {
		t.Fatalf("weth approve mismatch: %v", wethApprove)
	}
	usdcApprove := decodeCall(t, erc20, "approve", w.sent[1].Data)
	if usdcApprove[1].(*big.Int).Cmp(units("1000000000")) != 0 {
		t.Fatalf("usdc approve mismatch: %v", usdcApprove)
	}

	mint := w.sent[2]
	if mint.To != mainnetPM || mint.Gas != MintGasLimit {
		t.Fatalf("mint tx mismatch: to=%s gas=%d", mint.To.Hex(), mint.Gas)
	}
	pmABI, _ := uniswap.PositionManagerABI()
	values := decodeCall(t, pmABI, "mint", mint.Data)
	params := *abi.ConvertType(values[0], new(mintArgs)).(*mintArgs)
	if params.Token0 != mainnetUSDC || params.Token1 != mainnetWETH {
		t.Fatalf("token order mismatch: %s %s", params.Token0.Hex(), params.Token1.Hex())
	}
	if params.Amount0Desired.Cmp(units("1000000000")) != 0 || params.Amount1Desired.Cmp(units("100000000000000000")) != 0 {
		t.Fatalf("desired amounts mismatch: %s %s", params.Amount0Desired, params.Amount1Desired)
	}
	if params.Amount0Min.Cmp(units("995000000")) != 0 || params.Amount1Min.Cmp(units("99500000000000000")) != 0 {
		t.Fatalf("min amounts mismatch: %s %s", params.Amount0Min, params.Amount1Min)
	}
	if params.Recipient != w.address || params.Deadline.Int64() != fixedNow.Unix()+1800 {
		t.Fatalf("recipient/deadline mismatch: %s %s", params.Recipient.Hex(), params.Deadline)
	}

	rec := journal.last(t)
	if rec.Outcome != model.OutcomeSuccess || rec.TokenID != "812345" || len(rec.TxHashes) != 3 {
		t.Fatalf("journal mismatch: %+v", rec)
	}
	if rec.FeeTier != 3000 || *rec.TickLower != -60000 || *rec.TickUpper != 60000 {
		t.Fatalf("journal range mismatch: %+v", rec)
	}
	if rec.ChainID != "1" || rec.Network != uniswap.MainnetKey || rec.Wallet != w.address.Hex() {
		t.Fatalf("journal network mismatch: %+v", rec)
	}
	if got := testutil.ToFloat64(m.TxTotal.WithLabelValues("confirmed", metrics.TxApprove)); got != 2 {
		t.Fatalf("expected 2 confirmed approvals, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActionsTotal.WithLabelValues(ActionCreateLiquidity, model.OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 successful action, got %v", got)
	}
}

func TestCreateLiquidityWithoutTokenID(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if !strings.HasSuffix(got, "Transaction hash: "+txHash(2).Hex()) {
		t.Fatalf("expected message to end with the hash: %q", got)
	}
	if strings.Contains(got, "Position NFT ID") {
		t.Fatalf("unexpected token id line: %q", got)
	}
}

func TestCreateLiquidityInsufficientWETH(t *testing.T) {
	svc, journal, m := newTestService(t)
	w := fundedWallet()
	w.outputs[mainnetWETH.Hex()+".balanceOf"] = []interface{}{units("50000000000000000")}

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if got != "Error: Insufficient WETH balance. You have 0.05 WETH, but need 0.1 WETH" {
		t.Fatalf("message mismatch: %q", got)
	}
	if len(w.sent) != 0 {
		t.Fatalf("expected no transactions, got %d", len(w.sent))
	}
	rec := journal.last(t)
	if rec.Outcome != model.OutcomeFailure || rec.Reason != "insufficient_balance" {
		t.Fatalf("journal mismatch: %+v", rec)
	}
	if got := testutil.ToFloat64(m.ActionsTotal.WithLabelValues(ActionCreateLiquidity, "insufficient_balance")); got != 1 {
		t.Fatalf("expected insufficient balance metric, got %v", got)
	}
}

func TestCreateLiquidityInsufficientUSDC(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()
	w.outputs[mainnetUSDC.Hex()+".balanceOf"] = []interface{}{big.NewInt(0)}

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if got != "Error: Insufficient USDC balance. You have 0 USDC, but need 1000 USDC" {
		t.Fatalf("message mismatch: %q", got)
	}
	if len(w.sent) != 0 {
		t.Fatalf("expected no transactions, got %d", len(w.sent))
	}
}

func TestCreateLiquidityFeeTierFallback(t *testing.T) {
	svc, journal, _ := newTestService(t)
	w := fundedWallet()
	req := defaultCreateRequest()
	req.FeeTier = 7777
	req.TickLower = -55
	req.TickUpper = 13

	got := svc.CreateLiquidity(context.Background(), w, req)
	if !strings.Contains(got, "- Price range ticks: -60 to 10 (aligned with fee tier spacing)\n- Fee tier: 500\n") {
		t.Fatalf("fallback not applied: %q", got)
	}
	if rec := journal.last(t); rec.FeeTier != 500 {
		t.Fatalf("journal fee mismatch: %d", rec.FeeTier)
	}
}

func TestCreateLiquidityOutOfRangeFeeTiersFallBack(t *testing.T) {
	for _, fee := range []int64{0, -500, 1 << 24, 1<<32 + 500} {
		svc, journal, _ := newTestService(t)
		w := fundedWallet()
		req := defaultCreateRequest()
		req.FeeTier = fee

		got := svc.CreateLiquidity(context.Background(), w, req)
		if !strings.Contains(got, "- Fee tier: 500\n") {
			t.Fatalf("fee %d: fallback not applied: %q", fee, got)
		}
		if rec := journal.last(t); rec.FeeTier != 500 {
			t.Fatalf("fee %d: journal fee mismatch: %d", fee, rec.FeeTier)
		}
	}
}

func TestCreateLiquidityForcesNonEmptyRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()
	req := defaultCreateRequest()
	req.TickLower = 100
	req.TickUpper = 110

	got := svc.CreateLiquidity(context.Background(), w, req)
	if !strings.Contains(got, "Price range ticks: 60 to 120 ") {
		t.Fatalf("range not widened: %q", got)
	}
}

func TestCreateLiquidityApprovalReverted(t *testing.T) {
	svc, journal, _ := newTestService(t)
	w := fundedWallet()
	w.statuses[0] = types.ReceiptStatusFailed

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	want := "Error creating Uniswap V3 liquidity position: approve WETH: transaction " + txHash(0).Hex() + " reverted\n" +
		"Try using ticks that align with 0.05% fee tier spacing (10): tickLower=202540, tickUpper=202640"
	if got != want {
		t.Fatalf("message mismatch:\n got %q\nwant %q", got, want)
	}
	if len(w.sent) != 1 {
		t.Fatalf("expected mint to be skipped, got %d transactions", len(w.sent))
	}
	if rec := journal.last(t); rec.Reason != "approval" {
		t.Fatalf("reason mismatch: %s", rec.Reason)
	}
}

func TestCreateLiquiditySecondApprovalFails(t *testing.T) {
	svc, journal, _ := newTestService(t)
	w := fundedWallet()
	w.sendErrs[1] = errors.New("insufficient funds for gas")

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if !strings.HasPrefix(got, "Error creating Uniswap V3 liquidity position: approve USDC: send approve transaction: insufficient funds for gas\n") {
		t.Fatalf("message mismatch: %q", got)
	}
	if len(w.sent) != 1 {
		t.Fatalf("expected only the WETH approval, got %d", len(w.sent))
	}
	if rec := journal.last(t); len(rec.TxHashes) != 1 {
		t.Fatalf("expected committed approval in journal: %+v", rec)
	}
}

func TestCreateLiquidityMintReverted(t *testing.T) {
	svc, journal, m := newTestService(t)
	w := fundedWallet()
	w.statuses[2] = types.ReceiptStatusFailed

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if got != "Error: Liquidity position creation failed. Transaction hash: "+txHash(2).Hex() {
		t.Fatalf("message mismatch: %q", got)
	}
	rec := journal.last(t)
	if rec.Reason != "mint" || len(rec.TxHashes) != 3 {
		t.Fatalf("journal mismatch: %+v", rec)
	}
	if got := testutil.ToFloat64(m.TxTotal.WithLabelValues("failed", metrics.TxMint)); got != 1 {
		t.Fatalf("expected failed mint metric, got %v", got)
	}
}

func TestCreateLiquidityBalanceReadFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()
	w.readErrs["balanceOf"] = errors.New("connection refused")

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if !strings.HasPrefix(got, "Error creating Uniswap V3 liquidity position: could not get token balance: connection refused\n") {
		t.Fatalf("message mismatch: %q", got)
	}
	if len(w.sent) != 0 {
		t.Fatalf("expected no transactions")
	}
}

func TestCreateLiquidityInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*CreateLiquidityRequest)
		prefix string
	}{
		{"bad amount", func(r *CreateLiquidityRequest) { r.AmountWETH = "abc" }, "Error: Invalid amount format: abc"},
		{"negative amount", func(r *CreateLiquidityRequest) { r.AmountUSDC = "-1" }, "Error: Invalid amount format: -1"},
		{"slippage", func(r *CreateLiquidityRequest) { r.Slippage = 100 }, "Error: Invalid create_liquidity arguments: slippage"},
		{"tick", func(r *CreateLiquidityRequest) { r.TickUpper = 900000 }, "Error: Invalid create_liquidity arguments: tick_upper"},
		{"missing amount", func(r *CreateLiquidityRequest) { r.AmountUSDC = " " }, "Error: Invalid create_liquidity arguments: amount_usdc"},
	}

	for _, tc := range cases {
		w := fundedWallet()
		req := defaultCreateRequest()
		tc.mutate(&req)
		got := svc.CreateLiquidity(context.Background(), w, req)
		if !strings.HasPrefix(got, tc.prefix) {
			t.Fatalf("%s: message mismatch: %q", tc.name, got)
		}
		if w.readCount("balanceOf") != 0 || len(w.sent) != 0 {
			t.Fatalf("%s: expected no chain interaction", tc.name)
		}
	}
}

func TestUnsupportedNetwork(t *testing.T) {
	svc, journal, _ := newTestService(t)

	cases := []struct {
		network wallet.Network
		want    string
	}{
		{wallet.Network{ChainID: "8453", NetworkID: "base-mainnet", ProtocolFamily: "evm"}, "Error: Network base-mainnet is not supported by Uniswap V3"},
		{wallet.Network{ChainID: "1", NetworkID: "ethereum-mainnet", ProtocolFamily: "svm"}, "Error: Network ethereum-mainnet is not supported by Uniswap V3"},
		{wallet.Network{ChainID: "31337", ProtocolFamily: "evm"}, "Error: Network chain 31337 is not supported by Uniswap V3"},
	}

	for _, tc := range cases {
		w := fundedWallet()
		w.network = tc.network
		if got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest()); got != tc.want {
			t.Fatalf("create: message mismatch: %q", got)
		}
		if got := svc.GetPrice(context.Background(), w, GetPriceRequest{}); got != tc.want {
			t.Fatalf("price: message mismatch: %q", got)
		}
		if len(w.reads) != 0 || len(w.sent) != 0 {
			t.Fatalf("expected no chain interaction for %+v", tc.network)
		}
	}
	if rec := journal.last(t); rec.Reason != "unsupported_network" {
		t.Fatalf("reason mismatch: %s", rec.Reason)
	}
}

func TestNetworkResolvedByNetworkID(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()
	w.network = wallet.Network{NetworkID: "mainnet", ProtocolFamily: "evm"}

	got := svc.CreateLiquidity(context.Background(), w, defaultCreateRequest())
	if !strings.HasPrefix(got, "Successfully created") {
		t.Fatalf("expected success on network id alias: %q", got)
	}
}

func TestMissingAssetOnRegisteredNetwork(t *testing.T) {
	defs := uniswap.DefaultDeployments()
	def := defs[uniswap.MainnetKey]
	def.Assets = map[string]uniswap.AssetConfig{
		uniswap.SymbolWETH: def.Assets[uniswap.SymbolWETH],
	}
	defs[uniswap.MainnetKey] = def
	reg, err := uniswap.NewRegistry(defs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewService(reg, nil, nil, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	got := svc.GetPrice(context.Background(), fundedWallet(), GetPriceRequest{})
	if !strings.HasPrefix(got, "Error: Could not get asset addresses: ") {
		t.Fatalf("message mismatch: %q", got)
	}
	got = svc.CreateLiquidity(context.Background(), fundedWallet(), defaultCreateRequest())
	if !strings.HasPrefix(got, "Error: Could not get asset addresses on ethereum-mainnet: ") {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestWalletNetworkError(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := fundedWallet()
	w.netErr = errors.New("dial tcp: refused")

	got := svc.GetPrice(context.Background(), w, GetPriceRequest{})
	if got != "Error: Could not determine wallet network: dial tcp: refused" {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestNilWallet(t *testing.T) {
	svc, _, _ := newTestService(t)
	if got := svc.GetPrice(context.Background(), nil, GetPriceRequest{}); got != "Error: wallet provider is required" {
		t.Fatalf("message mismatch: %q", got)
	}
}

func TestNewServiceRequiresRegistry(t *testing.T) {
	if _, err := NewService(nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
