package model

// Action outcomes recorded in the journal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ActionRecord is one journaled agent action.
type ActionRecord struct {
	Action    string   `json:"action"`
	ChainID   string   `json:"chain_id"`
	Network   string   `json:"network"`
	Wallet    string   `json:"wallet"`
	Outcome   string   `json:"outcome"`
	Reason    string   `json:"reason,omitempty"`
	Message   string   `json:"message"`
	TxHashes  []string `json:"tx_hashes,omitempty"`
	TokenID   string   `json:"token_id,omitempty"`
	FeeTier   uint32   `json:"fee_tier,omitempty"`
	TickLower *int32   `json:"tick_lower,omitempty"`
	TickUpper *int32   `json:"tick_upper,omitempty"`
	CreatedAt string   `json:"created_at"`
}
