package entities

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Holding is the canonical normalized record for one concentrated position:
// a token holder account with its share of total supply. Upstream payloads
// use varying field names (owner/walletOwner/address); providers normalize
// into this shape before any scoring runs.
type Holding struct {
	Rank         int             `json:"rank"`
	TokenAccount string          `json:"tokenAccount"`
	Owner        string          `json:"walletOwner"`
	Balance      decimal.Decimal `json:"balance"`
	Percentage   float64         `json:"percentage"`
	AccountType  string          `json:"accountType"`
}

// TokenHolders is the normalized holder snapshot for one token, as returned
// by the holder-data provider. Raw carries the upstream payload for the
// keyword scan; it never feeds numeric scoring.
type TokenHolders struct {
	TokenAddress string          `json:"tokenAddress"`
	TokenName    string          `json:"tokenName"`
	TokenSymbol  string          `json:"tokenSymbol"`
	TotalSupply  float64         `json:"totalSupply"`
	Holders      []Holding       `json:"holders"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}
