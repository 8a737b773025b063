package entities

import (
	"time"

	"github.com/google/uuid"
)

// TokenReport is the persisted outcome of a full token analysis. It is
// created once and updated at most once, to attach the narrative.
type TokenReport struct {
	ID              uuid.UUID            `json:"id"`
	TokenAddress    string               `json:"tokenAddress"`
	TokenName       string               `json:"tokenName"`
	TokenSymbol     string               `json:"tokenSymbol"`
	Chain           string               `json:"chain"`
	TopHolders      []Holding            `json:"topHolders"`
	Concentration   ConcentrationMetrics `json:"concentration"`
	RiskLevel       RiskLevel            `json:"riskLevel"`
	RiskScore       int                  `json:"riskScore"`
	Factors         []string             `json:"factors"`
	Recommendations []string             `json:"recommendations"`
	Narrative       string               `json:"narrative,omitempty"`
	RawJSON         string               `json:"rawJson,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// WalletReport is the persisted outcome of a full wallet analysis.
type WalletReport struct {
	ID              uuid.UUID              `json:"id"`
	WalletAddress   string                 `json:"walletAddress"`
	Chain           string                 `json:"chain"`
	TotalValueUSD   float64                `json:"totalValueUsd"`
	SolBalance      float64                `json:"nativeBalance"`
	TokenCount      int                    `json:"tokenCount"`
	NFTCount        int                    `json:"nftCount"`
	Tokens          []TokenBalance         `json:"tokens"`
	NFTs            []NFTHolding           `json:"nfts"`
	RiskLevel       RiskLevel              `json:"riskLevel"`
	RiskScore       int                    `json:"riskScore"`
	RiskFactors     []string               `json:"riskFactors"`
	Diversification DiversificationMetrics `json:"diversification"`
	Recommendations []string               `json:"recommendations"`
	Narrative       string                 `json:"narrative,omitempty"`
	RawJSON         string                 `json:"rawJson,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}
