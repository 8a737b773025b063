package entities

import "github.com/shopspring/decimal"

// TokenBalance is a wallet's normalized position in one token. Tokens
// lacking a USD value upstream are kept with ValueUSD zero; they still count
// toward diversification denominators.
type TokenBalance struct {
	Mint       string          `json:"tokenAddress"`
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"balance"`
	Decimals   int             `json:"decimals"`
	PriceUSD   float64         `json:"priceUsd"`
	ValueUSD   float64         `json:"valueUsd"`
	Percentage float64         `json:"percentageOfPortfolio"`
}

// NFTHolding is a wallet's normalized NFT position.
type NFTHolding struct {
	Mint          string  `json:"mintAddress"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Collection    string  `json:"collection,omitempty"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	FloorPriceUSD float64 `json:"floorPriceUsd"`
}

// Portfolio is the normalized wallet snapshot from the portfolio provider.
type Portfolio struct {
	Address       string         `json:"walletAddress"`
	Tokens        []TokenBalance `json:"tokens"`
	NFTs          []NFTHolding   `json:"nfts"`
	TotalValueUSD float64        `json:"totalValueUsd"`
	SolBalance    float64        `json:"solBalance"`
	TokenCount    int            `json:"tokenCount"`
	NFTCount      int            `json:"nftCount"`
}
