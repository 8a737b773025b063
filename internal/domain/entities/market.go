package entities

// PriceChangeWindows captures price change percentages over standard
// DexScreener windows.
type PriceChangeWindows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PairTransactions is the 24h buy/sell transaction split for a pair.
type PairTransactions struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// MarketSnapshot is the normalized market-data view of a token pair.
// Missing upstream fields stay at their zero values, which causes the
// corresponding scoring rule to be skipped rather than fail.
type MarketSnapshot struct {
	Address        string             `json:"address"`
	Symbol         string             `json:"symbol"`
	Name           string             `json:"name"`
	ChainID        string             `json:"chainId"`
	PriceUSD       float64            `json:"priceUsd"`
	PriceChange24h float64            `json:"priceChange24h"`
	Volume24h      float64            `json:"volume24h"`
	Liquidity      float64            `json:"liquidity"`
	MarketCap      float64            `json:"marketCap"`
	FDV            float64            `json:"fdv"`
	PairAddress    string             `json:"pairAddress"`
	DexID          string             `json:"dexId"`
	URL            string             `json:"url"`
	PairCreatedAt  int64              `json:"pairCreatedAt,omitempty"`
	PriceChange    PriceChangeWindows `json:"priceChange"`
	Txns24h        PairTransactions   `json:"txns24h"`
	VolatilityRisk int                `json:"volatilityRisk"`
}
