package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const pairsPayload = `{
	"pairs": [
		{
			"chainId": "solana",
			"dexId": "orca",
			"pairAddress": "pair-low",
			"baseToken": {"address": "mint1", "name": "Test Token", "symbol": "TEST"},
			"priceUsd": "0.5",
			"priceChange": {"h1": 1.0, "h6": 2.0, "h24": 10.0},
			"liquidity": {"usd": 50000},
			"marketCap": 1000000
		},
		{
			"chainId": "solana",
			"dexId": "raydium",
			"pairAddress": "pair-deep",
			"baseToken": {"address": "mint1", "name": "Test Token", "symbol": "TEST"},
			"priceUsd": "0.52",
			"priceChange": {"h1": 5.0, "h6": 10.0, "h24": 30.0},
			"volume": {"h24": 250000},
			"liquidity": {"usd": 900000},
			"txns": {"h24": {"buys": 120, "sells": 80}},
			"marketCap": 1100000
		}
	]
}`

func newDexTestClient(handler http.HandlerFunc) (*DexScreenerClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewDexScreenerClient(DexScreenerConfig{BaseURL: server.URL}, zap.NewNop())
	return client, server
}

func TestDexScreenerClient_TokenMarket_PicksDeepestPair(t *testing.T) {
	client, server := newDexTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/mint1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pairsPayload))
	})
	defer server.Close()

	snapshot, err := client.TokenMarket(context.Background(), "mint1")

	assert.NoError(t, err)
	assert.Equal(t, "raydium", snapshot.DexID)
	assert.Equal(t, "pair-deep", snapshot.PairAddress)
	assert.Equal(t, 900000.0, snapshot.Liquidity)
	assert.Equal(t, 0.52, snapshot.PriceUSD)
	assert.Equal(t, 30.0, snapshot.PriceChange24h)
	assert.Equal(t, 120, snapshot.Txns24h.Buys)
	// (30 + 10*0.5 + 5*0.3) * 2 = 73
	assert.Equal(t, 73, snapshot.VolatilityRisk)
}

func TestDexScreenerClient_TokenMarket_NoPairs(t *testing.T) {
	client, server := newDexTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": []}`))
	})
	defer server.Close()

	snapshot, err := client.TokenMarket(context.Background(), "mint1")

	assert.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Contains(t, err.Error(), "no trading pairs")
}

func TestDexScreenerClient_Search(t *testing.T) {
	client, server := newDexTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "TEST", r.URL.Query().Get("q"))
		w.Write([]byte(pairsPayload))
	})
	defer server.Close()

	results, err := client.Search(context.Background(), "TEST")

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "orca", results[0].DexID)
	assert.Equal(t, "raydium", results[1].DexID)
}

func TestDexScreenerClient_ClientErrorNotRetried(t *testing.T) {
	var calls int
	client, server := newDexTestClient(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "not found", http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.TokenMarket(context.Background(), "mint1")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestVolatilityRisk(t *testing.T) {
	assert.Equal(t, 0, volatilityRisk(0, 0, 0))
	assert.Equal(t, 20, volatilityRisk(10, 0, 0))
	// negative swings count the same as positive
	assert.Equal(t, 20, volatilityRisk(-10, 0, 0))
	assert.Equal(t, 100, volatilityRisk(80, 40, 20))
}

func TestClassifyOwner(t *testing.T) {
	assert.Equal(t, "Likely Exchange (Raydium/Orca Pool)", classifyOwner("5Q544fKabc"))
	assert.Equal(t, "Likely Liquidity Pool", classifyOwner("5hpfCxyz"))
	assert.Equal(t, "Likely Exchange Wallet", classifyOwner("F8Fqabc"))
	assert.Equal(t, "Likely Liquidity Pool", classifyOwner("8voVdef"))
	assert.Equal(t, "Individual/Unknown", classifyOwner("Dq3k9ZshW"))
}
