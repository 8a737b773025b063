package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func heliusTestServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "getTokenLargestAccounts":
			fmt.Fprint(w, `{"result": {"value": [
				{"address": "acct1", "uiAmount": 600, "decimals": 6},
				{"address": "acct2", "uiAmount": 300, "decimals": 6},
				{"address": "acct3", "uiAmount": 100, "decimals": 6}
			]}}`)
		case "getTokenSupply":
			fmt.Fprint(w, `{"result": {"value": {"uiAmount": 1000, "decimals": 6}}}`)
		case "getAccountInfo":
			account := req.Params[0].(string)
			owner := "Dq3k9IndividualWallet"
			if account == "acct1" {
				owner = "5Q544fKexchangeowner"
			}
			fmt.Fprintf(w, `{"result": {"value": {"data": {"parsed": {"info": {"owner": "%s"}}}}}}`, owner)
		case "getAsset":
			fmt.Fprint(w, `{"result": {"content": {"metadata": {"name": "Test Token", "symbol": "TEST"}}}}`)
		default:
			t.Fatalf("unexpected rpc method %s", req.Method)
		}
	}))
}

func TestHeliusClient_TokenHolders(t *testing.T) {
	server := heliusTestServer(t)
	defer server.Close()

	client := NewHeliusClient(HeliusConfig{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())

	result, err := client.TokenHolders(context.Background(), "mint1", 10)

	require.NoError(t, err)
	assert.Equal(t, "mint1", result.TokenAddress)
	assert.Equal(t, "Test Token", result.TokenName)
	assert.Equal(t, "TEST", result.TokenSymbol)
	assert.Equal(t, 1000.0, result.TotalSupply)
	require.Len(t, result.Holders, 3)

	top := result.Holders[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "acct1", top.TokenAccount)
	assert.Equal(t, "5Q544fKexchangeowner", top.Owner)
	assert.Equal(t, 60.0, top.Percentage)
	assert.Equal(t, "Likely Exchange (Raydium/Orca Pool)", top.AccountType)

	assert.Equal(t, "Individual/Unknown", result.Holders[1].AccountType)
	assert.Equal(t, 30.0, result.Holders[1].Percentage)
	assert.NotEmpty(t, result.Raw)
}

func TestHeliusClient_TokenHolders_TopNTruncates(t *testing.T) {
	server := heliusTestServer(t)
	defer server.Close()

	client := NewHeliusClient(HeliusConfig{APIKey: "test-key", BaseURL: server.URL}, zap.NewNop())

	result, err := client.TokenHolders(context.Background(), "mint1", 2)

	require.NoError(t, err)
	assert.Len(t, result.Holders, 2)
}

func TestHeliusClient_TokenHolders_EmptyAddress(t *testing.T) {
	client := NewHeliusClient(HeliusConfig{APIKey: "test-key"}, zap.NewNop())

	_, err := client.TokenHolders(context.Background(), "", 10)

	assert.Error(t, err)
}
