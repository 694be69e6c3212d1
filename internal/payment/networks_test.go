package payment

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		price    string
		decimals int
		want     string
	}{
		{"$0.1", 6, "100000"},
		{"0.1", 6, "100000"},
		{"$1", 6, "1000000"},
		{" $0.000001 ", 6, "1"},
		{"$12.5", 6, "12500000"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got, err := ParsePrice(tt.price, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, price := range []string{"", "$", "abc", "$0", "-1", "1/3", "1e3", "$0.0000001"} {
		t.Run(price, func(t *testing.T) {
			_, err := ParsePrice(price, 6)
			assert.Error(t, err)
		})
	}
}

func TestLookupNetwork(t *testing.T) {
	base, err := LookupNetwork("base")
	require.NoError(t, err)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", base.Asset)
	assert.Equal(t, "USD Coin", base.AssetName)

	sepolia, err := LookupNetwork("Base-Sepolia")
	require.NoError(t, err)
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", sepolia.Asset)
	assert.Equal(t, 6, sepolia.Decimals)

	_, err = LookupNetwork("solana")
	assert.Error(t, err)
}

func TestRouteConfig_Requirements(t *testing.T) {
	route := DefaultChatCompletionRoute("0xpayto", "$0.1", "base", "chat", 60, "")
	assert.Equal(t, "POST", route.Method())
	assert.Equal(t, "/v1/chat/completions", route.Path())

	network, err := LookupNetwork(route.Network)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/chat/completions", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	got := route.requirements(route.resourceURL(req), network, "100000")

	assert.Equal(t, SchemeExact, got.Scheme)
	assert.Equal(t, "base", got.Network)
	assert.Equal(t, "100000", got.MaxAmountRequired)
	assert.Equal(t, "https://example.com/v1/chat/completions", got.Resource)
	assert.Equal(t, "0xpayto", got.PayTo)
	assert.Equal(t, 60, got.MaxTimeoutSeconds)
	assert.Equal(t, "application/json", got.MimeType)
	assert.Equal(t, map[string]any{"name": "USD Coin", "version": "2"}, got.Extra)

	input, ok := got.OutputSchema["input"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http", input["type"])
	assert.Equal(t, "POST", input["method"])
	assert.Equal(t, true, input["discoverable"])
	assert.Contains(t, input, "body")
	assert.NotNil(t, got.OutputSchema["output"])
}

func TestRouteConfig_ResourceURLOverride(t *testing.T) {
	route := RouteConfig{Route: "POST /paid", ResourceURL: "https://api.example.org/paid"}
	req := httptest.NewRequest("POST", "/paid", nil)
	assert.Equal(t, "https://api.example.org/paid", route.resourceURL(req))
}
