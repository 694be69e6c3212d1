package payment

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() PaymentPayload {
	return PaymentPayload{
		X402Version: X402Version,
		Scheme:      SchemeExact,
		Network:     "base",
		Payload:     json.RawMessage(`{"signature":"0xsig","authorization":{"from":"0xpayer"}}`),
	}
}

func TestDecodePaymentHeader(t *testing.T) {
	header, err := EncodePaymentHeader(testPayload())
	require.NoError(t, err)

	got, err := DecodePaymentHeader(header)
	require.NoError(t, err)
	assert.Equal(t, SchemeExact, got.Scheme)
	assert.Equal(t, "base", got.Network)
	assert.JSONEq(t, `{"signature":"0xsig","authorization":{"from":"0xpayer"}}`, string(got.Payload))
}

func TestDecodePaymentHeader_Invalid(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	tests := map[string]string{
		"not base64":      "%%%",
		"not json":        encode("hello"),
		"wrong version":   encode(`{"x402Version":2,"scheme":"exact","network":"base","payload":{}}`),
		"missing payload": encode(`{"x402Version":1,"scheme":"exact","network":"base"}`),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePaymentHeader(header)
			assert.Error(t, err)
		})
	}
}

func TestEncodeSettlement(t *testing.T) {
	header, err := EncodeSettlement(&SettleResponse{
		Success:     true,
		Transaction: "0xtx",
		Network:     "base",
		Payer:       "0xpayer",
	})
	require.NoError(t, err)

	got, err := DecodeSettlement(header)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, "0xtx", got.Transaction)
	assert.Equal(t, "0xpayer", got.Payer)
}
