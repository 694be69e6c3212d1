package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeFacilitator struct {
	verify    *VerifyResponse
	verifyErr error
	settle    *SettleResponse
	settleErr error

	verifyCalls int
	settleCalls int
}

func (f *fakeFacilitator) Verify(context.Context, PaymentPayload, PaymentRequirements) (*VerifyResponse, error) {
	f.verifyCalls++
	return f.verify, f.verifyErr
}

func (f *fakeFacilitator) Settle(context.Context, PaymentPayload, PaymentRequirements) (*SettleResponse, error) {
	f.settleCalls++
	return f.settle, f.settleErr
}

const upstreamBody = `{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"paid answer"}}]}`

type gateHarness struct {
	router   *gin.Engine
	proceeds int
	gateErr  error
}

func newGateHarness(t *testing.T, facilitator Facilitator) *gateHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	route := DefaultChatCompletionRoute("0xpayto", "$0.1", "base", "chat", 60, "")
	gate, err := NewFacilitatorGate(route, facilitator, zaptest.NewLogger(t))
	require.NoError(t, err)

	h := &gateHarness{router: gin.New()}
	h.router.POST("/v1/chat/completions", func(c *gin.Context) {
		h.gateErr = gate.Gate(c, func() {
			h.proceeds++
			c.Data(http.StatusOK, "application/json", []byte(upstreamBody))
		})
	})
	return h
}

func (h *gateHarness) do(header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	if header != "" {
		req.Header.Set(HeaderPayment, header)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeChallenge(t *testing.T, w *httptest.ResponseRecorder) PaymentRequiredResponse {
	t.Helper()
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp PaymentRequiredResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, X402Version, resp.X402Version)
	require.Len(t, resp.Accepts, 1)
	return resp
}

func validHeader(t *testing.T) string {
	t.Helper()
	header, err := EncodePaymentHeader(testPayload())
	require.NoError(t, err)
	return header
}

func TestNewFacilitatorGate_InvalidConfig(t *testing.T) {
	facilitator := &fakeFacilitator{}

	_, err := NewFacilitatorGate(DefaultChatCompletionRoute("", "$0.1", "base", "", 60, ""), facilitator, nil)
	assert.Error(t, err)

	_, err = NewFacilitatorGate(DefaultChatCompletionRoute("0xpayto", "$0.1", "ethereum", "", 60, ""), facilitator, nil)
	assert.Error(t, err)

	_, err = NewFacilitatorGate(DefaultChatCompletionRoute("0xpayto", "free", "base", "", 60, ""), facilitator, nil)
	assert.Error(t, err)

	_, err = NewFacilitatorGate(DefaultChatCompletionRoute("0xpayto", "$0.1", "base", "", 60, ""), nil, nil)
	assert.Error(t, err)
}

func TestFacilitatorGate_NoHeader(t *testing.T) {
	facilitator := &fakeFacilitator{}
	h := newGateHarness(t, facilitator)

	w := h.do("")

	resp := decodeChallenge(t, w)
	assert.Equal(t, reasonHeaderRequired, resp.Error)
	accept := resp.Accepts[0]
	assert.Equal(t, "exact", accept.Scheme)
	assert.Equal(t, "base", accept.Network)
	assert.Equal(t, "100000", accept.MaxAmountRequired)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", accept.Asset)
	assert.Equal(t, "http://example.com/v1/chat/completions", accept.Resource)
	assert.Equal(t, 0, h.proceeds)
	assert.Equal(t, 0, facilitator.verifyCalls)
	assert.NoError(t, h.gateErr)
}

func TestFacilitatorGate_MalformedHeader(t *testing.T) {
	facilitator := &fakeFacilitator{}
	h := newGateHarness(t, facilitator)

	w := h.do("%%%")

	resp := decodeChallenge(t, w)
	assert.Contains(t, resp.Error, "invalid payment header")
	assert.Equal(t, 0, h.proceeds)
	assert.Equal(t, 0, facilitator.verifyCalls)
}

func TestFacilitatorGate_NetworkMismatch(t *testing.T) {
	facilitator := &fakeFacilitator{}
	h := newGateHarness(t, facilitator)

	payload := testPayload()
	payload.Network = "base-sepolia"
	header, err := EncodePaymentHeader(payload)
	require.NoError(t, err)

	resp := decodeChallenge(t, h.do(header))
	assert.Equal(t, reasonNoMatch, resp.Error)
	assert.Equal(t, 0, facilitator.verifyCalls)
}

func TestFacilitatorGate_VerifyTransportError(t *testing.T) {
	facilitator := &fakeFacilitator{verifyErr: errors.New("connection refused")}
	h := newGateHarness(t, facilitator)

	w := h.do(validHeader(t))

	var gateErr *GateError
	require.ErrorAs(t, h.gateErr, &gateErr)
	assert.Equal(t, http.StatusBadGateway, gateErr.Status)
	assert.Equal(t, 0, h.proceeds)
	assert.Equal(t, 0, w.Body.Len())
}

func TestFacilitatorGate_VerifyInvalid(t *testing.T) {
	facilitator := &fakeFacilitator{verify: &VerifyResponse{IsValid: false, InvalidReason: "insufficient_funds", Payer: "0xpayer"}}
	h := newGateHarness(t, facilitator)

	resp := decodeChallenge(t, h.do(validHeader(t)))
	assert.Equal(t, "insufficient_funds", resp.Error)
	assert.Equal(t, "0xpayer", resp.Payer)
	assert.Equal(t, 0, h.proceeds)
	assert.Equal(t, 0, facilitator.settleCalls)
}

func TestFacilitatorGate_SettleFailedDiscardsResponse(t *testing.T) {
	facilitator := &fakeFacilitator{
		verify: &VerifyResponse{IsValid: true, Payer: "0xpayer"},
		settle: &SettleResponse{Success: false, ErrorReason: "invalid_transaction_state"},
	}
	h := newGateHarness(t, facilitator)

	w := h.do(validHeader(t))

	resp := decodeChallenge(t, w)
	assert.Equal(t, "invalid_transaction_state", resp.Error)
	assert.Equal(t, "0xpayer", resp.Payer)
	assert.NotContains(t, w.Body.String(), "paid answer")
	assert.Empty(t, w.Header().Get(HeaderPaymentResponse))
	assert.Equal(t, 1, h.proceeds)
	assert.NoError(t, h.gateErr)
}

func TestFacilitatorGate_SettleError(t *testing.T) {
	facilitator := &fakeFacilitator{
		verify:    &VerifyResponse{IsValid: true},
		settleErr: errors.New("timeout"),
	}
	h := newGateHarness(t, facilitator)

	resp := decodeChallenge(t, h.do(validHeader(t)))
	assert.Equal(t, reasonSettleFailed, resp.Error)
	assert.Equal(t, 1, h.proceeds)
}

func TestFacilitatorGate_Settled(t *testing.T) {
	facilitator := &fakeFacilitator{
		verify: &VerifyResponse{IsValid: true, Payer: "0xpayer"},
		settle: &SettleResponse{Success: true, Transaction: "0xtx"},
	}
	h := newGateHarness(t, facilitator)

	w := h.do(validHeader(t))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, upstreamBody, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, h.proceeds)
	assert.Equal(t, 1, facilitator.verifyCalls)
	assert.Equal(t, 1, facilitator.settleCalls)
	assert.NoError(t, h.gateErr)

	settle, err := DecodeSettlement(w.Header().Get(HeaderPaymentResponse))
	require.NoError(t, err)
	assert.True(t, settle.Success)
	assert.Equal(t, "0xtx", settle.Transaction)
	assert.Equal(t, "base", settle.Network)
	assert.Equal(t, "0xpayer", settle.Payer)
}

func TestGateFunc(t *testing.T) {
	called := false
	var g Gate = GateFunc(func(c *gin.Context, proceed func()) error {
		proceed()
		return nil
	})
	require.NoError(t, g.Gate(nil, func() { called = true }))
	assert.True(t, called)
}
