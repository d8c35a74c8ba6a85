package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGateway(server.URL, "test-key", "kes")
}

func TestGateway_CreateIntent(t *testing.T) {
	orderID := uuid.New()

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intents", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, orderID.String(), payload["order_id"])
		assert.Equal(t, 7000.0, payload["amount"])
		assert.Equal(t, "kes", payload["currency"])

		_ = json.NewEncoder(w).Encode(Intent{
			ID:       "int_123",
			Amount:   7000,
			Currency: "kes",
			Status:   "requires_capture",
		})
	})

	intent, err := gw.CreateIntent(context.Background(), orderID, 7000)
	require.NoError(t, err)
	assert.Equal(t, "int_123", intent.ID)
	assert.Equal(t, 7000.0, intent.Amount)
}

func TestGateway_CaptureDeclined(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intents/int_123/capture", r.URL.Path)
		w.WriteHeader(http.StatusPaymentRequired)
	})

	err := gw.Capture(context.Background(), "int_123")
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestGateway_RefundServerError(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "boom"})
	})

	err := gw.Refund(context.Background(), "int_123", 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeclined)
}

func TestGateway_Payout(t *testing.T) {
	fixerID := uuid.New()

	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payouts", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, fixerID.String(), payload["recipient_id"])
		assert.Equal(t, 6300.0, payload["amount"])

		w.WriteHeader(http.StatusOK)
	})

	err := gw.Payout(context.Background(), fixerID, 6300)
	assert.NoError(t, err)
}

func TestGateway_EmptyBaseURL(t *testing.T) {
	gw := NewGateway("", "", "kes")

	_, err := gw.CreateIntent(context.Background(), uuid.New(), 100)
	assert.Error(t, err)
}
