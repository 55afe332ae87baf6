package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecontrol/src/orders"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, UserID: "u-1", IdentityHeader: "X-User-Id", Timeout: 2 * time.Second})
}

func TestStatus_SendsIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u-1", r.Header.Get("X-User-Id"))
		assert.Equal(t, "/api/v1/control/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"u-1","loaded":true,"account_active":true,"engine":{"is_running":true}}`))
	})

	snap, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Loaded)
	assert.True(t, snap.Engine.IsRunning)
}

func TestStartEngine_ConflictIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"ENGINE_ALREADY_RUNNING","message":"already running"}`))
	})

	_, err := c.StartEngine(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "ENGINE_ALREADY_RUNNING", apiErr.Code)
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.ToggleAccount(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReadsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user_id":"u-1"}`))
	})

	_, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSubmitOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req orders.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ETH", req.Symbol)
		assert.True(t, req.Amount.Decimal.Equal(decimal.NewFromInt(50)))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc","status":"pending"}`))
	})

	id, err := c.SubmitOrder(context.Background(), orders.Request{
		Symbol: "ETH", OrderType: "MARKET", OrderSide: "SELL",
		Amount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}
