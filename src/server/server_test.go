package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecontrol/src/activation"
	"tradecontrol/src/controlplane"
	"tradecontrol/src/handler"
	"tradecontrol/src/model"
	"tradecontrol/src/orders"
)

type stubActivation struct{}

func (stubActivation) LoadAccount(context.Context, string) (bool, error)   { return true, nil }
func (stubActivation) ToggleAccount(context.Context, string) (bool, error) { return false, nil }
func (stubActivation) LoadEngine(context.Context, string) (activation.Engine, error) {
	return activation.Engine{}, nil
}
func (stubActivation) StartEngine(context.Context, string) (activation.Engine, error) {
	now := time.Now()
	return activation.Engine{IsRunning: true, LastStartedAt: &now}, nil
}
func (stubActivation) StopEngine(context.Context, string) (activation.Engine, error) {
	return activation.Engine{}, nil
}
func (stubActivation) EnsureUniverse(_ context.Context, userID string, symbols []string) ([]model.TradingAsset, error) {
	var out []model.TradingAsset
	for _, s := range symbols {
		out = append(out, model.NewDefaultTradingAsset(userID, s))
	}
	return out, nil
}
func (stubActivation) ToggleAsset(_ context.Context, _ string, _ uuid.UUID, current bool) (bool, error) {
	return !current, nil
}

type stubIntake struct{}

func (stubIntake) Submit(context.Context, string, orders.Request) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (stubIntake) Recent(context.Context, string, int) ([]model.ManualOrder, error) {
	return nil, nil
}

type stubSettings struct{}

func (stubSettings) GetByUserID(context.Context, string) (*model.UserSettings, error) {
	return nil, nil
}
func (stubSettings) Upsert(context.Context, *model.UserSettings, bool) error { return nil }

type stubCipher struct{}

func (stubCipher) Encrypt(p string) (string, error) { return p, nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := controlplane.NewService(controlplane.Config{}, stubActivation{}, stubIntake{}, stubSettings{}, stubCipher{})
	require.NoError(t, err)

	return NewRouter(Deps{
		Sessions:       handler.FromService(svc),
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
		IdentityHeader: "X-User-Id",
		AllowedOrigins: []string{"*"},
	})
}

func TestRouter_Healthcheck(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, "metrics", rr.Body.String())
}

func TestRouter_ControlRequiresIdentity(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/control/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_EngineLifecycle(t *testing.T) {
	router := newTestRouter(t)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-User-Id", "u-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	status := do(http.MethodGet, "/api/v1/control/")
	require.Equal(t, http.StatusOK, status.Code)
	assert.Contains(t, status.Body.String(), `"can_start_engine":true`)

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/v1/control/engine/start").Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, "/api/v1/control/engine/start").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/control/settings").Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/control/engine/start", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	newTestRouter(t).ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
