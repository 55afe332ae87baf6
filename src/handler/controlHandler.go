package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tradecontrol/src/activation"
	"tradecontrol/src/auth"
	"tradecontrol/src/controlplane"
	"tradecontrol/src/errs"
	"tradecontrol/src/model"
	"tradecontrol/src/orders"
	"tradecontrol/src/risk"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

type controlSession interface {
	LoadAll(ctx context.Context) (controlplane.Snapshot, error)
	ToggleAccount(ctx context.Context) (bool, error)
	ToggleAsset(ctx context.Context, assetID uuid.UUID) (model.TradingAsset, error)
	StartEngine(ctx context.Context) (activation.Engine, error)
	StopEngine(ctx context.Context) (activation.Engine, error)
	SubmitOrder(ctx context.Context, req orders.Request) (uuid.UUID, error)
	RecentOrders(ctx context.Context, limit int) ([]model.ManualOrder, error)
	LoadRiskSettings(ctx context.Context) (controlplane.RiskSettingsView, error)
	SaveRiskSettings(ctx context.Context, form controlplane.RiskSettingsForm) (controlplane.RiskSettingsView, error)
	Snapshot() controlplane.Snapshot
}

// SessionFunc resolves the control session of a user.
type SessionFunc func(userID string) (controlSession, error)

// FromService adapts a controlplane.Service to SessionFunc.
func FromService(svc *controlplane.Service) SessionFunc {
	return func(userID string) (controlSession, error) {
		session, err := svc.Session(userID)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

type errorResponse struct {
	Error      string                 `json:"error"`
	Message    string                 `json:"message"`
	Violations []risk.ValidationError `json:"violations,omitempty"`
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.CodeValidation:
		return http.StatusUnprocessableEntity
	case errs.CodeInvalidAmount, errs.CodeUnknownSymbol, errs.CodeInvalidOrderType, errs.CodeInvalidOrderSide:
		return http.StatusBadRequest
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeEngineAlreadyRunning, errs.CodeEngineNotRunning, errs.CodeAccountInactive:
		return http.StatusConflict
	case errs.CodePersistenceFailure:
		return http.StatusServiceUnavailable
	case errs.CodeNoUser:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	status := statusFor(code)

	resp := errorResponse{Error: string(code), Message: err.Error()}
	var violations risk.ValidationErrors
	if errors.As(err, &violations) {
		resp.Violations = violations
	}
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("code", code).Error("control request failed")
		resp.Message = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode control response")
	}
}

func decode(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// sessionFor resolves the caller's session, writing 401 when there is none.
func sessionFor(w http.ResponseWriter, r *http.Request, sessions SessionFunc) (controlSession, bool) {
	userID, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	session, err := sessions(userID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return session, true
}

// ControlStatusHandler loads the full projection for the dashboard.
func ControlStatusHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		snap, err := session.LoadAll(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func ToggleAccountHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		active, err := session.ToggleAccount(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"account_active": active})
	}
}

func ToggleAssetHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
		if err != nil {
			http.Error(w, "invalid assetID", http.StatusBadRequest)
			return
		}
		asset, err := session.ToggleAsset(r.Context(), assetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, asset)
	}
}

func StartEngineHandler(sessions SessionFunc) http.HandlerFunc {
	return engineHandler(sessions, controlSession.StartEngine)
}

func StopEngineHandler(sessions SessionFunc) http.HandlerFunc {
	return engineHandler(sessions, controlSession.StopEngine)
}

func engineHandler(sessions SessionFunc, action func(controlSession, context.Context) (activation.Engine, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		engine, err := action(session, r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, engine)
	}
}

// orderPayload keeps amount raw so a blank or malformed value becomes
// INVALID_AMOUNT instead of a decode failure.
type orderPayload struct {
	Symbol    string          `json:"symbol"`
	OrderType string          `json:"order_type"`
	OrderSide string          `json:"order_side"`
	Amount    json.RawMessage `json:"amount"`
}

func SubmitOrderHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		var payload orderPayload
		if err := decode(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid manual order payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		amount, err := orders.ParseAmount(payload.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		req := orders.Request{
			Symbol:    payload.Symbol,
			OrderType: payload.OrderType,
			OrderSide: payload.OrderSide,
			Amount:    amount,
		}
		id, err := session.SubmitOrder(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id.String(), "status": model.OrderStatusPending})
	}
}

func RecentOrdersHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 || parsed > 200 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		list, err := session.RecentOrders(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []model.ManualOrder{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetRiskSettingsHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		view, err := session.LoadRiskSettings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func SaveRiskSettingsHandler(sessions SessionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFor(w, r, sessions)
		if !ok {
			return
		}
		var form controlplane.RiskSettingsForm
		if err := decode(r, &form); err != nil {
			logger.WithError(err).Warn("invalid risk settings payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		view, err := session.SaveRiskSettings(r.Context(), form)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

type streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string, current func() controlplane.Snapshot) error
}

// StreamHandler upgrades to a websocket that receives a snapshot after
// every successful mutation of the caller's session.
func StreamHandler(sessions SessionFunc, hub streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		session, err := sessions(userID)
		if err != nil {
			writeError(w, err)
			return
		}

		if !session.Snapshot().Loaded {
			if _, err = session.LoadAll(r.Context()); err != nil {
				writeError(w, err)
				return
			}
		}
		if err := hub.Serve(w, r, userID, session.Snapshot); err != nil {
			logger.WithError(err).WithField("user_id", userID).Warn("websocket upgrade failed")
		}
	}
}
