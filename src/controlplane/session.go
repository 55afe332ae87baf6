package controlplane

import (
	"context"
	"sync"
	"time"

	"tradecontrol/src/activation"
	"tradecontrol/src/errs"
	"tradecontrol/src/model"
	"tradecontrol/src/orders"
	"tradecontrol/src/risk"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Session holds one user's in-memory projection. Operations on a session are
// serialized and each one reflects only values the store confirmed.
type Session struct {
	svc    *Service
	userID string

	mu            sync.Mutex
	loaded        bool
	accountActive bool
	engine        activation.Engine
	assets        []model.TradingAsset
	settings      *RiskSettingsView
}

func newSession(svc *Service, userID string) *Session {
	return &Session{
		svc:           svc,
		userID:        userID,
		accountActive: true,
	}
}

func (s *Session) UserID() string { return s.userID }

// run serializes fn against the session under the store timeout and
// publishes the projection when fn succeeded and changed it.
func (s *Session) run(ctx context.Context, op string, needsLoad, publish bool, fn func(ctx context.Context) error) (err error) {
	started := time.Now()
	defer func() { s.svc.observe(op, started, err) }()

	var snap Snapshot
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx, cancel := context.WithTimeout(ctx, s.svc.cfg.StoreTimeout)
		defer cancel()

		if needsLoad && !s.loaded {
			if err = s.loadAllLocked(ctx); err != nil {
				return
			}
		}
		if err = fn(ctx); err != nil {
			return
		}
		snap = s.snapshotLocked()
	}()

	if err == nil && publish {
		s.svc.publish(snap)
	}
	return err
}

// LoadAll fetches account, engine and asset universe concurrently. Missing
// rows become defaults. On failure the projection is left as it was.
func (s *Session) LoadAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.run(ctx, "load_all", false, false, func(ctx context.Context) error {
		if err := s.loadAllLocked(ctx); err != nil {
			return err
		}
		snap = s.snapshotLocked()
		return nil
	})
	return snap, err
}

func (s *Session) loadAllLocked(ctx context.Context) error {
	var (
		active bool
		engine activation.Engine
		assets []model.TradingAsset
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.svc.activation.LoadAccount(gctx, s.userID)
		return err
	})
	g.Go(func() error {
		var err error
		engine, err = s.svc.activation.LoadEngine(gctx, s.userID)
		return err
	})
	g.Go(func() error {
		var err error
		assets, err = s.svc.activation.EnsureUniverse(gctx, s.userID, s.svc.universe)
		return err
	})
	if err := g.Wait(); err != nil {
		return errs.Persistence("controlplane.LoadAll", err)
	}

	s.accountActive = active
	s.engine = engine
	s.assets = assets
	s.loaded = true
	return nil
}

func (s *Session) ToggleAccount(ctx context.Context) (bool, error) {
	var active bool
	err := s.run(ctx, "toggle_account", true, true, func(ctx context.Context) error {
		next, err := s.svc.activation.ToggleAccount(ctx, s.userID)
		if err != nil {
			return err
		}
		s.accountActive = next
		if s.settings != nil {
			s.settings.AccountActive = next
		}
		active = next
		return nil
	})
	return active, err
}

// ToggleAsset flips one asset of the loaded universe. Assets outside the
// projection are reported as NOT_FOUND without touching the store.
func (s *Session) ToggleAsset(ctx context.Context, assetID uuid.UUID) (model.TradingAsset, error) {
	var updated model.TradingAsset
	err := s.run(ctx, "toggle_asset", true, true, func(ctx context.Context) error {
		idx := -1
		for i := range s.assets {
			if s.assets[i].ID == assetID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errs.New(errs.CodeNotFound, "controlplane.ToggleAsset", nil)
		}

		next, err := s.svc.activation.ToggleAsset(ctx, s.userID, assetID, s.assets[idx].IsActive)
		if err != nil {
			return err
		}
		s.assets[idx].IsActive = next
		updated = s.assets[idx]
		return nil
	})
	return updated, err
}

func (s *Session) StartEngine(ctx context.Context) (activation.Engine, error) {
	return s.transition(ctx, "start_engine", activation.ActionStart)
}

func (s *Session) StopEngine(ctx context.Context) (activation.Engine, error) {
	return s.transition(ctx, "stop_engine", activation.ActionStop)
}

func (s *Session) transition(ctx context.Context, op string, action activation.EngineAction) (activation.Engine, error) {
	var engine activation.Engine
	err := s.run(ctx, op, true, true, func(ctx context.Context) error {
		opName := "controlplane." + op
		if action == activation.ActionStart && !s.accountActive {
			return errs.New(errs.CodeAccountInactive, opName, nil)
		}
		if !activation.CanTransition(s.engine.State(), action) {
			if action == activation.ActionStart {
				return errs.New(errs.CodeEngineAlreadyRunning, opName, nil)
			}
			return errs.New(errs.CodeEngineNotRunning, opName, nil)
		}

		var (
			next activation.Engine
			err  error
		)
		if action == activation.ActionStart {
			next, err = s.svc.activation.StartEngine(ctx, s.userID)
		} else {
			next, err = s.svc.activation.StopEngine(ctx, s.userID)
		}
		if err != nil {
			return err
		}
		s.engine = next
		engine = next
		return nil
	})
	return engine, err
}

// SubmitOrder queues a manual order. The projection does not change.
func (s *Session) SubmitOrder(ctx context.Context, req orders.Request) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.run(ctx, "submit_order", false, false, func(ctx context.Context) error {
		var err error
		id, err = s.svc.intake.Submit(ctx, s.userID, req)
		return err
	})
	return id, err
}

// RecentOrders lists the user's latest manual orders. limit <= 0 uses the
// configured default.
func (s *Session) RecentOrders(ctx context.Context, limit int) ([]model.ManualOrder, error) {
	if limit <= 0 {
		limit = s.svc.cfg.RecentOrdersLimit
	}
	var list []model.ManualOrder
	err := s.run(ctx, "recent_orders", false, false, func(ctx context.Context) error {
		var err error
		list, err = s.svc.intake.Recent(ctx, s.userID, limit)
		return err
	})
	return list, err
}

// RiskSettingsForm is the settings page input. Empty credentials keep the
// stored ones.
type RiskSettingsForm struct {
	APIKey            string          `json:"api_key"`
	APISecret         string          `json:"api_secret"`
	MinProfitPercent  decimal.Decimal `json:"min_profit_percent"`
	MaxProfitPercent  decimal.Decimal `json:"max_profit_percent"`
	MinOrderAmount    decimal.Decimal `json:"min_order_amount"`
	MaxOrderAmount    decimal.Decimal `json:"max_order_amount"`
	WalletSplitLevels int             `json:"wallet_split_levels"`
	AccountActive     bool            `json:"account_active"`
}

func (f RiskSettingsForm) settings(userID string) model.UserSettings {
	return model.UserSettings{
		UserID:            userID,
		MinProfitPercent:  f.MinProfitPercent,
		MaxProfitPercent:  f.MaxProfitPercent,
		MinOrderAmount:    f.MinOrderAmount,
		MaxOrderAmount:    f.MaxOrderAmount,
		WalletSplitLevels: f.WalletSplitLevels,
		AccountActive:     f.AccountActive,
	}
}

// LoadRiskSettings returns the stored settings or the defaults.
func (s *Session) LoadRiskSettings(ctx context.Context) (RiskSettingsView, error) {
	var view RiskSettingsView
	err := s.run(ctx, "load_risk_settings", false, false, func(ctx context.Context) error {
		row, err := s.svc.settings.GetByUserID(ctx, s.userID)
		if err != nil {
			return errs.Persistence("controlplane.LoadRiskSettings", err)
		}
		if row == nil {
			d := model.DefaultUserSettings(s.userID)
			row = &d
		}
		s.settings = newRiskSettingsView(*row)
		s.accountActive = row.AccountActive
		view = *s.settings
		return nil
	})
	return view, err
}

// SaveRiskSettings validates the form, seals any new credentials, persists and
// reflects the stored row. Invalid input never reaches the store or the cipher.
func (s *Session) SaveRiskSettings(ctx context.Context, form RiskSettingsForm) (RiskSettingsView, error) {
	const op = "controlplane.SaveRiskSettings"

	next := form.settings(s.userID)
	if err := risk.Validate(next); err != nil {
		s.svc.observe("save_risk_settings", time.Now(), err)
		return RiskSettingsView{}, err
	}

	var view RiskSettingsView
	err := s.run(ctx, "save_risk_settings", true, true, func(ctx context.Context) error {
		current, err := s.svc.settings.GetByUserID(ctx, s.userID)
		if err != nil {
			return errs.Persistence(op, err)
		}
		if current != nil {
			next.APIKeyCiphertext = current.APIKeyCiphertext
			next.APISecretCiphertext = current.APISecretCiphertext
		}

		updateCredentials := false
		if form.APIKey != "" {
			if next.APIKeyCiphertext, err = s.svc.cipher.Encrypt(form.APIKey); err != nil {
				return errs.New(errs.CodeUnknown, op, err)
			}
			updateCredentials = true
		}
		if form.APISecret != "" {
			if next.APISecretCiphertext, err = s.svc.cipher.Encrypt(form.APISecret); err != nil {
				return errs.New(errs.CodeUnknown, op, err)
			}
			updateCredentials = true
		}

		if err := s.svc.settings.Upsert(ctx, &next, updateCredentials); err != nil {
			return errs.Persistence(op, err)
		}

		stored, err := s.svc.settings.GetByUserID(ctx, s.userID)
		if err != nil {
			return errs.Persistence(op, err)
		}
		if stored == nil {
			return errs.New(errs.CodePersistenceFailure, op, nil)
		}

		s.settings = newRiskSettingsView(*stored)
		s.accountActive = stored.AccountActive
		view = *s.settings
		return nil
	})
	return view, err
}

// Snapshot copies the current projection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Affordances reports which actions the projection currently allows.
func (s *Session) Affordances() Affordances {
	s.mu.Lock()
	defer s.mu.Unlock()
	return affordancesFor(s.accountActive, s.engine)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		UserID:        s.userID,
		Loaded:        s.loaded,
		AccountActive: s.accountActive,
		Engine:        s.engine,
		Assets:        append([]model.TradingAsset(nil), s.assets...),
		Affordances:   affordancesFor(s.accountActive, s.engine),
	}
	if s.settings != nil {
		settings := *s.settings
		snap.Settings = &settings
	}
	return snap
}
