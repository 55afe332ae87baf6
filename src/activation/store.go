package activation

import (
	"context"
	"errors"
	"time"

	"tradecontrol/src/errs"
	"tradecontrol/src/model"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type accountStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserSettings, error)
	UpsertAccountActive(ctx context.Context, userID string, active bool) error
}

type engineStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.EngineStatus, error)
	MarkStarted(ctx context.Context, userID string, at time.Time) error
	MarkStopped(ctx context.Context, userID string, at time.Time) error
}

type assetStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.TradingAsset, error)
	CreateMissing(ctx context.Context, assets []model.TradingAsset) error
	SetActive(ctx context.Context, userID string, assetID uuid.UUID, active bool) error
}

// Store owns the three activation flags of a user: account, engine and
// per-asset. Missing rows resolve to defaults, never to errors.
type Store struct {
	accounts accountStore
	engines  engineStore
	assets   assetStore
	now      func() time.Time
}

func NewStore(accounts accountStore, engines engineStore, assets assetStore) *Store {
	return &Store{
		accounts: accounts,
		engines:  engines,
		assets:   assets,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used to stamp engine transitions.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// LoadAccount returns the account flag, true when the user has no row.
func (s *Store) LoadAccount(ctx context.Context, userID string) (bool, error) {
	row, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return false, errs.Persistence("activation.LoadAccount", err)
	}
	if row == nil {
		return true, nil
	}
	return row.AccountActive, nil
}

// ToggleAccount flips the stored flag and returns the value written.
func (s *Store) ToggleAccount(ctx context.Context, userID string) (bool, error) {
	current, err := s.LoadAccount(ctx, userID)
	if err != nil {
		return false, err
	}

	next := !current
	if err := s.accounts.UpsertAccountActive(ctx, userID, next); err != nil {
		return current, errs.Persistence("activation.ToggleAccount", err)
	}
	return next, nil
}

// LoadEngine returns the stopped zero value for a user who never started.
func (s *Store) LoadEngine(ctx context.Context, userID string) (Engine, error) {
	row, err := s.engines.GetByUserID(ctx, userID)
	if err != nil {
		return Engine{}, errs.Persistence("activation.LoadEngine", err)
	}

	engine, drifted := reconcileEngine(row)
	if drifted {
		logger.WithFields(map[string]interface{}{
			"component":  "activation",
			"user_id":    userID,
			"is_running": row.IsRunning,
		}).Warn("engine flag disagrees with latest transition stamp, using stamps")
	}
	return engine, nil
}

// StartEngine persists RUNNING and returns the row as stored.
func (s *Store) StartEngine(ctx context.Context, userID string) (Engine, error) {
	if err := s.engines.MarkStarted(ctx, userID, s.now()); err != nil {
		return Engine{}, errs.Persistence("activation.StartEngine", err)
	}
	return s.LoadEngine(ctx, userID)
}

// StopEngine persists STOPPED and returns the row as stored.
func (s *Store) StopEngine(ctx context.Context, userID string) (Engine, error) {
	if err := s.engines.MarkStopped(ctx, userID, s.now()); err != nil {
		return Engine{}, errs.Persistence("activation.StopEngine", err)
	}
	return s.LoadEngine(ctx, userID)
}

// EnsureUniverse creates default rows for symbols the user does not have yet
// and returns the user's full asset set. Existing rows are left untouched.
func (s *Store) EnsureUniverse(ctx context.Context, userID string, symbols []string) ([]model.TradingAsset, error) {
	existing, err := s.assets.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence("activation.EnsureUniverse", err)
	}

	have := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		have[a.Symbol] = struct{}{}
	}

	var missing []model.TradingAsset
	for _, symbol := range symbols {
		symbol = model.NormalizeSymbol(symbol)
		if _, ok := have[symbol]; ok {
			continue
		}
		have[symbol] = struct{}{}
		missing = append(missing, model.NewDefaultTradingAsset(userID, symbol))
	}
	if len(missing) == 0 {
		return existing, nil
	}

	if err := s.assets.CreateMissing(ctx, missing); err != nil {
		return nil, errs.Persistence("activation.EnsureUniverse", err)
	}

	assets, err := s.assets.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Persistence("activation.EnsureUniverse", err)
	}
	return assets, nil
}

// ToggleAsset writes !current for one asset the user owns and returns it.
func (s *Store) ToggleAsset(ctx context.Context, userID string, assetID uuid.UUID, current bool) (bool, error) {
	next := !current
	if err := s.assets.SetActive(ctx, userID, assetID, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return current, errs.New(errs.CodeNotFound, "activation.ToggleAsset", err)
		}
		return current, errs.Persistence("activation.ToggleAsset", err)
	}
	return next, nil
}
