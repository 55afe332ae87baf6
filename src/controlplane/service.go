package controlplane

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tradecontrol/src/activation"
	"tradecontrol/src/errs"
	"tradecontrol/src/model"
	"tradecontrol/src/orders"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

type activationStore interface {
	LoadAccount(ctx context.Context, userID string) (bool, error)
	ToggleAccount(ctx context.Context, userID string) (bool, error)
	LoadEngine(ctx context.Context, userID string) (activation.Engine, error)
	StartEngine(ctx context.Context, userID string) (activation.Engine, error)
	StopEngine(ctx context.Context, userID string) (activation.Engine, error)
	EnsureUniverse(ctx context.Context, userID string, symbols []string) ([]model.TradingAsset, error)
	ToggleAsset(ctx context.Context, userID string, assetID uuid.UUID, current bool) (bool, error)
}

type orderIntake interface {
	Submit(ctx context.Context, userID string, req orders.Request) (uuid.UUID, error)
	Recent(ctx context.Context, userID string, limit int) ([]model.ManualOrder, error)
}

type settingsStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserSettings, error)
	Upsert(ctx context.Context, settings *model.UserSettings, updateCredentials bool) error
}

// Cipher seals credentials before they reach the store.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
}

// Notifier receives the projection after every successful mutation.
type Notifier interface {
	Publish(userID string, snapshot Snapshot)
}

type recorder interface {
	Observe(op, result string, elapsed time.Duration)
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithRecorder(r recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithUniverse overrides the symbol set ensured on load.
func WithUniverse(symbols []string) Option {
	return func(s *Service) { s.universe = append([]string(nil), symbols...) }
}

// Service is the entry point for every presentation layer. It keeps one
// Session per user.
type Service struct {
	cfg        Config
	activation activationStore
	intake     orderIntake
	settings   settingsStore
	cipher     Cipher
	notifier   Notifier
	recorder   recorder
	universe   []string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(cfg Config, act activationStore, intake orderIntake, settings settingsStore, cipher Cipher, opts ...Option) (*Service, error) {
	if act == nil {
		return nil, errors.New("activation store is required")
	}
	if intake == nil {
		return nil, errors.New("order intake is required")
	}
	if settings == nil {
		return nil, errors.New("settings store is required")
	}
	if cipher == nil {
		return nil, errors.New("cipher is required")
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.RecentOrdersLimit <= 0 {
		cfg.RecentOrdersLimit = 20
	}

	s := &Service{
		cfg:        cfg,
		activation: act,
		intake:     intake,
		settings:   settings,
		cipher:     cipher,
		universe:   model.Universe,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session returns the user's session, creating it on first use.
// The identity is required for every operation.
func (s *Service) Session(userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errs.New(errs.CodeNoUser, "controlplane.Session", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = newSession(s, userID)
		s.sessions[userID] = sess
	}
	return sess, nil
}

// Forget drops the user's in-memory projection. The next call reloads it.
func (s *Service) Forget(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

func (s *Service) observe(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(errs.CodeOf(err))
	}
	if s.recorder != nil {
		s.recorder.Observe(op, result, time.Since(started))
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "controlplane",
			"op":        op,
			"code":      result,
		}).WithError(err).Warn("control operation failed")
	}
}

func (s *Service) publish(snapshot Snapshot) {
	if s.notifier != nil {
		s.notifier.Publish(snapshot.UserID, snapshot)
	}
}
