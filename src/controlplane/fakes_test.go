package controlplane

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradecontrol/src/activation"
	"tradecontrol/src/model"
	"tradecontrol/src/orders"
)

type fakeActivation struct {
	mu sync.Mutex

	account    bool
	engine     activation.Engine
	assets     []model.TradingAsset
	clock      time.Time
	accountErr error
	engineErr  error
	assetsErr  error
	writeErr   error
	writes     int
}

func newFakeActivation(userID string) *fakeActivation {
	f := &fakeActivation{account: true, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, s := range model.Universe {
		f.assets = append(f.assets, model.NewDefaultTradingAsset(userID, s))
	}
	return f
}

func (f *fakeActivation) tick() *time.Time {
	f.clock = f.clock.Add(time.Second)
	t := f.clock
	return &t
}

func (f *fakeActivation) LoadAccount(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.account, f.accountErr
}

func (f *fakeActivation) ToggleAccount(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return f.account, f.writeErr
	}
	f.account = !f.account
	return f.account, nil
}

func (f *fakeActivation) LoadEngine(context.Context, string) (activation.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engine, f.engineErr
}

func (f *fakeActivation) StartEngine(context.Context, string) (activation.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return activation.Engine{}, f.writeErr
	}
	f.engine.IsRunning = true
	f.engine.LastStartedAt = f.tick()
	return f.engine, nil
}

func (f *fakeActivation) StopEngine(context.Context, string) (activation.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return activation.Engine{}, f.writeErr
	}
	f.engine.IsRunning = false
	f.engine.LastStoppedAt = f.tick()
	return f.engine, nil
}

func (f *fakeActivation) EnsureUniverse(context.Context, string, []string) ([]model.TradingAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assetsErr != nil {
		return nil, f.assetsErr
	}
	return append([]model.TradingAsset(nil), f.assets...), nil
}

func (f *fakeActivation) ToggleAsset(_ context.Context, _ string, assetID uuid.UUID, current bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.writeErr != nil {
		return current, f.writeErr
	}
	for i := range f.assets {
		if f.assets[i].ID == assetID {
			f.assets[i].IsActive = !current
			return !current, nil
		}
	}
	return current, errors.New("missing")
}

type fakeIntake struct {
	submitted []orders.Request
	err       error
}

func (f *fakeIntake) Submit(_ context.Context, _ string, req orders.Request) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.submitted = append(f.submitted, req)
	return uuid.New(), nil
}

func (f *fakeIntake) Recent(_ context.Context, _ string, limit int) ([]model.ManualOrder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]model.ManualOrder, 0, limit), nil
}

type fakeSettings struct {
	row       *model.UserSettings
	getErr    error
	upsertErr error
	upserts   int
	lastCreds bool
}

func (f *fakeSettings) GetByUserID(context.Context, string) (*model.UserSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.row == nil {
		return nil, nil
	}
	cp := *f.row
	return &cp, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *model.UserSettings, updateCredentials bool) error {
	f.upserts++
	f.lastCreds = updateCredentials
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *s
	if f.row != nil && !updateCredentials {
		cp.APIKeyCiphertext = f.row.APIKeyCiphertext
		cp.APISecretCiphertext = f.row.APISecretCiphertext
	}
	cp.UpdatedAt = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	f.row = &cp
	return nil
}

type fakeCipher struct {
	calls int
	err   error
}

func (f *fakeCipher) Encrypt(plaintext string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "sealed:" + plaintext, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (f *fakeNotifier) Publish(_ string, snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

type fakeRecorder struct {
	mu      sync.Mutex
	results map[string][]string
}

func (f *fakeRecorder) Observe(op, result string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[string][]string{}
	}
	f.results[op] = append(f.results[op], result)
}
