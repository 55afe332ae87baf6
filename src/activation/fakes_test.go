package activation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradecontrol/src/model"
)

type fakeAccounts struct {
	rows      map[string]*model.UserSettings
	getErr    error
	upsertErr error
	upserts   int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{rows: map[string]*model.UserSettings{}}
}

func (f *fakeAccounts) GetByUserID(_ context.Context, userID string) (*model.UserSettings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeAccounts) UpsertAccountActive(_ context.Context, userID string, active bool) error {
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	row, ok := f.rows[userID]
	if !ok {
		d := model.DefaultUserSettings(userID)
		row = &d
		f.rows[userID] = row
	}
	row.AccountActive = active
	return nil
}

type fakeEngines struct {
	rows      map[string]*model.EngineStatus
	getErr    error
	markErr   error
	markCalls int
}

func newFakeEngines() *fakeEngines {
	return &fakeEngines{rows: map[string]*model.EngineStatus{}}
}

func (f *fakeEngines) GetByUserID(_ context.Context, userID string) (*model.EngineStatus, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	row, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeEngines) row(userID string) *model.EngineStatus {
	row, ok := f.rows[userID]
	if !ok {
		row = &model.EngineStatus{UserID: userID}
		f.rows[userID] = row
	}
	return row
}

func (f *fakeEngines) MarkStarted(_ context.Context, userID string, at time.Time) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	row := f.row(userID)
	row.IsRunning = true
	row.LastStartedAt = &at
	return nil
}

func (f *fakeEngines) MarkStopped(_ context.Context, userID string, at time.Time) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	row := f.row(userID)
	row.IsRunning = false
	row.LastStoppedAt = &at
	return nil
}

type fakeAssets struct {
	rows      []model.TradingAsset
	listErr   error
	createErr error
	setErr    error
	creates   int
}

func (f *fakeAssets) ListByUser(_ context.Context, userID string) ([]model.TradingAsset, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.TradingAsset
	for _, a := range f.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssets) CreateMissing(_ context.Context, assets []model.TradingAsset) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	for _, a := range assets {
		dup := false
		for _, existing := range f.rows {
			if existing.UserID == a.UserID && existing.Symbol == a.Symbol {
				dup = true
				break
			}
		}
		if !dup {
			f.rows = append(f.rows, a)
		}
	}
	return nil
}

func (f *fakeAssets) SetActive(_ context.Context, userID string, assetID uuid.UUID, active bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	for i := range f.rows {
		if f.rows[i].ID == assetID && f.rows[i].UserID == userID {
			f.rows[i].IsActive = active
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
