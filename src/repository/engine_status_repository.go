package repository

import (
	"context"
	"errors"
	"time"

	"tradecontrol/src/database"
	"tradecontrol/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormEngineStatusRepository struct {
	db *gorm.DB
}

func NewEngineStatusRepository() *GormEngineStatusRepository {
	logger.WithField("component", "GormEngineStatusRepository").
		Info("Creating new EngineStatusRepository with MainDB")

	return &GormEngineStatusRepository{db: database.MainDB}
}

func (r *GormEngineStatusRepository) WithDB(db *gorm.DB) *GormEngineStatusRepository {
	return &GormEngineStatusRepository{db: db}
}

func (r *GormEngineStatusRepository) GetByUserID(ctx context.Context, userID string) (*model.EngineStatus, error) {
	var status model.EngineStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":    "engine_status",
			"op":      "GetByUserID",
			"user_id": userID,
		}).WithError(err).Error("failed to load engine status")
		return nil, err
	}
	return &status, nil
}

// MarkStarted sets is_running and stamps last_started_at, leaving
// last_stopped_at as it was.
func (r *GormEngineStatusRepository) MarkStarted(ctx context.Context, userID string, at time.Time) error {
	row := model.EngineStatus{UserID: userID, IsRunning: true, LastStartedAt: &at}
	return r.upsert(ctx, "MarkStarted", &row, "last_started_at")
}

// MarkStopped clears is_running and stamps last_stopped_at.
func (r *GormEngineStatusRepository) MarkStopped(ctx context.Context, userID string, at time.Time) error {
	row := model.EngineStatus{UserID: userID, IsRunning: false, LastStoppedAt: &at}
	return r.upsert(ctx, "MarkStopped", &row, "last_stopped_at")
}

func (r *GormEngineStatusRepository) upsert(ctx context.Context, op string, row *model.EngineStatus, stampColumn string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_running", stampColumn, "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "engine_status",
			"op":      op,
			"user_id": row.UserID,
		}).WithError(err).Error("failed to upsert engine status")
	}
	return err
}
