package repository

import (
	"context"
	"errors"

	"tradecontrol/src/database"
	"tradecontrol/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var riskSettingsColumns = []string{
	"min_profit_percent",
	"max_profit_percent",
	"min_order_amount",
	"max_order_amount",
	"wallet_split_levels",
	"account_active",
	"updated_at",
}

var credentialColumns = []string{
	"api_key_encrypted",
	"api_secret_encrypted",
}

type GormUserSettingsRepository struct {
	db *gorm.DB
}

func NewUserSettingsRepository() *GormUserSettingsRepository {
	logger.WithField("component", "GormUserSettingsRepository").
		Info("Creating new UserSettingsRepository with MainDB")

	return &GormUserSettingsRepository{db: database.MainDB}
}

func (r *GormUserSettingsRepository) WithDB(db *gorm.DB) *GormUserSettingsRepository {
	return &GormUserSettingsRepository{db: db}
}

// GetByUserID returns nil, nil when the user has never saved settings.
func (r *GormUserSettingsRepository) GetByUserID(ctx context.Context, userID string) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":    "user_settings",
			"op":      "GetByUserID",
			"user_id": userID,
		}).WithError(err).Error("failed to load user settings")
		return nil, err
	}
	return &settings, nil
}

// UpsertAccountActive writes only the activation flag. A missing row is
// created with default risk parameters.
func (r *GormUserSettingsRepository) UpsertAccountActive(ctx context.Context, userID string, active bool) error {
	row := model.DefaultUserSettings(userID)
	row.AccountActive = active

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_active", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "user_settings",
			"op":      "UpsertAccountActive",
			"user_id": userID,
		}).WithError(err).Error("failed to upsert account flag")
	}
	return err
}

// Upsert writes the risk parameters. Credential columns are only touched when
// updateCredentials is set so a blank form field keeps the stored ciphertext.
func (r *GormUserSettingsRepository) Upsert(ctx context.Context, settings *model.UserSettings, updateCredentials bool) error {
	columns := append([]string{}, riskSettingsColumns...)
	if updateCredentials {
		columns = append(columns, credentialColumns...)
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(settings).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "user_settings",
			"op":      "Upsert",
			"user_id": settings.UserID,
		}).WithError(err).Error("failed to upsert user settings")
	}
	return err
}
