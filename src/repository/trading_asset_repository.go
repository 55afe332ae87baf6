package repository

import (
	"context"

	"tradecontrol/src/database"
	"tradecontrol/src/model"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTradingAssetRepository struct {
	db *gorm.DB
}

func NewTradingAssetRepository() *GormTradingAssetRepository {
	logger.WithField("component", "GormTradingAssetRepository").
		Info("Creating new TradingAssetRepository with MainDB")

	return &GormTradingAssetRepository{db: database.MainDB}
}

func (r *GormTradingAssetRepository) WithDB(db *gorm.DB) *GormTradingAssetRepository {
	return &GormTradingAssetRepository{db: db}
}

// ListByUser returns every asset row owned by the user ordered by symbol.
func (r *GormTradingAssetRepository) ListByUser(ctx context.Context, userID string) ([]model.TradingAsset, error) {
	var assets []model.TradingAsset
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset_symbol ASC").
		Find(&assets).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "trading_assets",
			"op":      "ListByUser",
			"user_id": userID,
		}).WithError(err).Error("failed to list trading assets")
		return nil, err
	}
	return assets, nil
}

// CreateMissing inserts the given rows and silently skips any (user_id, asset_symbol)
// pair that already exists. Existing rows are never modified.
func (r *GormTradingAssetRepository) CreateMissing(ctx context.Context, assets []model.TradingAsset) error {
	if len(assets) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_symbol"}},
			DoNothing: true,
		}).
		Create(&assets).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "trading_assets",
			"op":      "CreateMissing",
			"count":   len(assets),
			"user_id": assets[0].UserID,
		}).WithError(err).Error("failed to insert missing trading assets")
	}
	return err
}

// SetActive flips is_active for an asset the user owns. It returns
// gorm.ErrRecordNotFound when no row matches both id and owner.
func (r *GormTradingAssetRepository) SetActive(ctx context.Context, userID string, assetID uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.TradingAsset{}).
		Where("id = ? AND user_id = ?", assetID, userID).
		Update("is_active", active)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "trading_assets",
			"op":       "SetActive",
			"user_id":  userID,
			"asset_id": assetID,
		}).WithError(res.Error).Error("failed to update trading asset")
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
