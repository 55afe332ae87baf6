package repository

import (
	"context"

	"tradecontrol/src/database"
	"tradecontrol/src/model"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRecentOrders = 20

type GormManualOrderRepository struct {
	db *gorm.DB
}

func NewManualOrderRepository() *GormManualOrderRepository {
	logger.WithField("component", "GormManualOrderRepository").
		Info("Creating new ManualOrderRepository with MainDB")

	return &GormManualOrderRepository{db: database.MainDB}
}

func (r *GormManualOrderRepository) WithDB(db *gorm.DB) *GormManualOrderRepository {
	return &GormManualOrderRepository{db: db}
}

// Create appends one order row.
func (r *GormManualOrderRepository) Create(ctx context.Context, order *model.ManualOrder) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "manual_orders",
			"op":      "Create",
			"user_id": order.UserID,
			"symbol":  order.AssetSymbol,
		}).WithError(err).Error("failed to insert manual order")
	}
	return err
}

// ListRecentByUser returns the newest orders first. A non-positive limit
// falls back to 20.
func (r *GormManualOrderRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ManualOrder, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}

	var orders []model.ManualOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "manual_orders",
			"op":      "ListRecentByUser",
			"user_id": userID,
		}).WithError(err).Error("failed to list manual orders")
		return nil, err
	}
	return orders, nil
}
