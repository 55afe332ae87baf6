package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradingAsset is a user's activation row for one symbol of the universe.
// Profit and decision are written by the engine, never by the control plane.
type TradingAsset struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               string          `gorm:"size:64;not null;uniqueIndex:idx_trading_asset_user_symbol" json:"user_id"`
	Symbol               string          `gorm:"column:asset_symbol;size:16;not null;uniqueIndex:idx_trading_asset_user_symbol" json:"asset_symbol"`
	IsActive             bool            `gorm:"column:is_active;not null" json:"is_active"`
	CurrentProfitPercent decimal.Decimal `gorm:"column:current_profit_percent;type:numeric(10,4);not null" json:"current_profit_percent"`
	EngineDecision       string          `gorm:"column:engine_decision;size:8;not null" json:"engine_decision"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (TradingAsset) TableName() string {
	return "trading_assets"
}

// NewDefaultTradingAsset builds the row lazily created for a missing symbol.
func NewDefaultTradingAsset(userID, symbol string) TradingAsset {
	return TradingAsset{
		ID:                   uuid.New(),
		UserID:               userID,
		Symbol:               symbol,
		IsActive:             true,
		CurrentProfitPercent: decimal.Zero,
		EngineDecision:       DecisionHold,
	}
}
