package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualOrder is a user submitted order waiting for the execution engine.
// Rows are append-only from the control plane's side.
type ManualOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string          `gorm:"size:64;not null;index" json:"user_id"`
	AssetSymbol string          `gorm:"column:asset_symbol;size:16;not null" json:"asset_symbol"`
	OrderType   string          `gorm:"column:order_type;size:10;not null" json:"order_type"`
	OrderSide   string          `gorm:"column:order_side;size:4;not null" json:"order_side"`
	AmountQuote decimal.Decimal `gorm:"column:amount_quote;type:numeric(20,8);not null" json:"amount_quote"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (ManualOrder) TableName() string {
	return "manual_orders"
}
