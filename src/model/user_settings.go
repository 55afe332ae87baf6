package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserSettings holds one user's account activation flag and risk parameters.
// Credentials are only ever stored sealed.
type UserSettings struct {
	UserID              string          `gorm:"primaryKey;size:64;column:user_id" json:"user_id"`
	APIKeyCiphertext    string          `gorm:"column:api_key_encrypted;type:text" json:"-"`
	APISecretCiphertext string          `gorm:"column:api_secret_encrypted;type:text" json:"-"`
	MinProfitPercent    decimal.Decimal `gorm:"column:min_profit_percent;type:numeric(10,4);not null" json:"min_profit_percent"`
	MaxProfitPercent    decimal.Decimal `gorm:"column:max_profit_percent;type:numeric(10,4);not null" json:"max_profit_percent"`
	MinOrderAmount      decimal.Decimal `gorm:"column:min_order_amount;type:numeric(20,8);not null" json:"min_order_amount"`
	MaxOrderAmount      decimal.Decimal `gorm:"column:max_order_amount;type:numeric(20,8);not null" json:"max_order_amount"`
	WalletSplitLevels   int             `gorm:"column:wallet_split_levels;not null" json:"wallet_split_levels"`
	AccountActive       bool            `gorm:"column:account_active;not null" json:"account_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// DefaultUserSettings returns the settings a user has before saving anything.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:            userID,
		MinProfitPercent:  decimal.RequireFromString("0.5"),
		MaxProfitPercent:  decimal.RequireFromString("2.5"),
		MinOrderAmount:    decimal.NewFromInt(10),
		MaxOrderAmount:    decimal.NewFromInt(500),
		WalletSplitLevels: 4,
		AccountActive:     true,
	}
}
