package migrations

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultWalletSplitLevels = 4
	maxWalletSplitLevels     = 10
)

// backfillWalletSplitLevels repairs rows written before the 1..10 range was
// enforced. Values below the range fall back to the default, values above it
// are capped.
func backfillWalletSplitLevels(tx *gorm.DB) error {
	low := tx.Exec("UPDATE user_settings SET wallet_split_levels = ? WHERE wallet_split_levels < 1", defaultWalletSplitLevels)
	if low.Error != nil {
		return fmt.Errorf("reset low wallet_split_levels: %w", low.Error)
	}

	high := tx.Exec("UPDATE user_settings SET wallet_split_levels = ? WHERE wallet_split_levels > ?", maxWalletSplitLevels, maxWalletSplitLevels)
	if high.Error != nil {
		return fmt.Errorf("cap high wallet_split_levels: %w", high.Error)
	}

	logger.WithFields(map[string]interface{}{
		"migration": "backfill_wallet_split_levels",
		"reset":     low.RowsAffected,
		"capped":    high.RowsAffected,
	}).Info("wallet split levels backfilled")
	return nil
}

// backfillTradingAssetDecisions sets HOLD on assets whose decision was never written.
func backfillTradingAssetDecisions(tx *gorm.DB) error {
	res := tx.Exec("UPDATE trading_assets SET engine_decision = 'HOLD' WHERE engine_decision IS NULL OR engine_decision = ''")
	if res.Error != nil {
		return fmt.Errorf("backfill engine_decision: %w", res.Error)
	}

	logger.WithFields(map[string]interface{}{
		"migration": "backfill_trading_asset_decisions",
		"updated":   res.RowsAffected,
	}).Info("trading asset decisions backfilled")
	return nil
}
