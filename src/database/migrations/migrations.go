package migrations

import (
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DataMigration is one row of the data_migrations ledger.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

type dataMigration struct {
	id string
	fn func(*gorm.DB) error
}

// registry is applied in order. Ids are permanent; append only.
var registry = []dataMigration{
	{id: "00001_backfill_wallet_split_levels", fn: backfillWalletSplitLevels},
	{id: "00002_backfill_trading_asset_decisions", fn: backfillTradingAssetDecisions},
}

// RunOnce applies fn inside a transaction unless migrationID is already in the
// ledger. The ledger row is written in the same transaction.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	switch {
	case migrationID == "":
		return fmt.Errorf("migration id is empty")
	case fn == nil:
		return fmt.Errorf("migration %q has nil fn", migrationID)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("ensure data migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing DataMigration
		err := tx.Where("id = ?", migrationID).Take(&existing).Error
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("check migration %q: %w", migrationID, err)
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("run migration %q: %w", migrationID, err)
		}
		if err := tx.Create(&DataMigration{ID: migrationID, AppliedAt: time.Now().UTC()}).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}

		logger.WithField("migration", migrationID).Info("[migrations] applied")
		return nil
	})
}

// Run applies every registered data migration that is not yet in the ledger.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	for _, m := range registry {
		if err := RunOnce(db, m.id, m.fn); err != nil {
			return err
		}
	}
	return nil
}
