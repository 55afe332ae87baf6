package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tradecontrol/src/database/migrations"
	"tradecontrol/src/model"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Config{
		Driver:       DriverSQLite,
		SQLitePath:   "file:" + t.Name() + "?mode=memory&cache=shared",
		GormLogLevel: 1,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestMigrate_BackfillsAndRecords(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.AutoMigrate(&model.UserSettings{}, &model.TradingAsset{}))

	low := model.DefaultUserSettings("low")
	low.WalletSplitLevels = 0
	high := model.DefaultUserSettings("high")
	high.WalletSplitLevels = 15
	ok := model.DefaultUserSettings("ok")
	ok.WalletSplitLevels = 7
	require.NoError(t, db.Create(&[]model.UserSettings{low, high, ok}).Error)

	asset := model.NewDefaultTradingAsset("low", "BTC")
	asset.EngineDecision = ""
	require.NoError(t, db.Create(&asset).Error)

	require.NoError(t, Migrate(db))

	levels := map[string]int{}
	var rows []model.UserSettings
	require.NoError(t, db.Find(&rows).Error)
	for _, r := range rows {
		levels[r.UserID] = r.WalletSplitLevels
	}
	assert.Equal(t, map[string]int{"low": 4, "high": 10, "ok": 7}, levels)

	var stored model.TradingAsset
	require.NoError(t, db.First(&stored, "id = ?", asset.ID).Error)
	assert.Equal(t, model.DecisionHold, stored.EngineDecision)

	var applied int64
	require.NoError(t, db.Model(&migrations.DataMigration{}).Count(&applied).Error)
	assert.Equal(t, int64(2), applied)

	// rows written after the migration ran are left alone on the next start
	require.NoError(t, db.Model(&model.UserSettings{}).Where("user_id = ?", "ok").Update("wallet_split_levels", 0).Error)
	require.NoError(t, Migrate(db))
	var again model.UserSettings
	require.NoError(t, db.First(&again, "user_id = ?", "ok").Error)
	assert.Equal(t, 0, again.WalletSplitLevels)
}

func TestRunOnce_Validation(t *testing.T) {
	db := openSQLite(t)

	assert.Error(t, migrations.RunOnce(db, "", func(*gorm.DB) error { return nil }))
	assert.Error(t, migrations.RunOnce(db, "x", nil))
	assert.NoError(t, migrations.RunOnce(nil, "x", nil))
}
