package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils/tests"
)

func buildSelect(t *testing.T, db *gorm.DB) string {
	var rows []map[string]interface{}
	result := LockForUpdate(db).Table("wallets").Where("user_id = ?", "u1").Find(&rows)
	require.NotNil(t, result.Statement)
	return result.Statement.SQL.String()
}

func TestLockForUpdateEmitsRowLock(t *testing.T) {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	sql := buildSelect(t, db)
	assert.Contains(t, sql, "FOR UPDATE")
}

func TestLockForUpdateSkipsSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DryRun: true,
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sql := buildSelect(t, db)
	assert.NotContains(t, sql, "FOR UPDATE")
}
