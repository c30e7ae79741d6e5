package database_test

import (
	"testing"

	"ridesharing/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql"} {
		d, err := database.Dialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := database.Dialector("oracle", "dsn")
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := database.Open("sqlite", "file:database_test?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"member", "profile", "ride", "ride_request", "notification", "message", "rating"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
