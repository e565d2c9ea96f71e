package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yakgung/drugfood-guard/backend/internal/database"
	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

func TestRunMigrationsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(db, "unused"))

	for _, model := range []interface{}{
		&models.User{}, &models.UserDrug{}, &models.Drug{},
		&models.Food{}, &models.Interaction{}, &models.QueryHistory{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}

	// running again is a no-op
	require.NoError(t, database.RunMigrations(db, "unused"))
}
