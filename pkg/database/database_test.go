package database

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zheaoli/hexo-algoliasearch/pkg/models"
)

func TestConnect(t *testing.T) {
	t.Run("sqlite file is created and migrated", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "history.db")

		db, err := Connect(Config{DSN: dsn}, hclog.NewNullLogger())
		require.NoError(t, err)
		defer Close(db)

		assert.True(t, db.Migrator().HasTable(&models.SyncRun{}))
		assert.FileExists(t, dsn)
	})

	t.Run("nil logger is accepted", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
		require.NoError(t, err)
		defer Close(db)

		stats, err := db.DB()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Stats().MaxOpenConnections)
	})

	t.Run("empty dsn", func(t *testing.T) {
		_, err := Connect(Config{}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Connect(Config{Driver: "mysql", DSN: "x"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
	})
}
