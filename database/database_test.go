package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/checkout-crawler/logger"
	"github.com/hairizuanbinnoorazman/checkout-crawler/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{
			name: "sqlite",
			cfg:  Config{Driver: "sqlite", Path: "data/history.db"},
			want: "data/history.db?_foreign_keys=on&_busy_timeout=5000",
		},
		{
			name: "default driver is sqlite",
			cfg:  Config{Path: "history.db"},
			want: "history.db?_foreign_keys=on&_busy_timeout=5000",
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Driver: "sqlite"},
			wantErr: true,
		},
		{
			name: "mysql",
			cfg:  Config{Driver: "mysql", Host: "db", Port: 3306, User: "crawler", Password: "secret", Database: "shopcrawl"},
			want: "crawler:secret@tcp(db:3306)/shopcrawl?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:    "unknown driver",
			cfg:     Config{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DSN()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "nested", "history.db")}

	db, err := Connect(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	v, dirty, err := Version(sqlDB, cfg.Driver)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(sqlDB, cfg.Driver))
	require.NoError(t, RunMigrations(sqlDB, cfg.Driver), "re-running is a no-op")

	v, _, err = Version(sqlDB, cfg.Driver)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	store := run.NewSQLStore(db, logger.NewTestLogger())
	r := &run.Run{BatchID: uuid.New(), Website: "tienda.example", Language: "spanish"}
	require.NoError(t, store.Create(ctx, r))
	require.NoError(t, store.Complete(ctx, r.ID, run.Result{
		Status:         run.StatusAborted,
		CompletedRoles: []string{"entry", "selection"},
		FailedRole:     "checkout",
	}))

	got, err := store.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusAborted, got.Status)
	assert.Equal(t, run.StringList{"entry", "selection"}, got.CompletedRoles)

	require.NoError(t, RollbackMigration(sqlDB, cfg.Driver))
	v, _, err = Version(sqlDB, cfg.Driver)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	_, err = store.GetByID(ctx, r.ID)
	assert.Error(t, err, "table is gone after rollback")
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
