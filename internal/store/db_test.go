package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/title-scrutiny/internal/config"
	"github.com/feral-file/title-scrutiny/internal/domain"
)

func TestOpenDB_SQLite(t *testing.T) {
	db, err := OpenDB(config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  "file:open-db-test?mode=memory&cache=shared",
		AutoMigrate: true,
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	s := NewPGStore(db)
	inserted, err := s.InsertDeed(context.Background(), domain.Deed{DeedType: "Sale"})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	_, err := OpenDB(config.DatabaseConfig{Driver: "mysql"}, false)
	assert.Error(t, err)
}

func TestNormalizeConnectionPoolSettings(t *testing.T) {
	tests := []struct {
		name                           string
		maxOpen, maxIdle               int
		lifetime, idleTime             time.Duration
		wantOpen, wantIdle             int
		wantLifetime, wantIdleDuration time.Duration
	}{
		{
			name:             "defaults",
			wantOpen:         20,
			wantIdle:         5,
			wantLifetime:     5 * time.Minute,
			wantIdleDuration: 10 * time.Minute,
		},
		{
			name:             "idle clamped to open",
			maxOpen:          2,
			maxIdle:          8,
			lifetime:         time.Hour,
			idleTime:         time.Minute,
			wantOpen:         2,
			wantIdle:         2,
			wantLifetime:     time.Hour,
			wantIdleDuration: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, idle, lifetime, idleTime := NormalizeConnectionPoolSettings(tt.maxOpen, tt.maxIdle, tt.lifetime, tt.idleTime)
			assert.Equal(t, tt.wantOpen, open)
			assert.Equal(t, tt.wantIdle, idle)
			assert.Equal(t, tt.wantLifetime, lifetime)
			assert.Equal(t, tt.wantIdleDuration, idleTime)
		})
	}
}
