package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"clinic-reservation-backend/config"
	"clinic-reservation-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	applyConstraints := true
	cfg := &config.DatabaseConfig{
		Driver:           "sqlite",
		DSN:              "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns:     1,
		ApplyConstraints: &applyConstraints,
		LogLevel:         "silent",
	}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m), "%T should be migrated", m)
	}
	assert.True(t, gormDB.Migrator().HasIndex(&model.Clinic{}, "idx_clinic_slot"))
	assert.True(t, gormDB.Migrator().HasIndex(&model.Reservation{}, "idx_reservation_once"))
}

func TestInit_BadConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{"empty dsn", config.DatabaseConfig{Driver: "postgres"}, "dsn is empty"},
		{"unknown driver", config.DatabaseConfig{Driver: "mysql", DSN: "x"}, "unsupported database driver"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Init(&tc.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Error, logLevel("ERROR"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel(""))
	assert.Equal(t, logger.Warn, logLevel("verbose"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
