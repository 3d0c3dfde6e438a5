package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Guest.SessionTTL)
	assert.Equal(t, 2*time.Hour, cfg.Guest.PartyTTL)
	assert.Equal(t, 15*time.Minute, cfg.Guest.BillRequestExpiry)
	assert.Equal(t, 10*time.Second, cfg.Guest.OrderCooldown)
	assert.Equal(t, 30*time.Second, cfg.Guest.WaiterCallCooldown)
	assert.Equal(t, 20, cfg.Guest.PinAttempts)
	assert.Equal(t, "table-events", cfg.Notify.KafkaTopic)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("GUEST_PARTY_TTL", "30m")
	t.Setenv("GUEST_ORDER_COOLDOWN", "5s")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("AUTH_MAINTENANCE_KEY", "sweep")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Guest.PartyTTL)
	assert.Equal(t, 5*time.Second, cfg.Guest.OrderCooldown)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "sweep", cfg.Auth.MaintenanceKey)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestInitDB(t *testing.T) {
	db, err := InitDB(DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	sqlDB.Close()

	_, err = InitDB(DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err)
}
