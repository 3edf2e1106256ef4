package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	cfg := ConfigFromEnv()
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Contains(t, cfg.DSN, "postgres://")
	assert.Equal(t, 5, cfg.MaxConns)
}

func TestConfigFromEnvSQLite(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "20")
	cfg := ConfigFromEnv()
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Contains(t, cfg.DSN, "award.db")
	assert.Equal(t, 1, cfg.MaxConns)
}

func TestConnectMemoryDriver(t *testing.T) {
	_, err := Connect(Config{Driver: DriverMemory})
	assert.Error(t, err)
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}
