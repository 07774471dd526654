package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Engine.OpTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ENGINE_MAX_RETRIES", "7")
	t.Setenv("ENGINE_INITIAL_BACKOFF", "100ms")
	t.Setenv("ENGINE_OP_TIMEOUT", "2500")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 7, cfg.Engine.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.InitialBackoff)
	assert.Equal(t, 2500*time.Millisecond, cfg.Engine.OpTimeout)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "prestamos", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/prestamos?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
