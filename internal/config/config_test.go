package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "rewards_db", cfg.DB.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_CustomValues(t *testing.T) {
	// Use t.Setenv which auto-restores after test
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SHUTDOWN_TIMEOUT", "60")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "myuser")
	t.Setenv("DB_PASSWORD", "secret123")
	t.Setenv("DB_NAME", "mydb")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "db.example.com", cfg.DB.Host)
	assert.Equal(t, 5433, cfg.DB.Port)
	assert.Equal(t, "myuser", cfg.DB.User)
	assert.Equal(t, "secret123", cfg.DB.Password)
	assert.Equal(t, "mydb", cfg.DB.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, true, cfg.Log.Pretty)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "rewards",
		Password: "pw",
		Name:     "rewards_db",
		SSLMode:  "require",
		MaxConns: 10,
		MinConns: 2,
	}

	dsn := c.DSN()
	assert.Equal(t,
		"postgres://rewards:pw@db.internal:5432/rewards_db?sslmode=require&pool_max_conns=10&pool_min_conns=2",
		dsn)
}
