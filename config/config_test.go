package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, 500, cfg.ProvisionBatchSize)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "/tmp/x.db", cfg.DSN())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		_, err := Parse()
		assert.ErrorContains(t, err, "unsupported DB_DRIVER")
	})

	t.Run("batch size", func(t *testing.T) {
		t.Setenv("FRIENDS_PROVISION_BATCH_SIZE", "0")
		_, err := Parse()
		assert.ErrorContains(t, err, "must be > 0")
	})
}
