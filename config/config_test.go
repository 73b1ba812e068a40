package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, values map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoadDefaults(t *testing.T) {
	v := newViper(t, map[string]any{
		KeyJWTSecret: "secret",
		KeyMongoURI:  "mongodb://127.0.0.1:27017",
	})

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, "postql", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.DBTimeout)
	assert.Equal(t, defaultOrigins, cfg.CORSOrigins)
	assert.False(t, cfg.Release())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORE", "Badger")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("GIN_MODE", "release")

	cfg, err := Load(newViper(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, StoreBadger, cfg.Store)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.Release())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		errMsg string
	}{
		{
			name:   "missing secret",
			values: map[string]any{KeyStore: StoreBadger},
			errMsg: "JWT_SECRET must be set",
		},
		{
			name:   "mongo without uri",
			values: map[string]any{KeyJWTSecret: "s"},
			errMsg: "MONGODB_URI must be set",
		},
		{
			name:   "unknown store",
			values: map[string]any{KeyJWTSecret: "s", KeyStore: "redis"},
			errMsg: `unknown STORE "redis"`,
		},
		{
			name:   "non-positive ttl",
			values: map[string]any{KeyJWTSecret: "s", KeyStore: StoreBadger, KeyTokenTTL: "0s"},
			errMsg: "TOKEN_TTL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.values))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("values reach the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("POSTQL_DOTENV_PROBE=loaded\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("POSTQL_DOTENV_PROBE") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "loaded", os.Getenv("POSTQL_DOTENV_PROBE"))
	})
}
