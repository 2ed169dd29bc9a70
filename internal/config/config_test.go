package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setSQLiteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", filepath.Join(t.TempDir(), "quiz.db"))
}

func TestLoad_DefaultsFromEnv(t *testing.T) {
	setSQLiteEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL())
	assert.Equal(t, "memory", cfg.RateLimit.Store)
	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.False(t, cfg.Admin.BootstrapEnabled(), "без ADMIN_* bootstrap должен быть выключен")
	assert.Empty(t, cfg.Admin.Password, "пароля администратора по умолчанию быть не должно")
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	setSQLiteEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9090\"\njwt:\n  access_ttl_minutes: 5\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL())
}

func TestLoad_EnvOverridesList(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"postgres without host", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "oracle"}},
		{"redis store without redis", map[string]string{"RATE_LIMIT_STORE": "redis"}},
		{"admin email without password", map[string]string{"ADMIN_EMAIL": "admin@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSQLiteEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadEnvFiles_MissingFileIsIgnored(t *testing.T) {
	assert.NotPanics(t, func() {
		LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env"))
	})
}

func TestLoadEnvFiles_DoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUIZ_TEST_A=from_file\nQUIZ_TEST_B=from_file\n"), 0o600))
	t.Setenv("QUIZ_TEST_A", "from_env")
	t.Setenv("QUIZ_TEST_B", "")
	os.Unsetenv("QUIZ_TEST_B")

	LoadEnvFiles(path)
	t.Cleanup(func() { os.Unsetenv("QUIZ_TEST_B") })

	assert.Equal(t, "from_env", os.Getenv("QUIZ_TEST_A"))
	assert.Equal(t, "from_file", os.Getenv("QUIZ_TEST_B"))
}
