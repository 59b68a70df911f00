package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "root:root@tcp(localhost:3306)/taskhub")
	t.Setenv("JWT_SECRET", "secret")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, ":8080", c.Addr())
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, 5*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, 72*time.Hour, c.PasswordResetTimeout)
	assert.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	assert.False(t, c.ReverifyOnEmailChange)
	assert.True(t, c.IsDev())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "file:test.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "10m")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("REVERIFY_ON_EMAIL_CHANGE", "true")
	t.Setenv("ENV", "prod")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 10*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, "https://app.example.com", c.FrontendURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.CORSAllowedOrigins)
	assert.True(t, c.ReverifyOnEmailChange)
	assert.False(t, c.IsDev())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DSN", "x")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}
