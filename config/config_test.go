package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToDemoWithoutMongo(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "9000")

	cfg, err := Load([]string{"--env-file", "does-not-exist.env"})
	require.NoError(t, err)

	assert.True(t, cfg.Demo)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, cfg.JWTSecret, cfg.QRSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
}

func TestLoadRequiresSecretWithMongo(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load([]string{"--env-file", "does-not-exist.env"})
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("QR_SECRET", "qr")
	t.Setenv("PORT", ":8080")
	t.Setenv("ADMIN_EMAILS", "Admin@Example.com, ops@example.com")

	cfg, err := Load([]string{"--env-file", "does-not-exist.env", "--addr", "127.0.0.1:7000", "--demo"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.True(t, cfg.Demo)
	assert.Equal(t, []byte("qr"), cfg.QRSecret)
	assert.True(t, cfg.IsAdminEmail("admin@example.com"))
	assert.False(t, cfg.IsAdminEmail("alice@example.com"))
}
