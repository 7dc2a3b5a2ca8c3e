package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MEDIA_DRIVER", "local")
	t.Setenv("JWT_SECRET", "shared-secret")
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("COOKIE_SAMESITE", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("DB_NAME", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "shared-secret", cfg.AccessTokenSecret)
	assert.Equal(t, "shared-secret", cfg.RefreshTokenSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "accounts", cfg.DBName)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	assert.Equal(t, 1024, cfg.Media.MaxDimension)
}

func TestLoad_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "access")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh")
	t.Setenv("ACCESS_TOKEN_TTL", "5")
	t.Setenv("REFRESH_TOKEN_TTL", "2")
	t.Setenv("COOKIE_SAMESITE", "Strict")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "access", cfg.AccessTokenSecret)
	assert.Equal(t, "refresh", cfg.RefreshTokenSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, http.SameSiteStrictMode, cfg.CookieSameSite)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoad_InvalidTTLFallsBackToDefault(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoad_MissingSecrets(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")
}

func TestValidate_DriverRequirements(t *testing.T) {
	base := Config{
		AccessTokenSecret:  "a",
		RefreshTokenSecret: "r",
		BcryptCost:         10,
		StoreDriver:        StoreMongo,
		Media:              MediaConfig{Driver: MediaS3},
	}

	err := base.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
	assert.Contains(t, err.Error(), "MEDIA_S3_BUCKET")

	base.MongoURI = "mongodb://localhost:27017"
	base.Media = MediaConfig{
		Driver:        MediaS3,
		S3Bucket:      "avatars",
		S3AccessKey:   "key",
		S3SecretKey:   "secret",
		PublicBaseURL: "https://cdn.example.com",
	}
	assert.NoError(t, base.Validate())

	base.StoreDriver = "postgres"
	assert.ErrorContains(t, base.Validate(), "unknown STORE_DRIVER")
}
