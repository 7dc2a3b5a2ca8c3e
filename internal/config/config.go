package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	MediaLocal = "local"
	MediaS3    = "s3"
)

// Config is the process-wide, read-only configuration. It is loaded once at
// startup and passed to constructors.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	StoreDriver string
	MongoURI    string
	DBName      string

	TokenIssuer        string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	CookieSecure   bool
	CookieDomain   string
	CookieSameSite http.SameSite

	Media MediaConfig

	// DotEnvLoaded reports whether a .env file was found and applied.
	DotEnvLoaded bool
}

type MediaConfig struct {
	Driver       string
	MaxDimension int

	LocalRoot      string
	LocalURLPrefix string

	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	PublicBaseURL string
}

func Load() (Config, error) {
	loaded := godotenv.Load() == nil

	jwtSecret := getEnvOrDefault("JWT_SECRET", "")
	cfg := Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		AppEnv:   getEnvOrDefault("APP_ENV", "production"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		MongoURI:    getEnvOrDefault("MONGO_URI", ""),
		DBName:      getEnvOrDefault("DB_NAME", "accounts"),

		TokenIssuer:        getEnvOrDefault("TOKEN_ISSUER", "accounts"),
		AccessTokenSecret:  getEnvOrDefault("ACCESS_TOKEN_SECRET", jwtSecret),
		RefreshTokenSecret: getEnvOrDefault("REFRESH_TOKEN_SECRET", jwtSecret),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 15, time.Minute),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL", 10, 24*time.Hour),
		BcryptCost:         getIntEnv("BCRYPT_COST", bcrypt.DefaultCost),

		CookieSecure:   getBoolEnv("COOKIE_SECURE", true),
		CookieDomain:   getEnvOrDefault("COOKIE_DOMAIN", ""),
		CookieSameSite: parseSameSite(getEnvOrDefault("COOKIE_SAMESITE", "lax")),

		Media: MediaConfig{
			Driver:         strings.ToLower(getEnvOrDefault("MEDIA_DRIVER", MediaLocal)),
			MaxDimension:   getIntEnv("MEDIA_MAX_DIMENSION", 1024),
			LocalRoot:      getEnvOrDefault("MEDIA_LOCAL_ROOT", "./public"),
			LocalURLPrefix: getEnvOrDefault("MEDIA_LOCAL_URL_PREFIX", "/public"),
			S3Bucket:       getEnvOrDefault("MEDIA_S3_BUCKET", ""),
			S3Region:       getEnvOrDefault("MEDIA_S3_REGION", "us-east-1"),
			S3Endpoint:     getEnvOrDefault("MEDIA_S3_ENDPOINT", ""),
			S3AccessKey:    getEnvOrDefault("MEDIA_S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnvOrDefault("MEDIA_S3_SECRET_KEY", ""),
			PublicBaseURL:  getEnvOrDefault("MEDIA_PUBLIC_BASE_URL", ""),
		},

		DotEnvLoaded: loaded,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET (or JWT_SECRET) is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET (or JWT_SECRET) is required"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Media.Driver {
	case MediaLocal:
		if c.Media.LocalRoot == "" {
			errs = append(errs, errors.New("MEDIA_LOCAL_ROOT is required for the local media driver"))
		}
	case MediaS3:
		if c.Media.S3Bucket == "" || c.Media.S3AccessKey == "" || c.Media.S3SecretKey == "" || c.Media.PublicBaseURL == "" {
			errs = append(errs, errors.New("MEDIA_S3_BUCKET, MEDIA_S3_ACCESS_KEY, MEDIA_S3_SECRET_KEY and MEDIA_PUBLIC_BASE_URL are required for the s3 media driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_DRIVER %q", c.Media.Driver))
	}

	return errors.Join(errs...)
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
