// Package config loads the server settings from the environment, an optional
// .env file and command line flags.
package config

import (
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreBadger = "badger"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyPort          = "port"
	KeyGinMode       = "gin_mode"
	KeyJWTSecret     = "jwt_secret"
	KeyTokenTTL      = "token_ttl"
	KeyMongoURI      = "mongodb_uri"
	KeyMongoDatabase = "mongodb_database"
	KeyStore         = "store"
	KeyBadgerDir     = "badger_dir"
	KeyDBTimeout     = "db_timeout"
	KeyLogLevel      = "log_level"
	KeyCORSOrigins   = "cors_origins"
)

var defaultOrigins = []string{
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"http://localhost:5500",
	"http://127.0.0.1:5500",
	"http://localhost:3000",
}

type Config struct {
	Port          string
	GinMode       string
	JWTSecret     string
	TokenTTL      time.Duration
	MongoURI      string
	MongoDatabase string
	Store         string
	BadgerDir     string
	DBTimeout     time.Duration
	LogLevel      string
	CORSOrigins   []string
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyGinMode, "debug")
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyMongoDatabase, "postql")
	v.SetDefault(KeyStore, StoreMongo)
	v.SetDefault(KeyBadgerDir, "")
	v.SetDefault(KeyDBTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCORSOrigins, strings.Join(defaultOrigins, ","))
	v.AutomaticEnv()
}

// LoadDotEnv reads .env style files into the process environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "loading .env")
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:          v.GetString(KeyPort),
		GinMode:       v.GetString(KeyGinMode),
		JWTSecret:     v.GetString(KeyJWTSecret),
		TokenTTL:      v.GetDuration(KeyTokenTTL),
		MongoURI:      v.GetString(KeyMongoURI),
		MongoDatabase: v.GetString(KeyMongoDatabase),
		Store:         strings.ToLower(v.GetString(KeyStore)),
		BadgerDir:     v.GetString(KeyBadgerDir),
		DBTimeout:     v.GetDuration(KeyDBTimeout),
		LogLevel:      v.GetString(KeyLogLevel),
		CORSOrigins:   splitList(v.GetString(KeyCORSOrigins)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return errors.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.DBTimeout <= 0 {
		return errors.Errorf("DB_TIMEOUT must be positive, got %s", c.DBTimeout)
	}
	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI must be set when STORE=mongo")
		}
	case StoreBadger:
	default:
		return errors.Errorf("unknown STORE %q (want %s or %s)", c.Store, StoreMongo, StoreBadger)
	}
	return nil
}

// Release reports whether gin should run in release mode.
func (c *Config) Release() bool {
	return c.GinMode == "release"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
