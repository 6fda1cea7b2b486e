package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Auth providers.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type Config struct {
	Port                    string   `env:"PORT" envDefault:"8080"`
	Env                     string   `env:"ENV" envDefault:"development"`
	StoreDriver             string   `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI                string   `env:"MONGO_URI"`
	MongoDatabase           string   `env:"MONGO_DATABASE" envDefault:"timeline"`
	PostgresConnStr         string   `env:"POSTGRES_CONN_STR"`
	AuthProvider            string   `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret               string   `env:"JWT_SECRET"`
	FirebaseCredentialsPath string   `env:"FIREBASE_CREDENTIALS_PATH"`
	CORSOrigins             []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	DefaultRadiusMeters     float64  `env:"DEFAULT_RADIUS_METERS" envDefault:"100000"`
	VoteMaxAttempts         int      `env:"VOTE_MAX_ATTEMPTS" envDefault:"50"`
	QueryMaxLimit           int64    `env:"QUERY_MAX_LIMIT" envDefault:"500"`
	OTelEndpoint            string   `env:"OTEL_EXPORTER_ENDPOINT"`
	LogLevel                string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
		if c.PostgresConnStr == "" {
			errs = append(errs, errors.New("POSTGRES_CONN_STR is required for the mongo store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required for jwt auth"))
		}
	case AuthFirebase:
		if c.FirebaseCredentialsPath == "" {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH is required for firebase auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider))
	}

	if c.DefaultRadiusMeters <= 0 {
		errs = append(errs, errors.New("DEFAULT_RADIUS_METERS must be positive"))
	}
	if c.VoteMaxAttempts <= 0 {
		errs = append(errs, errors.New("VOTE_MAX_ATTEMPTS must be positive"))
	}
	if c.QueryMaxLimit <= 0 {
		errs = append(errs, errors.New("QUERY_MAX_LIMIT must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
