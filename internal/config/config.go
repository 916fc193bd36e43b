package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Config is the process configuration, read from the environment and an
// optional .env file.
type Config struct {
	Port int    `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	DBString        string        `env:"DB_STRING"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBLogQueries    bool          `env:"DB_LOG_QUERIES"`
	ShutdownGrace   time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"5s"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	InvitationsBase string        `env:"INVITATION_BASE_URL"`

	Log     LogConfig     `envPrefix:"LOG_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	OAuth   OAuthConfig
	Storage StorageConfig

	FrontendURL string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type SessionConfig struct {
	Secret string `env:"SECRET"`
	Name   string `env:"NAME" envDefault:"taskflex-session"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GithubClientID     string `env:"GITHUB_CLIENT_ID"`
	GithubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackBase       string `env:"OAUTH_CALLBACK_BASE" envDefault:"http://localhost:8080"`
}

type StorageConfig struct {
	Bucket        string `env:"AWS_S3_BUCKET"`
	Region        string `env:"AWS_REGION" envDefault:"us-east-1"`
	EndpointURL   string `env:"AWS_ENDPOINT_URL"`
	EncryptionKey string `env:"DOCUMENT_ENCRYPTION_KEY"`
}

// Enabled reports whether attachment storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}
	if cfg.InvitationsBase == "" {
		cfg.InvitationsBase = cfg.FrontendURL
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if c.DBString == "" {
		errs = append(errs, errors.New("DB_STRING is required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Storage.Enabled() && c.Storage.EncryptionKey == "" {
		errs = append(errs, errors.New("DOCUMENT_ENCRYPTION_KEY is required when AWS_S3_BUCKET is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
