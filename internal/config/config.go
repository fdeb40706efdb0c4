package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var (
	ErrUnknownDriver   = errors.New("DB_DRIVER must be postgres, sqlite or memory")
	ErrMissingSecret   = errors.New("JWT_SECRET is required when DASHBOARD_PASSPHRASE is set")
	ErrInvalidTimezone = errors.New("TIMEZONE is not a known IANA zone")
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"kanso.db"`

	// An empty RedisHost runs without redis.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	Passphrase string        `env:"DASHBOARD_PASSPHRASE"`
	JWTSecret  string        `env:"JWT_SECRET"`
	JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"kanso-habit-dashboard"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"72h"`

	Timezone        string `env:"TIMEZONE" envDefault:"UTC"`
	RefreshSchedule string `env:"STATS_REFRESH_CRON" envDefault:"5 0 * * *"`

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"100"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogConsole bool   `env:"LOG_CONSOLE" envDefault:"false"`
}

// Load reads the given dotenv files, when present, then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return ErrUnknownDriver
	}

	if c.Passphrase != "" && c.JWTSecret == "" {
		return ErrMissingSecret
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. The dashboard's notion of "today" follows it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}

func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) AuthEnabled() bool {
	return c.Passphrase != ""
}
