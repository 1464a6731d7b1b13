package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vntrieu/mafia/internal/database"
	"github.com/vntrieu/mafia/internal/games"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the server configuration, read from the environment (and a .env file when present).
type Config struct {
	HTTPAddr           string `env:"MAFIA_HTTP_ADDR"        envDefault:":8080"`
	DatabaseURL        string `env:"DATABASE_URL"`
	StoreDriver        string `env:"STORE_DRIVER"           envDefault:"postgres"`
	SQLitePath         string `env:"SQLITE_PATH"            envDefault:"mafia.db"`
	MigrationsDir      string `env:"MIGRATIONS_DIR"`
	TokenSecret        string `env:"WEBSOCKET_TOKEN_SECRET"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE"  envDefault:"20"`
	NotifyWebhookURL   string `env:"NOTIFY_WEBHOOK_URL"`
	// CORSAllowedOrigins is a comma separated list; empty allows any origin.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	DBMaxConns        int32         `env:"DB_MAX_CONNS"          envDefault:"25"`
	DBMinConns        int32         `env:"DB_MIN_CONNS"          envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME"  envDefault:"30m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`

	MinPlayers      int           `env:"MIN_PLAYERS"      envDefault:"4"`
	SignUpLength    time.Duration `env:"SIGNUP_LENGTH"    envDefault:"15m"`
	FirstDayLength  time.Duration `env:"FIRST_DAY_LENGTH" envDefault:"2m"`
	NightLength     time.Duration `env:"NIGHT_LENGTH"     envDefault:"5m"`
	VotingLength    time.Duration `env:"VOTING_LENGTH"    envDefault:"7m"`
	TrialLength     time.Duration `env:"TRIAL_LENGTH"     envDefault:"5m"`
	TrackInactivity bool          `env:"TRACK_INACTIVITY" envDefault:"true"`
	RNGSeed         int64         `env:"RNG_SEED"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads .env (if any) and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combinations env tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// Rules converts the rules overrides to the engine's defaults for new games.
func (c Config) Rules() games.RulesConfig {
	r := games.DefaultRulesConfig()
	if c.MinPlayers > 0 {
		r.MinPlayers = c.MinPlayers
	}
	if c.SignUpLength > 0 {
		r.SignUpLength = c.SignUpLength
	}
	if c.FirstDayLength > 0 {
		r.FirstDayLength = c.FirstDayLength
	}
	if c.NightLength > 0 {
		r.NightLength = c.NightLength
	}
	if c.VotingLength > 0 {
		r.VotingLength = c.VotingLength
	}
	if c.TrialLength > 0 {
		r.TrialLength = c.TrialLength
	}
	r.TrackInactivity = c.TrackInactivity
	return r
}

// Pool returns the PostgreSQL pool sizing.
func (c Config) Pool() database.PoolConfig {
	return database.PoolConfig{
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// Secret returns the token signing secret, with a development fallback.
func (c Config) Secret() []byte {
	if c.TokenSecret == "" {
		return []byte("dev-secret-change-in-production")
	}
	return []byte(c.TokenSecret)
}
