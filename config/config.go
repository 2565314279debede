package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP struct {
		Addr        string   `env:"HTTP_ADDR" envDefault:":9000"`
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	// Nonces and revoked sessions live in process memory when empty
	RedisURL string `env:"REDIS_URL"`

	Database struct {
		Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
		URL    string `env:"DATABASE_URL" envDefault:"file:remitwise.db?_foreign_keys=on"`
	}

	Session struct {
		NonceTTL   time.Duration `env:"NONCE_TTL" envDefault:"5m"`
		TTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
		SigningKey string        `env:"SESSION_SIGNING_KEY"` // PEM encoded EC P-256 private key
		Issuer     string        `env:"SESSION_ISSUER" envDefault:"remitwise"`

		CookieName     string `env:"SESSION_COOKIE_NAME" envDefault:"session"`
		CookiePath     string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
		CookieDomain   string `env:"SESSION_COOKIE_DOMAIN"`
		CookieSecure   bool   `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
		CookieSameSite string `env:"SESSION_COOKIE_SAMESITE" envDefault:"lax"`
	}

	AdminSecret string `env:"ADMIN_SECRET"`

	Retention struct {
		Days     int    `env:"RETENTION_DAYS" envDefault:"90"`
		Schedule string `env:"PURGE_SCHEDULE" envDefault:"0 3 * * *"`
	}

	Stellar struct {
		HorizonURL          string `env:"STELLAR_HORIZON_URL" envDefault:"https://horizon-testnet.stellar.org"`
		NetworkPassphrase   string `env:"STELLAR_NETWORK_PASSPHRASE" envDefault:"Test SDF Network ; September 2015"`
		BillsContractID     string `env:"STELLAR_BILLS_CONTRACT_ID"`
		InsuranceContractID string `env:"STELLAR_INSURANCE_CONTRACT_ID"`
		SplitContractID     string `env:"STELLAR_SPLIT_CONTRACT_ID"`
		CustodialMode       bool   `env:"STELLAR_CUSTODIAL_MODE" envDefault:"false"`
		ServerSecret        string `env:"STELLAR_SERVER_SECRET"`
	}

	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"false"`
}

// Load reads the configuration from the environment, after loading a .env
// file if one is present.
func Load() (*Config, error) {
	// A missing .env is normal outside of local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that cannot be expressed as struct tags
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if _, err := parseSameSite(c.Session.CookieSameSite); err != nil {
		return err
	}

	if c.Session.NonceTTL <= 0 || c.Session.TTL <= 0 {
		return fmt.Errorf("NONCE_TTL and SESSION_TTL must be positive")
	}

	if c.Retention.Days < 1 {
		return fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.Retention.Days)
	}

	if c.IsProduction() && c.Session.SigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required in production")
	}

	if c.Stellar.CustodialMode && c.Stellar.ServerSecret == "" {
		return fmt.Errorf("STELLAR_SERVER_SECRET is required in custodial mode")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SameSite returns the SameSite mode of the session cookie
func (c *Config) SameSite() http.SameSite {
	mode, _ := parseSameSite(c.Session.CookieSameSite)
	return mode
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.ToLower(value) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unsupported SESSION_COOKIE_SAMESITE %q", value)
	}
}
