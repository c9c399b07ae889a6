package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	Store                 string        `mapstructure:"STORE"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL              string        `mapstructure:"REDIS_URL"`
	AuthSigningKey        string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer            string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience          string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS          float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int           `mapstructure:"RATE_LIMIT_BURST"`
	Timezone              string        `mapstructure:"TIMEZONE"`
	SlotTemplate          []string      `mapstructure:"SLOT_TEMPLATE"`
	NonWorkingDays        []string      `mapstructure:"NON_WORKING_DAYS"`
	ReleaseSlotOnCancel   bool          `mapstructure:"RELEASE_SLOT_ON_CANCEL"`
	PromoCodes            string        `mapstructure:"PROMO_CODES"`
	GenerationEnabled     bool          `mapstructure:"GENERATION_ENABLED"`
	GenerationInterval    time.Duration `mapstructure:"GENERATION_INTERVAL"`
	GenerationConcurrency int           `mapstructure:"GENERATION_CONCURRENCY"`
}

// DefaultSlotTemplate is a half-hourly clinic day from 09:00 to 16:30.
var DefaultSlotTemplate = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

var envKeys = []string{
	"PORT", "ENV", "STORE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TIMEZONE", "SLOT_TEMPLATE", "NON_WORKING_DAYS",
	"RELEASE_SLOT_ON_CANCEL", "PROMO_CODES", "GENERATION_ENABLED", "GENERATION_INTERVAL",
	"GENERATION_CONCURRENCY",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("SLOT_TEMPLATE", strings.Join(DefaultSlotTemplate, ","))
	v.SetDefault("NON_WORKING_DAYS", "saturday,sunday")
	v.SetDefault("RELEASE_SLOT_ON_CANCEL", true)
	v.SetDefault("GENERATION_ENABLED", true)
	v.SetDefault("GENERATION_INTERVAL", "24h")
	v.SetDefault("GENERATION_CONCURRENCY", 4)

	for _, k := range envKeys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma separated env values arrive as a single element.
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.SlotTemplate = splitList(v.GetString("SLOT_TEMPLATE"))
	cfg.NonWorkingDays = splitList(v.GetString("NON_WORKING_DAYS"))

	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
	}

	if cfg.IsDev() {
		log.Println("WARNING: development mode, requests without a token run as admin")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves the clinic time zone used for calendar-day comparisons.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PromoSeeds parses PROMO_CODES ("FREE100=100,HALF=50") into code -> percentage.
func (c *Config) PromoSeeds() (map[string]int, error) {
	seeds := make(map[string]int)
	for _, entry := range splitList(c.PromoCodes) {
		code, pct, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("PROMO_CODES entry %q must be CODE=PERCENT", entry)
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(pct), "%d", &n); err != nil {
			return nil, fmt.Errorf("PROMO_CODES entry %q: %w", entry, err)
		}
		if n < 0 || n > 100 {
			return nil, fmt.Errorf("PROMO_CODES entry %q: percentage must be within 0..100", entry)
		}
		seeds[strings.ToUpper(strings.TrimSpace(code))] = n
	}
	return seeds, nil
}

// Validate checks that the configuration is safe to run. Outside development a
// signing key is required so that bearer tokens are actually verified.
func (c *Config) Validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.Store == StoreMemory {
		return fmt.Errorf("STORE=%s is not allowed in production", StoreMemory)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.SlotTemplate) == 0 {
		return fmt.Errorf("SLOT_TEMPLATE must list at least one time of day")
	}
	if c.GenerationEnabled && c.GenerationInterval <= 0 {
		return fmt.Errorf("GENERATION_INTERVAL must be positive")
	}
	if _, err := c.PromoSeeds(); err != nil {
		return err
	}
	return nil
}
