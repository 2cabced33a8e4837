package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir  string        `mapstructure:"MIGRATIONS_DIR"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// Calendar
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleSecretName      string `mapstructure:"GOOGLE_SECRET_NAME"`
	GoogleSecretSource    string `mapstructure:"GOOGLE_SECRET_SOURCE"`
	GoogleImpersonateUser string `mapstructure:"GOOGLE_IMPERSONATE_USER"`
	AWSRegion             string `mapstructure:"AWS_REGION"`

	// Messaging
	WhatsAppAccessToken   string `mapstructure:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppAPIVersion    string `mapstructure:"WHATSAPP_API_VERSION"`
	WhatsAppBaseURL       string `mapstructure:"WHATSAPP_BASE_URL"`
	WhatsAppVerifyToken   string `mapstructure:"WHATSAPP_VERIFY_TOKEN"`
	WhatsAppTemplateName  string `mapstructure:"WHATSAPP_TEMPLATE_NAME"`
	WhatsAppTemplateLang  string `mapstructure:"WHATSAPP_TEMPLATE_LANG"`

	// Background jobs
	ReminderEnabled  bool          `mapstructure:"REMINDER_ENABLED"`
	ReminderInterval time.Duration `mapstructure:"REMINDER_INTERVAL"`
	SweepInterval    time.Duration `mapstructure:"SWEEP_INTERVAL"`

	// Staff authentication; empty secret leaves the API open
	AuthJWTSecret string        `mapstructure:"AUTH_JWT_SECRET"`
	AuthIssuer    string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL  time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"GOOGLE_CALENDAR_ID", "GOOGLE_SECRET_NAME", "GOOGLE_SECRET_SOURCE",
	"GOOGLE_IMPERSONATE_USER", "AWS_REGION",
	"WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_API_VERSION",
	"WHATSAPP_BASE_URL", "WHATSAPP_VERIFY_TOKEN", "WHATSAPP_TEMPLATE_NAME",
	"WHATSAPP_TEMPLATE_LANG",
	"REMINDER_ENABLED", "REMINDER_INTERVAL", "SWEEP_INTERVAL",
	"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_TOKEN_TTL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("GOOGLE_SECRET_SOURCE", "aws")
	v.SetDefault("WHATSAPP_API_VERSION", "v21.0")
	v.SetDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com")
	v.SetDefault("WHATSAPP_VERIFY_TOKEN", "turnos-mvp-verify")
	v.SetDefault("WHATSAPP_TEMPLATE_NAME", "appointment_reminder")
	v.SetDefault("WHATSAPP_TEMPLATE_LANG", "es_AR")
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_INTERVAL", "30m")
	v.SetDefault("SWEEP_INTERVAL", "1h")
	v.SetDefault("AUTH_ISSUER", "turnos")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	origins := v.GetString("CORS_ORIGINS")
	if origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CalendarEnabled reports whether enough settings are present to reach the
// calendar provider.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleCalendarID != "" && c.GoogleSecretName != ""
}

// Validate checks that the configuration is safe to run. In production the
// calendar and messaging credentials must be present.
func (c *Config) Validate() error {
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.AuthJWTSecret != "" && len(c.AuthJWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes")
	}
	switch c.GoogleSecretSource {
	case "aws", "file":
	default:
		return fmt.Errorf("GOOGLE_SECRET_SOURCE must be \"aws\" or \"file\", got %q", c.GoogleSecretSource)
	}

	if c.IsProduction() {
		if !c.CalendarEnabled() {
			return fmt.Errorf("GOOGLE_CALENDAR_ID and GOOGLE_SECRET_NAME are required in production")
		}
		if c.WhatsAppAccessToken == "" || c.WhatsAppPhoneNumberID == "" {
			return fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID are required in production")
		}
	}
	return nil
}
