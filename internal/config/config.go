// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :9090). "off" disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. When empty outside production the server keeps accounts in memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production"). Production forces secure cookies.
	Env string `mapstructure:"APP_ENV"`

	// JWTIssuer is the iss claim set on and required from every token.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessSecret signs access tokens (HS256). Required by the API server.
	JWTAccessSecret string `mapstructure:"JWT_ACCESS_SECRET"`
	// JWTRefreshSecret signs refresh tokens (HS256). Required by the API server; must differ from JWTAccessSecret.
	JWTRefreshSecret string `mapstructure:"JWT_REFRESH_SECRET"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// PasswordResetSecret signs password-reset tokens. When empty outside production the server uses a random per-process secret.
	PasswordResetSecret string `mapstructure:"PASSWORD_RESET_SECRET"`
	// PasswordResetTTL is the reset token lifetime (e.g. "15m").
	PasswordResetTTL string `mapstructure:"PASSWORD_RESET_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// CookieSecure sets the Secure flag on session cookies. Always true when Env is production.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// CookieSameSite is one of lax, strict, none. none requires secure cookies.
	CookieSameSite string `mapstructure:"COOKIE_SAMESITE"`
	// CookieDomain is the optional Domain attribute for session cookies.
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CORSAllowedOrigin is the single browser origin allowed to call the API with credentials.
	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`
	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is the client address.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// RedisAddr enables the login rate limiter when set (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// LoginMaxAttempts is the number of failed logins allowed per email or IP inside LoginCooldown.
	LoginMaxAttempts int `mapstructure:"LOGIN_MAX_ATTEMPTS"`
	// LoginCooldown is the fixed window for failed-login counters (e.g. "15m").
	LoginCooldown string `mapstructure:"LOGIN_COOLDOWN"`

	// EventsKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables event publishing.
	EventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the Kafka topic for portal events (default portal-events).
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is where the events worker pushes log lines (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint. Empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("JWT_ISSUER", "placement-portal")
	v.SetDefault("JWT_ACCESS_SECRET", "")
	v.SetDefault("JWT_REFRESH_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("PASSWORD_RESET_SECRET", "")
	v.SetDefault("PASSWORD_RESET_TTL", "15m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_SAMESITE", "lax")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_COOLDOWN", "15m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "portal-events")
	v.SetDefault("KAFKA_GROUP_ID", "portal-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "placement-portal")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	cfg.CookieSameSite = strings.ToLower(strings.TrimSpace(cfg.CookieSameSite))
	switch cfg.CookieSameSite {
	case "", "lax", "strict", "none":
	default:
		return nil, errors.New("config: COOKIE_SAMESITE must be one of lax, strict, none")
	}
	if cfg.CookieSameSite == "none" && !cfg.SecureCookies() {
		return nil, errors.New("config: COOKIE_SAMESITE=none requires COOKIE_SECURE=true or APP_ENV=production")
	}

	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = 5
	}

	if cfg.IsProduction() && cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// ValidateSessionKeys checks the signing secrets needed to issue sessions. The API server calls it at
// startup and refuses to run on error; tools that never sign tokens (migrate, worker) skip it.
func (c *Config) ValidateSessionKeys() error {
	if c.JWTAccessSecret == "" {
		return errors.New("config: JWT_ACCESS_SECRET must be set")
	}
	if c.JWTRefreshSecret == "" {
		return errors.New("config: JWT_REFRESH_SECRET must be set")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.IsProduction() && c.PasswordResetSecret == "" {
		return errors.New("config: PASSWORD_RESET_SECRET must be set when APP_ENV=production")
	}
	if c.PasswordResetSecret != "" && (c.PasswordResetSecret == c.JWTAccessSecret || c.PasswordResetSecret == c.JWTRefreshSecret) {
		return errors.New("config: PASSWORD_RESET_SECRET must differ from the JWT secrets")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// SecureCookies reports whether session cookies carry the Secure flag. Production always does.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || c.IsProduction()
}

// SameSite maps CookieSameSite to the net/http constant. Defaults to Lax.
func (c *Config) SameSite() http.SameSite {
	switch c.CookieSameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 168*time.Hour)
}

// ResetTTL parses PasswordResetTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) ResetTTL() time.Duration {
	return parseDuration(c.PasswordResetTTL, 15*time.Minute)
}

// LoginCooldownDuration parses LoginCooldown. Returns 15m if unset or invalid.
func (c *Config) LoginCooldownDuration() time.Duration {
	return parseDuration(c.LoginCooldown, 15*time.Minute)
}

// EventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) EventsKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.EventsKafkaBrokers)
}

// GRPCEnabled reports whether the gRPC health endpoint should be served.
func (c *Config) GRPCEnabled() bool {
	addr := strings.TrimSpace(c.GRPCAddr)
	return addr != "" && !strings.EqualFold(addr, "off")
}

// TrustedProxiesList returns the TRUSTED_PROXIES entries.
func (c *Config) TrustedProxiesList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.TrustedProxies)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
