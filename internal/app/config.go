package app

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Override store backends.
const (
	OverrideStorePostgres = "postgres"
	OverrideStoreMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDERDESK_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDERDESK_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	FrontendURL string `default:"http://localhost:5173" usage:"Frontend base URL for payment redirects" flag:"frontend-url"`
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
	Shop        ShopConfig
	Orders      OrdersConfig
	Stripe      StripeConfig
	Admin       AdminConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// ShopConfig controls opening hours evaluation.
type ShopConfig struct {
	Timezone      string `default:"Europe/Berlin" usage:"IANA time zone of the opening hours"`
	EnforceHours  bool   `default:"true" usage:"Reject orders outside opening hours" flag:"enforce-hours"`
	OverrideStore string `default:"postgres" usage:"Where the open/closed override lives: postgres or memory" flag:"override-store"`
}

// OrdersConfig toggles optional order intake rules.
type OrdersConfig struct {
	RequirePostalAddress bool `default:"false" usage:"Require postal code and city" flag:"require-postal-address"`
	CatalogPricing       bool `default:"false" usage:"Price items from the catalog instead of the request" flag:"catalog-pricing"`
}

// StripeConfig configures the hosted checkout. An empty key disables it.
type StripeConfig struct {
	SecretKey string        `usage:"Stripe secret key (ORDERDESK_STRIPE_SECRET_KEY or STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	Currency  string        `default:"eur" usage:"ISO currency code for checkout sessions"`
	Timeout   time.Duration `default:"10s" usage:"Timeout for a single Stripe call" flag:"stripe-timeout"`
}

// AdminConfig guards the administrative routes.
type AdminConfig struct {
	RequireAPIKey bool   `default:"false" usage:"Require X-API-Key on admin routes" flag:"require-api-key"`
	APIKeyPepper  string `usage:"HMAC pepper for API key hashing (ORDERDESK_ADMIN_API_KEY_PEPPER)" flag:"api-key-pepper"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return load(false)
}

func load(skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERDESK",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/orderdesk/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set ORDERDESK_DATABASE_URL or DATABASE_URL")
	}
	if _, err := time.LoadLocation(c.Shop.Timezone); err != nil {
		return errors.Wrapf(err, "shop timezone %q", c.Shop.Timezone)
	}
	switch c.Shop.OverrideStore {
	case OverrideStorePostgres, OverrideStoreMemory:
	default:
		return errors.Errorf("unknown override store %q", c.Shop.OverrideStore)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.Admin.RequireAPIKey && c.Admin.APIKeyPepper == "" {
		return errors.New("api key pepper is required when admin api key is required")
	}
	if c.Stripe.SecretKey != "" && len(c.Stripe.Currency) != 3 {
		return errors.Errorf("invalid currency %q", c.Stripe.Currency)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the ORDERDESK_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Stripe.SecretKey == "" {
		c.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	c.Shop.OverrideStore = strings.ToLower(strings.TrimSpace(c.Shop.OverrideStore))
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
}
