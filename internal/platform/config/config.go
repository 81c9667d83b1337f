package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Lifecycle jobs
	SweepInterval     time.Duration // How often the subscription sweep runs
	BillingGracePeriod time.Duration

	// Rate limiting
	RateLimitFormatted string // ulule/limiter format, e.g. "100-M"

	// Product analytics
	PosthogAPIKey   string
	PosthogEndpoint string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "wallet-billing-core")
	viper.SetDefault("SWEEP_INTERVAL", "1h")
	viper.SetDefault("BILLING_GRACE_PERIOD", "72h")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://app.posthog.com")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid JWT_EXPIRY_DURATION (%q). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	sweepStr := viper.GetString("SWEEP_INTERVAL")
	sweep, err := time.ParseDuration(sweepStr)
	if err != nil {
		sweep = time.Hour
		log.Printf("Warning: Invalid SWEEP_INTERVAL (%q). Defaulting to %s.\n", sweepStr, sweep)
	}
	cfg.SweepInterval = sweep

	graceStr := viper.GetString("BILLING_GRACE_PERIOD")
	grace, err := time.ParseDuration(graceStr)
	if err != nil {
		grace = 72 * time.Hour
		log.Printf("Warning: Invalid BILLING_GRACE_PERIOD (%q). Defaulting to %s.\n", graceStr, grace)
	}
	cfg.BillingGracePeriod = grace

	cfg.RateLimitFormatted = viper.GetString("RATE_LIMIT")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	return cfg, nil
}
