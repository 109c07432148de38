package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	RejectPolicyReject = "reject"
	RejectPolicyLog    = "log"
)

type Config struct {
	Port                string
	DatabaseURL         string
	AnthropicAPIKey     string
	OpenAIAPIKey        string
	ModelProvider       string
	Model               string
	MaxTokens           int
	MaxToolIterations   int
	APIToken            string
	RateLimitPerMinute  int
	InboundRejectPolicy string
	LogLevel            slog.Level
	NoColor             bool
	ShopProfilePath     string
	Shop                models.ShopProfile
}

func DefaultShopProfile() models.ShopProfile {
	return models.ShopProfile{
		Name:              "Shop Pilot",
		Currency:          "USD",
		TaxRate:           0,
		LaborRateCents:    12000,
		EstimateValidDays: 30,
		InvoiceDueDays:    30,
		Timezone:          "UTC",
	}
}

// Load reads .env (when present), the process environment and the optional
// YAML shop profile. Missing required values are reported by Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DB_URL"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		ModelProvider:       strings.ToLower(getEnv("MODEL_PROVIDER", ProviderAnthropic)),
		Model:               os.Getenv("MODEL"),
		APIToken:            os.Getenv("API_TOKEN"),
		InboundRejectPolicy: strings.ToLower(getEnv("INBOUND_REJECT_POLICY", RejectPolicyReject)),
		ShopProfilePath:     os.Getenv("SHOP_PROFILE"),
		NoColor:             os.Getenv("NO_COLOR") != "",
		Shop:                DefaultShopProfile(),
	}

	var err error
	if cfg.MaxTokens, err = getEnvInt("MAX_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.MaxToolIterations, err = getEnvInt("MAX_TOOL_ITERATIONS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.ModelProvider)
	}

	if cfg.ShopProfilePath != "" {
		shop, err := LoadShopProfile(cfg.ShopProfilePath)
		if err != nil {
			return nil, err
		}
		cfg.Shop = shop
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DB_URL environment variable is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN environment variable is required")
	}

	switch c.ModelProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q", c.ModelProvider)
	}

	if c.MaxToolIterations <= 0 {
		return fmt.Errorf("MAX_TOOL_ITERATIONS must be positive")
	}
	if c.InboundRejectPolicy != RejectPolicyReject && c.InboundRejectPolicy != RejectPolicyLog {
		return fmt.Errorf("INBOUND_REJECT_POLICY must be %q or %q", RejectPolicyReject, RejectPolicyLog)
	}

	return nil
}

// LoadShopProfile reads a YAML profile. Fields absent from the file keep the
// defaults from DefaultShopProfile.
func LoadShopProfile(path string) (models.ShopProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.ShopProfile{}, fmt.Errorf("failed to read shop profile: %w", err)
	}

	shop := DefaultShopProfile()
	if err := yaml.Unmarshal(data, &shop); err != nil {
		return models.ShopProfile{}, fmt.Errorf("failed to parse shop profile %s: %w", path, err)
	}

	if shop.TaxRate < 0 || shop.TaxRate >= 1 {
		return models.ShopProfile{}, fmt.Errorf("shop profile tax_rate must be a fraction in [0, 1), got %v", shop.TaxRate)
	}
	if shop.EstimateValidDays <= 0 {
		shop.EstimateValidDays = DefaultShopProfile().EstimateValidDays
	}
	if shop.InvoiceDueDays <= 0 {
		shop.InvoiceDueDays = DefaultShopProfile().InvoiceDueDays
	}

	return shop, nil
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "claude-sonnet-4-20250514"
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}
