package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadShopProfile(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantErr  bool
		taxRate  float64
		shopName string
		dueDays  int
	}{
		{
			name:     "full profile",
			yaml:     "name: Main Street Auto\ntax_rate: 0.0625\ninvoice_due_days: 14\n",
			taxRate:  0.0625,
			shopName: "Main Street Auto",
			dueDays:  14,
		},
		{
			name:     "missing fields keep defaults",
			yaml:     "name: Corner Garage\n",
			taxRate:  0,
			shopName: "Corner Garage",
			dueDays:  30,
		},
		{
			name:    "tax rate out of range",
			yaml:    "tax_rate: 6.25\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			yaml:    "name: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "shop.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("failed to write profile: %v", err)
			}

			shop, err := LoadShopProfile(path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("LoadShopProfile() expected error, got %+v", shop)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadShopProfile() unexpected error: %v", err)
			}
			if shop.Name != tt.shopName {
				t.Errorf("Name = %q, expected %q", shop.Name, tt.shopName)
			}
			if shop.TaxRate != tt.taxRate {
				t.Errorf("TaxRate = %v, expected %v", shop.TaxRate, tt.taxRate)
			}
			if shop.InvoiceDueDays != tt.dueDays {
				t.Errorf("InvoiceDueDays = %d, expected %d", shop.InvoiceDueDays, tt.dueDays)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_URL", "postgres://localhost/shop")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("ANTHROPIC_API_KEY", "key")
	t.Setenv("MAX_TOOL_ITERATIONS", "4")
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("MODEL", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHOP_PROFILE", "")
	t.Setenv("INBOUND_REJECT_POLICY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.MaxToolIterations != 4 {
		t.Errorf("MaxToolIterations = %d, expected 4", cfg.MaxToolIterations)
	}
	if cfg.ModelProvider != ProviderAnthropic {
		t.Errorf("ModelProvider = %q, expected %q", cfg.ModelProvider, ProviderAnthropic)
	}
	if cfg.Model == "" {
		t.Errorf("expected a default model")
	}
	if cfg.InboundRejectPolicy != RejectPolicyReject {
		t.Errorf("InboundRejectPolicy = %q, expected %q", cfg.InboundRejectPolicy, RejectPolicyReject)
	}
	if cfg.Shop.Name != DefaultShopProfile().Name {
		t.Errorf("Shop.Name = %q, expected default", cfg.Shop.Name)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:         "postgres://localhost/shop",
		APIToken:            "secret",
		ModelProvider:       ProviderAnthropic,
		AnthropicAPIKey:     "key",
		MaxToolIterations:   10,
		InboundRejectPolicy: RejectPolicyReject,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "missing token", mutate: func(c *Config) { c.APIToken = "" }, wantErr: true},
		{name: "openai without key", mutate: func(c *Config) { c.ModelProvider = ProviderOpenAI }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.ModelProvider = "llama" }, wantErr: true},
		{name: "zero iterations", mutate: func(c *Config) { c.MaxToolIterations = 0 }, wantErr: true},
		{name: "bad policy", mutate: func(c *Config) { c.InboundRejectPolicy = "drop" }, wantErr: true},
		{name: "log policy", mutate: func(c *Config) { c.InboundRejectPolicy = RejectPolicyLog }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
