package models

// ShopProfile holds the per-shop business settings loaded from the YAML profile.
type ShopProfile struct {
	Name              string  `yaml:"name" json:"name"`
	Phone             string  `yaml:"phone" json:"phone"`
	Currency          string  `yaml:"currency" json:"currency"`
	TaxRate           float64 `yaml:"tax_rate" json:"tax_rate"`
	LaborRateCents    int64   `yaml:"labor_rate_cents" json:"labor_rate_cents"`
	EstimateValidDays int     `yaml:"estimate_valid_days" json:"estimate_valid_days"`
	InvoiceDueDays    int     `yaml:"invoice_due_days" json:"invoice_due_days"`
	Timezone          string  `yaml:"timezone" json:"timezone"`
}
