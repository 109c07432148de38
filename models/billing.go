package models

import "time"

type EstimateStatus string

const (
	EstimateDraft    EstimateStatus = "draft"
	EstimateSent     EstimateStatus = "sent"
	EstimateApproved EstimateStatus = "approved"
	EstimateDeclined EstimateStatus = "declined"
)

type Estimate struct {
	ID            int            `json:"id" db:"id"`
	JobID         int            `json:"job_id" db:"job_id"`
	Number        string         `json:"number" db:"number"`
	Status        EstimateStatus `json:"status" db:"status"`
	SubtotalCents int64          `json:"subtotal_cents" db:"subtotal_cents"`
	TaxCents      int64          `json:"tax_cents" db:"tax_cents"`
	TotalCents    int64          `json:"total_cents" db:"total_cents"`
	Notes         string         `json:"notes" db:"notes"`
	ValidUntil    time.Time      `json:"valid_until" db:"valid_until"`
	SentAt        *time.Time     `json:"sent_at,omitempty" db:"sent_at"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateEstimateRequest struct {
	JobID     int    `json:"job_id"`
	Notes     string `json:"notes"`
	ValidDays int    `json:"valid_days"`
}

type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
)

type Invoice struct {
	ID            int           `json:"id" db:"id"`
	JobID         int           `json:"job_id" db:"job_id"`
	CustomerID    int           `json:"customer_id" db:"customer_id"`
	Number        string        `json:"number" db:"number"`
	Status        InvoiceStatus `json:"status" db:"status"`
	SubtotalCents int64         `json:"subtotal_cents" db:"subtotal_cents"`
	TaxCents      int64         `json:"tax_cents" db:"tax_cents"`
	TotalCents    int64         `json:"total_cents" db:"total_cents"`
	Notes         string        `json:"notes" db:"notes"`
	DueDate       time.Time     `json:"due_date" db:"due_date"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

type CreateInvoiceRequest struct {
	JobID   int    `json:"job_id"`
	Notes   string `json:"notes"`
	DueDays int    `json:"due_days"`
}

// Totals is the priced breakdown of a set of line items.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}
