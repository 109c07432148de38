package models

import "time"

type ReportKind string

const (
	ReportRevenue      ReportKind = "revenue"
	ReportJobsByStatus ReportKind = "jobs_by_status"
	ReportTopCustomers ReportKind = "top_customers"
)

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type RevenueReport struct {
	Range         DateRange `json:"range"`
	InvoiceCount  int       `json:"invoice_count"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TaxCents      int64     `json:"tax_cents"`
	TotalCents    int64     `json:"total_cents"`
	PaidCents     int64     `json:"paid_cents"`
}

type StatusCount struct {
	Status JobStatus `json:"status"`
	Count  int       `json:"count"`
}

type JobsByStatusReport struct {
	Range  DateRange     `json:"range"`
	Counts []StatusCount `json:"counts"`
	Total  int           `json:"total"`
}

type CustomerTotal struct {
	CustomerID   int    `json:"customer_id"`
	Name         string `json:"name"`
	InvoiceCount int    `json:"invoice_count"`
	TotalCents   int64  `json:"total_cents"`
}

type TopCustomersReport struct {
	Range     DateRange       `json:"range"`
	Customers []CustomerTotal `json:"customers"`
}
