package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

var billingNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestPriceLineItems(t *testing.T) {
	items := []models.LineItem{
		{Quantity: 1.5, UnitPriceCents: 12000},
		{Quantity: 2, UnitPriceCents: 4599},
		{Quantity: 1, UnitPriceCents: 333},
	}

	tests := []struct {
		name     string
		taxRate  float64
		expected models.Totals
	}{
		{name: "no tax", taxRate: 0, expected: models.Totals{SubtotalCents: 27531, TaxCents: 0, TotalCents: 27531}},
		{name: "tax rounds to nearest cent", taxRate: 0.0625, expected: models.Totals{SubtotalCents: 27531, TaxCents: 1721, TotalCents: 29252}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceLineItems(items, tt.taxRate); got != tt.expected {
				t.Errorf("PriceLineItems() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func billingFixture() (*fakeJobRepo, *fakeCustomerRepo) {
	jobs := newFakeJobRepo(
		&models.Job{ID: 1, CustomerID: 1, Title: "Brakes", Status: models.JobStatusInProgress},
		&models.Job{ID: 2, CustomerID: 1, Title: "Empty", Status: models.JobStatusNotStarted},
	)
	jobs.CreateLineItem(context.Background(), &models.LineItem{JobID: 1, Kind: models.LineItemLabor, Description: "Pads", Quantity: 1, UnitPriceCents: 10000})
	customers := newFakeCustomerRepo(&models.Customer{ID: 1, FirstName: "Ana", Email: "ana@example.com"})
	return jobs, customers
}

func TestEstimateLifecycle(t *testing.T) {
	ctx := context.Background()
	jobs, customers := billingFixture()
	notifier := &recordingNotifier{}
	shop := models.ShopProfile{TaxRate: 0.1, EstimateValidDays: 30}

	service := NewEstimateService(newFakeEstimateRepo(), jobs, customers, notifier, shop)
	service.now = func() time.Time { return billingNow }

	estimate, err := service.CreateEstimate(ctx, &models.CreateEstimateRequest{JobID: 1})
	if err != nil {
		t.Fatalf("CreateEstimate(): %v", err)
	}
	if estimate.Status != models.EstimateDraft {
		t.Errorf("Status = %s, expected draft", estimate.Status)
	}
	if estimate.TotalCents != 11000 {
		t.Errorf("TotalCents = %d, expected 11000", estimate.TotalCents)
	}
	if !strings.HasPrefix(estimate.Number, "EST-") {
		t.Errorf("Number = %q, expected EST- prefix", estimate.Number)
	}
	if !estimate.ValidUntil.Equal(billingNow.AddDate(0, 0, 30)) {
		t.Errorf("ValidUntil = %v, expected 30 days out", estimate.ValidUntil)
	}

	if _, err := service.UpdateEstimateStatus(ctx, estimate.ID, models.EstimateApproved); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve draft error = %v, expected ErrInvalidTransition", err)
	}

	sent, err := service.SendEstimate(ctx, estimate.ID)
	if err != nil {
		t.Fatalf("SendEstimate(): %v", err)
	}
	if sent.SentAt == nil || len(notifier.sent) != 1 {
		t.Errorf("expected SentAt and one notification, got %v and %v", sent.SentAt, notifier.sent)
	}

	approved, err := service.UpdateEstimateStatus(ctx, estimate.ID, models.EstimateApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.DecidedAt == nil {
		t.Errorf("expected DecidedAt to be set")
	}

	if _, err := service.UpdateEstimateStatus(ctx, estimate.ID, models.EstimateDeclined); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("decline approved error = %v, expected ErrInvalidTransition", err)
	}

	if _, err := service.CreateEstimate(ctx, &models.CreateEstimateRequest{JobID: 2}); !errors.Is(err, ErrValidation) {
		t.Errorf("estimate without line items error = %v, expected ErrValidation", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	jobs, _ := billingFixture()
	shop := models.ShopProfile{TaxRate: 0.05, InvoiceDueDays: 14}

	service := NewInvoiceService(&fakeInvoiceRepo{}, jobs, shop)
	service.now = func() time.Time { return billingNow }

	invoice, err := service.CreateInvoice(ctx, &models.CreateInvoiceRequest{JobID: 1})
	if err != nil {
		t.Fatalf("CreateInvoice(): %v", err)
	}
	if !strings.HasPrefix(invoice.Number, "INV-") {
		t.Errorf("Number = %q, expected INV- prefix", invoice.Number)
	}
	if invoice.CustomerID != 1 || invoice.TotalCents != 10500 || invoice.Status != models.InvoiceUnpaid {
		t.Errorf("unexpected invoice %+v", invoice)
	}
	if !invoice.DueDate.Equal(billingNow.AddDate(0, 0, 14)) {
		t.Errorf("DueDate = %v, expected 14 days out", invoice.DueDate)
	}

	tests := []struct {
		name    string
		jobID   int
		wantErr error
	}{
		{name: "already invoiced", jobID: 1, wantErr: ErrValidation},
		{name: "no line items", jobID: 2, wantErr: ErrValidation},
		{name: "unknown job", jobID: 9, wantErr: ErrNotFound},
		{name: "invalid id", jobID: 0, wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateInvoice(ctx, &models.CreateInvoiceRequest{JobID: tt.jobID})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateInvoice(%d) error = %v, expected %v", tt.jobID, err, tt.wantErr)
			}
		})
	}
}
