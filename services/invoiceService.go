package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/oklog/ulid/v2"
)

type InvoiceService struct {
	repo db.InvoiceRepository
	jobs db.JobRepository
	shop models.ShopProfile
	now  func() time.Time
}

func NewInvoiceService(repo db.InvoiceRepository, jobs db.JobRepository, shop models.ShopProfile) *InvoiceService {
	return &InvoiceService{repo: repo, jobs: jobs, shop: shop, now: time.Now}
}

// CreateInvoice bills a job once. Jobs without line items, cancelled jobs and
// jobs that already carry an invoice are refused.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	if req.JobID <= 0 {
		return nil, invalidID("job", req.JobID)
	}

	job, err := s.jobs.GetJobByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobStatusCancelled {
		return nil, validationError("job %d is cancelled", job.ID)
	}

	existing, err := s.repo.GetInvoiceByJob(ctx, job.ID)
	switch {
	case err == nil:
		return nil, validationError("job %d is already invoiced as %s", job.ID, existing.Number)
	case !isNotFound(err):
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	items, err := s.jobs.GetLineItemsByJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	if len(items) == 0 {
		return nil, validationError("job %d has no line items to invoice", job.ID)
	}

	dueDays := req.DueDays
	if dueDays <= 0 {
		dueDays = s.shop.InvoiceDueDays
	}

	totals := PriceLineItems(items, s.shop.TaxRate)
	invoice := &models.Invoice{
		JobID:         job.ID,
		CustomerID:    job.CustomerID,
		Number:        "INV-" + ulid.Make().String(),
		Status:        models.InvoiceUnpaid,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		Notes:         strings.TrimSpace(req.Notes),
		DueDate:       s.now().AddDate(0, 0, dueDays),
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		slog.Error("failed to create invoice", "job_id", job.ID, "error", err)
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	slog.Info("created invoice", "invoice", invoice.Number, "job_id", job.ID, "total_cents", invoice.TotalCents)
	return invoice, nil
}
