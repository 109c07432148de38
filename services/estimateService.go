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

// Notifier delivers a sent estimate to the customer.
type Notifier interface {
	EstimateSent(ctx context.Context, estimate *models.Estimate, customer *models.Customer) error
}

// LogNotifier records deliveries in the log instead of contacting the customer.
type LogNotifier struct{}

func (LogNotifier) EstimateSent(ctx context.Context, estimate *models.Estimate, customer *models.Customer) error {
	slog.InfoContext(ctx, "estimate sent",
		"estimate", estimate.Number,
		"customer_id", customer.ID,
		"email", customer.Email,
		"total_cents", estimate.TotalCents)
	return nil
}

var estimateTransitions = map[models.EstimateStatus][]models.EstimateStatus{
	models.EstimateDraft: {models.EstimateSent},
	models.EstimateSent:  {models.EstimateApproved, models.EstimateDeclined},
}

type EstimateService struct {
	repo      db.EstimateRepository
	jobs      db.JobRepository
	customers db.CustomerRepository
	notifier  Notifier
	shop      models.ShopProfile
	now       func() time.Time
}

func NewEstimateService(repo db.EstimateRepository, jobs db.JobRepository, customers db.CustomerRepository, notifier Notifier, shop models.ShopProfile) *EstimateService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &EstimateService{
		repo:      repo,
		jobs:      jobs,
		customers: customers,
		notifier:  notifier,
		shop:      shop,
		now:       time.Now,
	}
}

// CreateEstimate prices the job's current line items into a draft estimate.
func (s *EstimateService) CreateEstimate(ctx context.Context, req *models.CreateEstimateRequest) (*models.Estimate, error) {
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

	items, err := s.jobs.GetLineItemsByJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	if len(items) == 0 {
		return nil, validationError("job %d has no line items to estimate", job.ID)
	}

	validDays := req.ValidDays
	if validDays <= 0 {
		validDays = s.shop.EstimateValidDays
	}

	totals := PriceLineItems(items, s.shop.TaxRate)
	estimate := &models.Estimate{
		JobID:         job.ID,
		Number:        "EST-" + ulid.Make().String(),
		Status:        models.EstimateDraft,
		SubtotalCents: totals.SubtotalCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		Notes:         strings.TrimSpace(req.Notes),
		ValidUntil:    s.now().AddDate(0, 0, validDays),
	}

	if err := s.repo.CreateEstimate(ctx, estimate); err != nil {
		slog.Error("failed to create estimate", "job_id", job.ID, "error", err)
		return nil, fmt.Errorf("failed to create estimate: %w", err)
	}

	slog.Info("created estimate", "estimate", estimate.Number, "job_id", job.ID, "total_cents", estimate.TotalCents)
	return estimate, nil
}

func (s *EstimateService) GetEstimate(ctx context.Context, id int) (*models.Estimate, error) {
	if id <= 0 {
		return nil, invalidID("estimate", id)
	}
	return s.repo.GetEstimateByID(ctx, id)
}

// SendEstimate marks a draft estimate as sent and notifies the job's customer.
func (s *EstimateService) SendEstimate(ctx context.Context, id int) (*models.Estimate, error) {
	estimate, err := s.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkEstimateTransition(estimate, models.EstimateSent); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetJobByID(ctx, estimate.JobID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetCustomerByID(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	estimate.Status = models.EstimateSent
	estimate.SentAt = &now
	if err := s.repo.UpdateEstimate(ctx, estimate); err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	if err := s.notifier.EstimateSent(ctx, estimate, customer); err != nil {
		slog.Warn("estimate notification failed", "estimate", estimate.Number, "error", err)
	}
	return estimate, nil
}

// UpdateEstimateStatus records the customer's decision on a sent estimate.
func (s *EstimateService) UpdateEstimateStatus(ctx context.Context, id int, status models.EstimateStatus) (*models.Estimate, error) {
	if status == models.EstimateSent {
		return s.SendEstimate(ctx, id)
	}

	estimate, err := s.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate.Status == status {
		return estimate, nil
	}
	if err := checkEstimateTransition(estimate, status); err != nil {
		return nil, err
	}

	now := s.now()
	estimate.Status = status
	estimate.DecidedAt = &now
	if err := s.repo.UpdateEstimate(ctx, estimate); err != nil {
		return nil, fmt.Errorf("failed to update estimate: %w", err)
	}

	slog.Info("estimate decided", "estimate", estimate.Number, "status", status)
	return estimate, nil
}

func checkEstimateTransition(estimate *models.Estimate, to models.EstimateStatus) error {
	for _, next := range estimateTransitions[estimate.Status] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: estimate %d cannot move from %s to %s", ErrInvalidTransition, estimate.ID, estimate.Status, to)
}
