package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/samber/lo"
)

// jobTransitions lists the statuses reachable from each open status.
// Complete and cancelled are terminal.
var jobTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusNotStarted:      {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress:      {models.JobStatusWaitingForParts, models.JobStatusComplete, models.JobStatusCancelled},
	models.JobStatusWaitingForParts: {models.JobStatusInProgress, models.JobStatusCancelled},
}

func CanTransitionJob(from, to models.JobStatus) bool {
	return slices.Contains(jobTransitions[from], to)
}

type JobService struct {
	repo      db.JobRepository
	customers db.CustomerRepository
	vehicles  db.VehicleRepository
	team      db.TeamRepository
	now       func() time.Time
}

func NewJobService(repo db.JobRepository, customers db.CustomerRepository, vehicles db.VehicleRepository, team db.TeamRepository) *JobService {
	return &JobService{repo: repo, customers: customers, vehicles: vehicles, team: team, now: time.Now}
}

func (s *JobService) CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.Job, error) {
	if req.CustomerID <= 0 {
		return nil, invalidID("customer", req.CustomerID)
	}
	if _, err := s.customers.GetCustomerByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	job := &models.Job{
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      models.JobStatusNotStarted,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
	}

	if err := s.validateJob(ctx, job); err != nil {
		slog.Warn("job creation validation failed", "error", err)
		return nil, err
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		slog.Error("failed to create job", "customer_id", req.CustomerID, "error", err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	job.LineItems = []models.LineItem{}
	slog.Info("created job", "job_id", job.ID, "customer_id", job.CustomerID)
	return job, nil
}

// GetJob returns the job with its line items and priced total.
func (s *JobService) GetJob(ctx context.Context, id int) (*models.Job, error) {
	if id <= 0 {
		return nil, invalidID("job", id)
	}

	job, err := s.repo.GetJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.loadLineItems(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.Job, error) {
	if filter.Status != "" && !slices.Contains(models.JobStatuses, filter.Status) {
		return nil, validationError("unknown job status %q", filter.Status)
	}

	jobs, err := s.repo.ListJobs(ctx, filter)
	if err != nil {
		slog.Error("failed to list jobs", "error", err)
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) UpdateJob(ctx context.Context, id int, req *models.UpdateJobRequest) (*models.Job, error) {
	if id <= 0 {
		return nil, invalidID("job", id)
	}
	if req.IsEmpty() {
		return nil, validationError("no updates provided")
	}

	job, err := s.repo.GetJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(job)
	job.Title = strings.TrimSpace(job.Title)
	job.Description = strings.TrimSpace(job.Description)
	if err := s.validateJob(ctx, job); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		slog.Error("failed to update job", "job_id", id, "error", err)
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	slog.Info("updated job", "job_id", id)
	return job, nil
}

func (s *JobService) UpdateJobStatus(ctx context.Context, id int, status models.JobStatus) (*models.Job, error) {
	if id <= 0 {
		return nil, invalidID("job", id)
	}
	if !slices.Contains(models.JobStatuses, status) {
		return nil, validationError("unknown job status %q", status)
	}

	job, err := s.repo.GetJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.Status == status {
		return job, nil
	}
	if !CanTransitionJob(job.Status, status) {
		return nil, fmt.Errorf("%w: job %d cannot move from %s to %s", ErrInvalidTransition, id, job.Status, status)
	}

	from := job.Status
	job.Status = status
	if status == models.JobStatusComplete {
		now := s.now()
		job.CompletedAt = &now
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		slog.Error("failed to update job status", "job_id", id, "error", err)
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	slog.Info("job status changed", "job_id", id, "from", from, "to", status)
	return job, nil
}

func (s *JobService) DeleteJob(ctx context.Context, id int) error {
	if id <= 0 {
		return invalidID("job", id)
	}
	if err := s.repo.DeleteJob(ctx, id); err != nil {
		return err
	}
	slog.Info("deleted job", "job_id", id)
	return nil
}

func (s *JobService) AddLineItem(ctx context.Context, req *models.CreateLineItemRequest) (*models.LineItem, error) {
	if req.JobID <= 0 {
		return nil, invalidID("job", req.JobID)
	}

	if err := s.requireEditableJob(ctx, req.JobID); err != nil {
		return nil, err
	}

	item := &models.LineItem{
		JobID:          req.JobID,
		Kind:           req.Kind,
		Description:    strings.TrimSpace(req.Description),
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	}
	if err := validateLineItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.CreateLineItem(ctx, item); err != nil {
		slog.Error("failed to create line item", "job_id", req.JobID, "error", err)
		return nil, fmt.Errorf("failed to create line item: %w", err)
	}

	slog.Info("added line item", "job_id", item.JobID, "line_item_id", item.ID)
	return item, nil
}

func (s *JobService) GetLineItem(ctx context.Context, id int) (*models.LineItem, error) {
	if id <= 0 {
		return nil, invalidID("line item", id)
	}
	return s.repo.GetLineItemByID(ctx, id)
}

func (s *JobService) UpdateLineItem(ctx context.Context, id int, req *models.UpdateLineItemRequest) (*models.LineItem, error) {
	if id <= 0 {
		return nil, invalidID("line item", id)
	}
	if req.IsEmpty() {
		return nil, validationError("no updates provided")
	}

	item, err := s.repo.GetLineItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditableJob(ctx, item.JobID); err != nil {
		return nil, err
	}

	req.ApplyTo(item)
	item.Description = strings.TrimSpace(item.Description)
	if err := validateLineItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLineItem(ctx, item); err != nil {
		slog.Error("failed to update line item", "line_item_id", id, "error", err)
		return nil, fmt.Errorf("failed to update line item: %w", err)
	}

	slog.Info("updated line item", "line_item_id", id)
	return item, nil
}

func (s *JobService) DeleteLineItem(ctx context.Context, id int) error {
	if id <= 0 {
		return invalidID("line item", id)
	}

	item, err := s.repo.GetLineItemByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEditableJob(ctx, item.JobID); err != nil {
		return err
	}

	if err := s.repo.DeleteLineItem(ctx, id); err != nil {
		return err
	}
	slog.Info("deleted line item", "line_item_id", id, "job_id", item.JobID)
	return nil
}

func (s *JobService) loadLineItems(ctx context.Context, job *models.Job) error {
	items, err := s.repo.GetLineItemsByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to load line items for job %d: %w", job.ID, err)
	}
	job.LineItems = items
	job.TotalCents = lo.SumBy(items, func(li models.LineItem) int64 { return li.TotalCents() })
	return nil
}

func (s *JobService) requireEditableJob(ctx context.Context, jobID int) error {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == models.JobStatusCancelled {
		return validationError("job %d is cancelled; its line items cannot change", jobID)
	}
	return nil
}

func (s *JobService) validateJob(ctx context.Context, job *models.Job) error {
	if job.Title == "" {
		return validationError("title is required")
	}

	if job.VehicleID != nil {
		vehicle, err := s.vehicles.GetVehicleByID(ctx, *job.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.CustomerID != job.CustomerID {
			return validationError("vehicle %d does not belong to customer %d", vehicle.ID, job.CustomerID)
		}
	}

	if job.AssignedTo != nil {
		member, err := s.team.GetTeamMemberByID(ctx, *job.AssignedTo)
		if err != nil {
			return err
		}
		if !member.Active {
			return validationError("team member %d is not active", member.ID)
		}
	}

	return nil
}

var lineItemKinds = []models.LineItemKind{models.LineItemLabor, models.LineItemPart, models.LineItemFee}

func validateLineItem(item *models.LineItem) error {
	if !slices.Contains(lineItemKinds, item.Kind) {
		return validationError("kind must be one of labor, part, fee; got %q", item.Kind)
	}
	if item.Description == "" {
		return validationError("description is required")
	}
	if item.Quantity <= 0 {
		return validationError("quantity must be greater than zero")
	}
	if item.UnitPriceCents < 0 {
		return validationError("unit price cannot be negative")
	}
	return nil
}
