package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJobByID(ctx context.Context, id int) (*models.Job, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id int) error
	CountOpenJobsForCustomer(ctx context.Context, customerID int) (int, error)

	CreateLineItem(ctx context.Context, item *models.LineItem) error
	GetLineItemByID(ctx context.Context, id int) (*models.LineItem, error)
	GetLineItemsByJob(ctx context.Context, jobID int) ([]models.LineItem, error)
	UpdateLineItem(ctx context.Context, item *models.LineItem) error
	DeleteLineItem(ctx context.Context, id int) error
}

type PostgresJobRepository struct {
	db *sql.DB
}

func NewPostgresJobRepository(conn *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: conn}
}

const jobColumns = `id, customer_id, vehicle_id, title, description, status, assigned_to, due_date, completed_at, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (*models.Job, error) {
	j := &models.Job{}
	var vehicleID, assignedTo sql.NullInt64
	var dueDate, completedAt sql.NullTime

	err := row.Scan(&j.ID, &j.CustomerID, &vehicleID, &j.Title, &j.Description, &j.Status,
		&assignedTo, &dueDate, &completedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	j.VehicleID = intPtr(vehicleID)
	j.AssignedTo = intPtr(assignedTo)
	j.DueDate = timePtr(dueDate)
	j.CompletedAt = timePtr(completedAt)
	return j, nil
}

func (r *PostgresJobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO shop.jobs (customer_id, vehicle_id, title, description, status, assigned_to, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		job.CustomerID, nullableInt(job.VehicleID), job.Title, job.Description, job.Status,
		nullableInt(job.AssignedTo), nullableTime(job.DueDate))

	if err := row.Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (r *PostgresJobRepository) GetJobByID(ctx context.Context, id int) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM shop.jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("job", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (r *PostgresJobRepository) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM shop.jobs`

	var conditions []string
	var args []any
	argIndex := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.CustomerID > 0 {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argIndex))
		args = append(args, filter.CustomerID)
		argIndex++
	}

	if filter.OpenOnly {
		conditions = append(conditions, fmt.Sprintf("status NOT IN ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, models.JobStatusComplete, models.JobStatusCancelled)
		argIndex += 2
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over jobs: %w", err)
	}

	return jobs, nil
}

func (r *PostgresJobRepository) UpdateJob(ctx context.Context, job *models.Job) error {
	query := `
		UPDATE shop.jobs
		SET vehicle_id = $1, title = $2, description = $3, status = $4, assigned_to = $5,
			due_date = $6, completed_at = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	row := r.db.QueryRowContext(ctx, query,
		nullableInt(job.VehicleID), job.Title, job.Description, job.Status, nullableInt(job.AssignedTo),
		nullableTime(job.DueDate), nullableTime(job.CompletedAt), job.ID)

	if err := row.Scan(&job.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("job", job.ID)
		}
		return fmt.Errorf("failed to update job: %w", err)
	}

	return nil
}

// DeleteJob removes the job together with its line items.
func (r *PostgresJobRepository) DeleteJob(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shop.line_items WHERE job_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete line items: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM shop.jobs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if err := checkRowsAffected(result, "job", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job delete: %w", err)
	}
	return nil
}

func (r *PostgresJobRepository) CountOpenJobsForCustomer(ctx context.Context, customerID int) (int, error) {
	query := `
		SELECT COUNT(*) FROM shop.jobs
		WHERE customer_id = $1 AND status NOT IN ($2, $3)`

	var count int
	err := r.db.QueryRowContext(ctx, query, customerID, models.JobStatusComplete, models.JobStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open jobs: %w", err)
	}

	return count, nil
}

const lineItemColumns = `id, job_id, kind, description, quantity, unit_price_cents, created_at, updated_at`

func scanLineItem(row interface{ Scan(...any) error }) (*models.LineItem, error) {
	li := &models.LineItem{}
	err := row.Scan(&li.ID, &li.JobID, &li.Kind, &li.Description, &li.Quantity, &li.UnitPriceCents, &li.CreatedAt, &li.UpdatedAt)
	return li, err
}

func (r *PostgresJobRepository) CreateLineItem(ctx context.Context, item *models.LineItem) error {
	query := `
		INSERT INTO shop.line_items (job_id, kind, description, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query, item.JobID, item.Kind, item.Description, item.Quantity, item.UnitPriceCents)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create line item: %w", err)
	}

	return nil
}

func (r *PostgresJobRepository) GetLineItemByID(ctx context.Context, id int) (*models.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM shop.line_items WHERE id = $1`

	item, err := scanLineItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("line item", id)
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}

	return item, nil
}

func (r *PostgresJobRepository) GetLineItemsByJob(ctx context.Context, jobID int) ([]models.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM shop.line_items WHERE job_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	items := make([]models.LineItem, 0)
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over line items: %w", err)
	}

	return items, nil
}

func (r *PostgresJobRepository) UpdateLineItem(ctx context.Context, item *models.LineItem) error {
	query := `
		UPDATE shop.line_items
		SET kind = $1, description = $2, quantity = $3, unit_price_cents = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	row := r.db.QueryRowContext(ctx, query, item.Kind, item.Description, item.Quantity, item.UnitPriceCents, item.ID)
	if err := row.Scan(&item.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("line item", item.ID)
		}
		return fmt.Errorf("failed to update line item: %w", err)
	}

	return nil
}

func (r *PostgresJobRepository) DeleteLineItem(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM shop.line_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete line item: %w", err)
	}

	return checkRowsAffected(result, "line item", id)
}
