package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

type EstimateRepository interface {
	CreateEstimate(ctx context.Context, estimate *models.Estimate) error
	GetEstimateByID(ctx context.Context, id int) (*models.Estimate, error)
	UpdateEstimate(ctx context.Context, estimate *models.Estimate) error
}

type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoiceByID(ctx context.Context, id int) (*models.Invoice, error)
	// GetInvoiceByJob returns ErrNotFound when the job has not been invoiced.
	GetInvoiceByJob(ctx context.Context, jobID int) (*models.Invoice, error)
}

type PostgresEstimateRepository struct {
	db *sql.DB
}

func NewPostgresEstimateRepository(conn *sql.DB) *PostgresEstimateRepository {
	return &PostgresEstimateRepository{db: conn}
}

const estimateColumns = `id, job_id, number, status, subtotal_cents, tax_cents, total_cents, notes, valid_until, sent_at, decided_at, created_at, updated_at`

func scanEstimate(row interface{ Scan(...any) error }) (*models.Estimate, error) {
	e := &models.Estimate{}
	var sentAt, decidedAt sql.NullTime

	err := row.Scan(&e.ID, &e.JobID, &e.Number, &e.Status, &e.SubtotalCents, &e.TaxCents, &e.TotalCents,
		&e.Notes, &e.ValidUntil, &sentAt, &decidedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.SentAt = timePtr(sentAt)
	e.DecidedAt = timePtr(decidedAt)
	return e, nil
}

func (r *PostgresEstimateRepository) CreateEstimate(ctx context.Context, estimate *models.Estimate) error {
	query := `
		INSERT INTO shop.estimates (job_id, number, status, subtotal_cents, tax_cents, total_cents, notes, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		estimate.JobID, estimate.Number, estimate.Status, estimate.SubtotalCents, estimate.TaxCents,
		estimate.TotalCents, estimate.Notes, estimate.ValidUntil)

	if err := row.Scan(&estimate.ID, &estimate.CreatedAt, &estimate.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create estimate: %w", err)
	}

	return nil
}

func (r *PostgresEstimateRepository) GetEstimateByID(ctx context.Context, id int) (*models.Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM shop.estimates WHERE id = $1`

	estimate, err := scanEstimate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("estimate", id)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	return estimate, nil
}

func (r *PostgresEstimateRepository) UpdateEstimate(ctx context.Context, estimate *models.Estimate) error {
	query := `
		UPDATE shop.estimates
		SET status = $1, notes = $2, sent_at = $3, decided_at = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	row := r.db.QueryRowContext(ctx, query,
		estimate.Status, estimate.Notes, nullableTime(estimate.SentAt), nullableTime(estimate.DecidedAt), estimate.ID)

	if err := row.Scan(&estimate.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("estimate", estimate.ID)
		}
		return fmt.Errorf("failed to update estimate: %w", err)
	}

	return nil
}

type PostgresInvoiceRepository struct {
	db *sql.DB
}

func NewPostgresInvoiceRepository(conn *sql.DB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: conn}
}

const invoiceColumns = `id, job_id, customer_id, number, status, subtotal_cents, tax_cents, total_cents, notes, due_date, created_at`

func scanInvoice(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := row.Scan(&inv.ID, &inv.JobID, &inv.CustomerID, &inv.Number, &inv.Status, &inv.SubtotalCents,
		&inv.TaxCents, &inv.TotalCents, &inv.Notes, &inv.DueDate, &inv.CreatedAt)
	return inv, err
}

func (r *PostgresInvoiceRepository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO shop.invoices (job_id, customer_id, number, status, subtotal_cents, tax_cents, total_cents, notes, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	row := r.db.QueryRowContext(ctx, query,
		invoice.JobID, invoice.CustomerID, invoice.Number, invoice.Status, invoice.SubtotalCents,
		invoice.TaxCents, invoice.TotalCents, invoice.Notes, invoice.DueDate)

	if err := row.Scan(&invoice.ID, &invoice.CreatedAt); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func (r *PostgresInvoiceRepository) GetInvoiceByID(ctx context.Context, id int) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM shop.invoices WHERE id = $1`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

func (r *PostgresInvoiceRepository) GetInvoiceByJob(ctx context.Context, jobID int) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM shop.invoices WHERE job_id = $1`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice for job %d %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice for job: %w", err)
	}

	return invoice, nil
}
