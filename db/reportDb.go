package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

// ReportRepository runs the aggregate queries behind the reporting tools.
// Ranges are half-open: start inclusive, end exclusive.
type ReportRepository interface {
	Revenue(ctx context.Context, r models.DateRange) (*models.RevenueReport, error)
	JobCountsByStatus(ctx context.Context, r models.DateRange) ([]models.StatusCount, error)
	TopCustomers(ctx context.Context, r models.DateRange, limit int) ([]models.CustomerTotal, error)
}

type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(conn *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: conn}
}

func (r *PostgresReportRepository) Revenue(ctx context.Context, dr models.DateRange) (*models.RevenueReport, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(subtotal_cents), 0),
			COALESCE(SUM(tax_cents), 0),
			COALESCE(SUM(total_cents), 0),
			COALESCE(SUM(total_cents) FILTER (WHERE status = $3), 0)
		FROM shop.invoices
		WHERE created_at >= $1 AND created_at < $2`

	report := &models.RevenueReport{Range: dr}
	err := r.db.QueryRowContext(ctx, query, dr.Start, dr.End, models.InvoicePaid).Scan(
		&report.InvoiceCount, &report.SubtotalCents, &report.TaxCents, &report.TotalCents, &report.PaidCents)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}

	return report, nil
}

func (r *PostgresReportRepository) JobCountsByStatus(ctx context.Context, dr models.DateRange) ([]models.StatusCount, error) {
	query := `
		SELECT status, COUNT(*)
		FROM shop.jobs
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, dr.Start, dr.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query job counts: %w", err)
	}
	defer rows.Close()

	counts := make([]models.StatusCount, 0)
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over job counts: %w", err)
	}

	return counts, nil
}

func (r *PostgresReportRepository) TopCustomers(ctx context.Context, dr models.DateRange, limit int) ([]models.CustomerTotal, error) {
	query := `
		SELECT c.id, TRIM(c.first_name || ' ' || c.last_name), COUNT(i.id), COALESCE(SUM(i.total_cents), 0)
		FROM shop.invoices i
		JOIN shop.customers c ON c.id = i.customer_id
		WHERE i.created_at >= $1 AND i.created_at < $2
		GROUP BY c.id, c.first_name, c.last_name
		ORDER BY 4 DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, dr.Start, dr.End, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}
	defer rows.Close()

	totals := make([]models.CustomerTotal, 0)
	for rows.Next() {
		var t models.CustomerTotal
		if err := rows.Scan(&t.CustomerID, &t.Name, &t.InvoiceCount, &t.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan customer total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over customer totals: %w", err)
	}

	return totals, nil
}
