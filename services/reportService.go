package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/samber/lo"
)

const (
	defaultTopCustomers = 5
	maxTopCustomers     = 50
)

type ReportService struct {
	repo db.ReportRepository
}

func NewReportService(repo db.ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

func (s *ReportService) Revenue(ctx context.Context, dr models.DateRange) (*models.RevenueReport, error) {
	if err := validateRange(dr); err != nil {
		return nil, err
	}
	report, err := s.repo.Revenue(ctx, dr)
	if err != nil {
		slog.Error("revenue report failed", "error", err)
		return nil, err
	}
	return report, nil
}

// JobsByStatus reports a count for every status, including those with no jobs.
func (s *ReportService) JobsByStatus(ctx context.Context, dr models.DateRange) (*models.JobsByStatusReport, error) {
	if err := validateRange(dr); err != nil {
		return nil, err
	}

	counts, err := s.repo.JobCountsByStatus(ctx, dr)
	if err != nil {
		slog.Error("jobs by status report failed", "error", err)
		return nil, err
	}

	byStatus := lo.SliceToMap(counts, func(c models.StatusCount) (models.JobStatus, int) {
		return c.Status, c.Count
	})
	full := lo.Map(models.JobStatuses, func(status models.JobStatus, _ int) models.StatusCount {
		return models.StatusCount{Status: status, Count: byStatus[status]}
	})

	return &models.JobsByStatusReport{
		Range:  dr,
		Counts: full,
		Total:  lo.SumBy(full, func(c models.StatusCount) int { return c.Count }),
	}, nil
}

func (s *ReportService) TopCustomers(ctx context.Context, dr models.DateRange, limit int) (*models.TopCustomersReport, error) {
	if err := validateRange(dr); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopCustomers
	}
	limit = min(limit, maxTopCustomers)

	totals, err := s.repo.TopCustomers(ctx, dr, limit)
	if err != nil {
		slog.Error("top customers report failed", "error", err)
		return nil, err
	}
	return &models.TopCustomersReport{Range: dr, Customers: totals}, nil
}

func validateRange(dr models.DateRange) error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return validationError("report range needs a start and an end")
	}
	if !dr.Start.Before(dr.End) {
		return validationError("report start %s must be before end %s",
			dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
	}
	return nil
}

// Report dispatches a report by kind.
func (s *ReportService) Report(ctx context.Context, kind models.ReportKind, dr models.DateRange, limit int) (any, error) {
	switch kind {
	case models.ReportRevenue:
		return s.Revenue(ctx, dr)
	case models.ReportJobsByStatus:
		return s.JobsByStatus(ctx, dr)
	case models.ReportTopCustomers:
		return s.TopCustomers(ctx, dr, limit)
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, kind)
	}
}
