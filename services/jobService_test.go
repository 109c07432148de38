package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

func newTestJobService(jobs *fakeJobRepo) *JobService {
	customers := newFakeCustomerRepo(
		&models.Customer{ID: 1, FirstName: "Ana"},
		&models.Customer{ID: 2, FirstName: "Ben"},
	)
	vehicles := newFakeVehicleRepo(&models.Vehicle{ID: 10, CustomerID: 1, Make: "Honda", Model: "Civic"})
	team := &fakeTeamRepo{members: []*models.TeamMember{
		{ID: 100, Name: "Sam", Role: "technician", Active: true},
		{ID: 101, Name: "Old Hand", Role: "technician", Active: false},
	}}
	service := NewJobService(jobs, customers, vehicles, team)
	service.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return service
}

func TestCanTransitionJob(t *testing.T) {
	tests := []struct {
		from, to models.JobStatus
		allowed  bool
	}{
		{models.JobStatusNotStarted, models.JobStatusInProgress, true},
		{models.JobStatusNotStarted, models.JobStatusComplete, false},
		{models.JobStatusInProgress, models.JobStatusWaitingForParts, true},
		{models.JobStatusWaitingForParts, models.JobStatusInProgress, true},
		{models.JobStatusWaitingForParts, models.JobStatusComplete, false},
		{models.JobStatusInProgress, models.JobStatusComplete, true},
		{models.JobStatusNotStarted, models.JobStatusCancelled, true},
		{models.JobStatusWaitingForParts, models.JobStatusCancelled, true},
		{models.JobStatusComplete, models.JobStatusCancelled, false},
		{models.JobStatusCancelled, models.JobStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransitionJob(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransitionJob(%s, %s) = %v, expected %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestUpdateJobStatus(t *testing.T) {
	jobs := newFakeJobRepo(&models.Job{ID: 1, CustomerID: 1, Title: "Brakes", Status: models.JobStatusNotStarted})
	service := newTestJobService(jobs)
	ctx := context.Background()

	if _, err := service.UpdateJobStatus(ctx, 1, models.JobStatusComplete); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("skip to complete error = %v, expected ErrInvalidTransition", err)
	}

	if _, err := service.UpdateJobStatus(ctx, 1, models.JobStatusInProgress); err != nil {
		t.Fatalf("start job: %v", err)
	}
	job, err := service.UpdateJobStatus(ctx, 1, models.JobStatusComplete)
	if err != nil {
		t.Fatalf("complete job: %v", err)
	}
	if job.CompletedAt == nil || !job.CompletedAt.Equal(service.now()) {
		t.Errorf("CompletedAt = %v, expected %v", job.CompletedAt, service.now())
	}

	if _, err := service.UpdateJobStatus(ctx, 1, "paused"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status error = %v, expected ErrValidation", err)
	}
	if _, err := service.UpdateJobStatus(ctx, 42, models.JobStatusInProgress); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing job error = %v, expected ErrNotFound", err)
	}
}

func TestCreateJobChecksReferences(t *testing.T) {
	ctx := context.Background()
	vehicle := 10
	otherVehicle := 99
	activeTech := 100
	inactiveTech := 101

	tests := []struct {
		name    string
		req     models.CreateJobRequest
		wantErr error
	}{
		{name: "valid", req: models.CreateJobRequest{CustomerID: 1, Title: "Oil change", VehicleID: &vehicle, AssignedTo: &activeTech}},
		{name: "missing title", req: models.CreateJobRequest{CustomerID: 1}, wantErr: ErrValidation},
		{name: "unknown customer", req: models.CreateJobRequest{CustomerID: 5, Title: "x"}, wantErr: ErrNotFound},
		{name: "vehicle of another customer", req: models.CreateJobRequest{CustomerID: 2, Title: "x", VehicleID: &vehicle}, wantErr: ErrValidation},
		{name: "unknown vehicle", req: models.CreateJobRequest{CustomerID: 1, Title: "x", VehicleID: &otherVehicle}, wantErr: ErrNotFound},
		{name: "inactive technician", req: models.CreateJobRequest{CustomerID: 1, Title: "x", AssignedTo: &inactiveTech}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestJobService(newFakeJobRepo())
			job, err := service.CreateJob(ctx, &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateJob() error = %v, expected %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateJob() unexpected error: %v", err)
			}
			if job.Status != models.JobStatusNotStarted {
				t.Errorf("Status = %s, expected not_started", job.Status)
			}
		})
	}
}

func TestLineItemsAndTotals(t *testing.T) {
	jobs := newFakeJobRepo(&models.Job{ID: 1, CustomerID: 1, Title: "Brakes", Status: models.JobStatusInProgress})
	service := newTestJobService(jobs)
	ctx := context.Background()

	labor, err := service.AddLineItem(ctx, &models.CreateLineItemRequest{
		JobID: 1, Kind: models.LineItemLabor, Description: "Replace pads", Quantity: 1.5, UnitPriceCents: 12000,
	})
	if err != nil {
		t.Fatalf("AddLineItem(labor): %v", err)
	}
	if _, err := service.AddLineItem(ctx, &models.CreateLineItemRequest{
		JobID: 1, Kind: models.LineItemPart, Description: "Pads", Quantity: 2, UnitPriceCents: 4599,
	}); err != nil {
		t.Fatalf("AddLineItem(part): %v", err)
	}

	job, err := service.GetJob(ctx, 1)
	if err != nil {
		t.Fatalf("GetJob(): %v", err)
	}
	if len(job.LineItems) != 2 {
		t.Fatalf("len(LineItems) = %d, expected 2", len(job.LineItems))
	}
	if job.TotalCents != 18000+9198 {
		t.Errorf("TotalCents = %d, expected %d", job.TotalCents, 18000+9198)
	}

	qty := 2.0
	updated, err := service.UpdateLineItem(ctx, labor.ID, &models.UpdateLineItemRequest{Quantity: &qty})
	if err != nil {
		t.Fatalf("UpdateLineItem(): %v", err)
	}
	if updated.Description != "Replace pads" || updated.UnitPriceCents != 12000 {
		t.Errorf("omitted fields changed: %+v", updated)
	}

	if _, err := service.AddLineItem(ctx, &models.CreateLineItemRequest{
		JobID: 1, Kind: "discount", Description: "x", Quantity: 1,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad kind error = %v, expected ErrValidation", err)
	}

	jobs.jobs[1].Status = models.JobStatusCancelled
	if err := service.DeleteLineItem(ctx, labor.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("delete on cancelled job error = %v, expected ErrValidation", err)
	}
}
