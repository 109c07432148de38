package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomdro61/shop-pilot-sub000/models"
	"github.com/tomdro61/shop-pilot-sub000/services"
)

// Store fakes embed their interface; calling a method a fake does not
// implement panics, which the dispatcher must contain.

type fakeCustomers struct {
	CustomerStore
	mu        sync.Mutex
	customers map[int]*models.Customer
	nextID    int
}

func newFakeCustomers(customers ...models.Customer) *fakeCustomers {
	f := &fakeCustomers{customers: map[int]*models.Customer{}, nextID: 100}
	for i := range customers {
		c := customers[i]
		f.customers[c.ID] = &c
	}
	return f
}

func (f *fakeCustomers) missing(id int) error {
	return fmt.Errorf("customer with id %d not found: %w", id, services.ErrNotFound)
}

func (f *fakeCustomers) GetCustomerByID(_ context.Context, id int) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, f.missing(id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCustomers) SearchCustomers(_ context.Context, query string, limit int) ([]*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Customer
	for _, c := range f.customers {
		if c.LastName == query || c.FirstName == query {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCustomers) CreateCustomer(_ context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := &models.Customer{ID: f.nextID, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, Phone: req.Phone}
	f.customers[c.ID] = c
	copied := *c
	return &copied, nil
}

func (f *fakeCustomers) UpdateCustomer(_ context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, f.missing(id)
	}
	req.ApplyTo(c)
	copied := *c
	return &copied, nil
}

type fakeVehicles struct {
	VehicleStore
	vehicles []*models.Vehicle
}

func (f *fakeVehicles) ListVehicles(_ context.Context, customerID int) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		if v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeJobs struct {
	JobStore
	mu        sync.Mutex
	jobs      map[int]*models.Job
	lineItems []*models.CreateLineItemRequest
	statuses  []models.JobStatus
}

func (f *fakeJobs) GetJob(_ context.Context, id int) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job with id %d not found: %w", id, services.ErrNotFound)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) CreateJob(_ context.Context, req *models.CreateJobRequest) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &models.Job{ID: len(f.jobs) + 1, CustomerID: req.CustomerID, Title: req.Title, Status: models.JobStatusNotStarted}
	f.jobs[job.ID] = job
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) UpdateJobStatus(_ context.Context, id int, status models.JobStatus) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job with id %d not found: %w", id, services.ErrNotFound)
	}
	f.statuses = append(f.statuses, status)
	job.Status = status
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) AddLineItem(_ context.Context, req *models.CreateLineItemRequest) (*models.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[req.JobID]; !ok {
		return nil, fmt.Errorf("job with id %d not found: %w", req.JobID, services.ErrNotFound)
	}
	f.lineItems = append(f.lineItems, req)
	return &models.LineItem{
		ID:             len(f.lineItems),
		JobID:          req.JobID,
		Kind:           req.Kind,
		Description:    req.Description,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	}, nil
}

type fakeReports struct {
	ReportStore
	kind   models.ReportKind
	ranges []models.DateRange
}

func (f *fakeReports) Report(_ context.Context, kind models.ReportKind, dr models.DateRange, limit int) (any, error) {
	f.kind = kind
	f.ranges = append(f.ranges, dr)
	return map[string]any{"report": string(kind), "limit": limit}, nil
}
