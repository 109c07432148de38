package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

func missing(entity string, id int) error {
	return fmt.Errorf("%s with id %d %w", entity, id, ErrNotFound)
}

type fakeCustomerRepo struct {
	customers map[int]*models.Customer
	nextID    int
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[int]*models.Customer{}, nextID: 1}
	for _, c := range customers {
		r.customers[c.ID] = c
		r.nextID = max(r.nextID, c.ID+1)
	}
	return r
}

func (r *fakeCustomerRepo) CreateCustomer(_ context.Context, c *models.Customer) error {
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	copied := *c
	r.customers[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) GetCustomerByID(_ context.Context, id int) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, missing("customer", id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) GetAllCustomers(_ context.Context) ([]*models.Customer, error) {
	out := make([]*models.Customer, 0, len(r.customers))
	for id := 1; id < r.nextID; id++ {
		if c, ok := r.customers[id]; ok {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ context.Context, c *models.Customer) error {
	if _, ok := r.customers[c.ID]; !ok {
		return missing("customer", c.ID)
	}
	copied := *c
	r.customers[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) DeleteCustomer(_ context.Context, id int) error {
	if _, ok := r.customers[id]; !ok {
		return missing("customer", id)
	}
	delete(r.customers, id)
	return nil
}

type fakeJobRepo struct {
	jobs     map[int]*models.Job
	items    map[int]*models.LineItem
	nextJob  int
	nextItem int
}

func newFakeJobRepo(jobs ...*models.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: map[int]*models.Job{}, items: map[int]*models.LineItem{}, nextJob: 1, nextItem: 1}
	for _, j := range jobs {
		r.jobs[j.ID] = j
		r.nextJob = max(r.nextJob, j.ID+1)
	}
	return r
}

func (r *fakeJobRepo) CreateJob(_ context.Context, j *models.Job) error {
	j.ID = r.nextJob
	r.nextJob++
	copied := *j
	r.jobs[j.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetJobByID(_ context.Context, id int) (*models.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, missing("job", id)
	}
	copied := *j
	return &copied, nil
}

func (r *fakeJobRepo) ListJobs(_ context.Context, filter models.JobFilter) ([]*models.Job, error) {
	var out []*models.Job
	for id := 1; id < r.nextJob; id++ {
		j, ok := r.jobs[id]
		if !ok {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.CustomerID > 0 && j.CustomerID != filter.CustomerID {
			continue
		}
		if filter.OpenOnly && !j.Status.IsOpen() {
			continue
		}
		copied := *j
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateJob(_ context.Context, j *models.Job) error {
	if _, ok := r.jobs[j.ID]; !ok {
		return missing("job", j.ID)
	}
	copied := *j
	r.jobs[j.ID] = &copied
	return nil
}

func (r *fakeJobRepo) DeleteJob(_ context.Context, id int) error {
	if _, ok := r.jobs[id]; !ok {
		return missing("job", id)
	}
	delete(r.jobs, id)
	return nil
}

func (r *fakeJobRepo) CountOpenJobsForCustomer(_ context.Context, customerID int) (int, error) {
	count := 0
	for _, j := range r.jobs {
		if j.CustomerID == customerID && j.Status.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (r *fakeJobRepo) CreateLineItem(_ context.Context, li *models.LineItem) error {
	li.ID = r.nextItem
	r.nextItem++
	copied := *li
	r.items[li.ID] = &copied
	return nil
}

func (r *fakeJobRepo) GetLineItemByID(_ context.Context, id int) (*models.LineItem, error) {
	li, ok := r.items[id]
	if !ok {
		return nil, missing("line item", id)
	}
	copied := *li
	return &copied, nil
}

func (r *fakeJobRepo) GetLineItemsByJob(_ context.Context, jobID int) ([]models.LineItem, error) {
	out := []models.LineItem{}
	for id := 1; id < r.nextItem; id++ {
		if li, ok := r.items[id]; ok && li.JobID == jobID {
			out = append(out, *li)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateLineItem(_ context.Context, li *models.LineItem) error {
	if _, ok := r.items[li.ID]; !ok {
		return missing("line item", li.ID)
	}
	copied := *li
	r.items[li.ID] = &copied
	return nil
}

func (r *fakeJobRepo) DeleteLineItem(_ context.Context, id int) error {
	if _, ok := r.items[id]; !ok {
		return missing("line item", id)
	}
	delete(r.items, id)
	return nil
}

type fakeVehicleRepo struct {
	vehicles map[int]*models.Vehicle
	nextID   int
}

func newFakeVehicleRepo(vehicles ...*models.Vehicle) *fakeVehicleRepo {
	r := &fakeVehicleRepo{vehicles: map[int]*models.Vehicle{}, nextID: 1}
	for _, v := range vehicles {
		r.vehicles[v.ID] = v
		r.nextID = max(r.nextID, v.ID+1)
	}
	return r
}

func (r *fakeVehicleRepo) CreateVehicle(_ context.Context, v *models.Vehicle) error {
	v.ID = r.nextID
	r.nextID++
	copied := *v
	r.vehicles[v.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) GetVehicleByID(_ context.Context, id int) (*models.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, missing("vehicle", id)
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVehicleRepo) GetVehiclesByCustomer(_ context.Context, customerID int) ([]*models.Vehicle, error) {
	out := []*models.Vehicle{}
	for id := 1; id < r.nextID; id++ {
		if v, ok := r.vehicles[id]; ok && v.CustomerID == customerID {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) UpdateVehicle(_ context.Context, v *models.Vehicle) error {
	if _, ok := r.vehicles[v.ID]; !ok {
		return missing("vehicle", v.ID)
	}
	copied := *v
	r.vehicles[v.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) DeleteVehicle(_ context.Context, id int) error {
	if _, ok := r.vehicles[id]; !ok {
		return missing("vehicle", id)
	}
	delete(r.vehicles, id)
	return nil
}

type fakeTeamRepo struct {
	members []*models.TeamMember
}

func (r *fakeTeamRepo) GetTeamMembers(_ context.Context, role string) ([]*models.TeamMember, error) {
	var out []*models.TeamMember
	for _, m := range r.members {
		if m.Active && (role == "" || m.Role == role) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) GetTeamMemberByID(_ context.Context, id int) (*models.TeamMember, error) {
	for _, m := range r.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, missing("team member", id)
}

type fakeEstimateRepo struct {
	estimates map[int]*models.Estimate
	nextID    int
}

func newFakeEstimateRepo() *fakeEstimateRepo {
	return &fakeEstimateRepo{estimates: map[int]*models.Estimate{}, nextID: 1}
}

func (r *fakeEstimateRepo) CreateEstimate(_ context.Context, e *models.Estimate) error {
	e.ID = r.nextID
	r.nextID++
	copied := *e
	r.estimates[e.ID] = &copied
	return nil
}

func (r *fakeEstimateRepo) GetEstimateByID(_ context.Context, id int) (*models.Estimate, error) {
	e, ok := r.estimates[id]
	if !ok {
		return nil, missing("estimate", id)
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEstimateRepo) UpdateEstimate(_ context.Context, e *models.Estimate) error {
	if _, ok := r.estimates[e.ID]; !ok {
		return missing("estimate", e.ID)
	}
	copied := *e
	r.estimates[e.ID] = &copied
	return nil
}

type fakeInvoiceRepo struct {
	invoices []*models.Invoice
}

func (r *fakeInvoiceRepo) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	inv.ID = len(r.invoices) + 1
	copied := *inv
	r.invoices = append(r.invoices, &copied)
	return nil
}

func (r *fakeInvoiceRepo) GetInvoiceByID(_ context.Context, id int) (*models.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, missing("invoice", id)
}

func (r *fakeInvoiceRepo) GetInvoiceByJob(_ context.Context, jobID int) (*models.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.JobID == jobID {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("invoice for job %d %w", jobID, ErrNotFound)
}

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) EstimateSent(_ context.Context, e *models.Estimate, c *models.Customer) error {
	n.sent = append(n.sent, fmt.Sprintf("%s:%d", e.Number, c.ID))
	return nil
}
