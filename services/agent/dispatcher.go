package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/logging"
	"github.com/tomdro61/shop-pilot-sub000/models"
	"github.com/tomdro61/shop-pilot-sub000/services"

	"github.com/samber/lo"
)

type CustomerStore interface {
	SearchCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error)
	GetCustomerByID(ctx context.Context, id int) (*models.Customer, error)
	CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int) error
}

type VehicleStore interface {
	ListVehicles(ctx context.Context, customerID int) ([]*models.Vehicle, error)
	GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, req *models.CreateVehicleRequest) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int, req *models.UpdateVehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int) error
}

type JobStore interface {
	ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.Job, error)
	GetJob(ctx context.Context, id int) (*models.Job, error)
	CreateJob(ctx context.Context, req *models.CreateJobRequest) (*models.Job, error)
	UpdateJob(ctx context.Context, id int, req *models.UpdateJobRequest) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id int, status models.JobStatus) (*models.Job, error)
	DeleteJob(ctx context.Context, id int) error

	AddLineItem(ctx context.Context, req *models.CreateLineItemRequest) (*models.LineItem, error)
	GetLineItem(ctx context.Context, id int) (*models.LineItem, error)
	UpdateLineItem(ctx context.Context, id int, req *models.UpdateLineItemRequest) (*models.LineItem, error)
	DeleteLineItem(ctx context.Context, id int) error
}

type EstimateStore interface {
	CreateEstimate(ctx context.Context, req *models.CreateEstimateRequest) (*models.Estimate, error)
	GetEstimate(ctx context.Context, id int) (*models.Estimate, error)
	SendEstimate(ctx context.Context, id int) (*models.Estimate, error)
	UpdateEstimateStatus(ctx context.Context, id int, status models.EstimateStatus) (*models.Estimate, error)
}

type InvoiceStore interface {
	CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (*models.Invoice, error)
}

type TeamStore interface {
	ListTeamMembers(ctx context.Context, role string) ([]*models.TeamMember, error)
}

type ReportStore interface {
	Report(ctx context.Context, kind models.ReportKind, dr models.DateRange, limit int) (any, error)
}

// Stores groups the data collaborators the tools act on.
type Stores struct {
	Customers CustomerStore
	Vehicles  VehicleStore
	Jobs      JobStore
	Estimates EstimateStore
	Invoices  InvoiceStore
	Team      TeamStore
	Reports   ReportStore
}

const defaultReportDays = 30

type toolHandler func(ctx context.Context, input map[string]any) (any, error)

// Dispatcher executes tool calls by name. It holds no per-call state and is
// safe for concurrent use.
type Dispatcher struct {
	stores   Stores
	shop     models.ShopProfile
	loc      *time.Location
	now      func() time.Time
	handlers map[string]toolHandler
}

// NewDispatcher fails unless every registered tool has a handler and every
// handler has a registered tool.
func NewDispatcher(stores Stores, shop models.ShopProfile) (*Dispatcher, error) {
	loc := time.UTC
	if shop.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(shop.Timezone); err != nil {
			return nil, fmt.Errorf("invalid shop timezone %q: %w", shop.Timezone, err)
		}
	}

	d := &Dispatcher{stores: stores, shop: shop, loc: loc, now: time.Now}
	d.handlers = map[string]toolHandler{
		"search_customers": d.searchCustomers,
		"get_customer":     d.getCustomer,
		"create_customer":  d.createCustomer,
		"update_customer":  d.updateCustomer,
		"delete_customer":  d.deleteCustomer,

		"list_vehicles":  d.listVehicles,
		"create_vehicle": d.createVehicle,
		"update_vehicle": d.updateVehicle,
		"delete_vehicle": d.deleteVehicle,

		"list_jobs":         d.listJobs,
		"get_job":           d.getJob,
		"create_job":        d.createJob,
		"update_job":        d.updateJob,
		"update_job_status": d.updateJobStatus,
		"delete_job":        d.deleteJob,

		"add_line_item":    d.addLineItem,
		"update_line_item": d.updateLineItem,
		"delete_line_item": d.deleteLineItem,

		"create_estimate":        d.createEstimate,
		"get_estimate":           d.getEstimate,
		"send_estimate":          d.sendEstimate,
		"update_estimate_status": d.updateEstimateStatus,

		"create_invoice": d.createInvoice,

		"list_team_members": d.listTeamMembers,
		"get_report":        d.getReport,
		"get_current_time":  d.getCurrentTime,
	}

	handled := lo.Keys(d.handlers)
	if missing := lo.Without(Names(), handled...); len(missing) > 0 {
		return nil, fmt.Errorf("tools without handlers: %v", missing)
	}
	if extra := lo.Without(handled, Names()...); len(extra) > 0 {
		slices.Sort(extra)
		return nil, fmt.Errorf("handlers without registered tools: %v", extra)
	}

	return d, nil
}

// Execute runs one tool call and returns its JSON result. Failures of any kind,
// including panics in a collaborator, come back as {"error": "..."}.
func (d *Dispatcher) Execute(ctx context.Context, name string, input map[string]any) (result string) {
	logger := logging.FromContext(ctx).With("tool", name)

	handler, ok := d.handlers[name]
	if !ok {
		logger.Warn("unknown tool requested")
		return errorResult("Unknown tool: " + name)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tool panicked", "panic", r)
			result = errorResult(fmt.Sprintf("%s failed: %v", name, r))
		}
	}()

	value, err := handler(ctx, input)
	if err != nil {
		logger.Warn("tool failed", "error", err, "duration", time.Since(start))
		return errorResult(err.Error())
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Error("tool result not serializable", "error", err)
		return errorResult(fmt.Sprintf("failed to encode %s result: %v", name, err))
	}

	logger.Info("tool executed", "duration", time.Since(start))
	return string(data)
}

func errorResult(message string) string {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"unexpected error"}`
	}
	return string(data)
}

// IsErrorResult reports whether a tool result encodes a failure.
func IsErrorResult(result string) bool {
	var decoded struct {
		Error *string `json:"error"`
	}
	return json.Unmarshal([]byte(result), &decoded) == nil && decoded.Error != nil
}

func notFound(entity string, id int, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return fmt.Errorf("%s %d not found", entity, id)
	}
	return err
}

func deleted(entity string, id int) map[string]any {
	return map[string]any{"success": true, "deleted": entity, "id": id}
}

func (d *Dispatcher) searchCustomers(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[searchCustomersArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	customers, err := d.stores.Customers.SearchCustomers(ctx, args.Query, args.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"customers": customers, "count": len(customers)}, nil
}

func (d *Dispatcher) getCustomer(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[customerIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	customer, err := d.stores.Customers.GetCustomerByID(ctx, args.CustomerID)
	if err != nil {
		return nil, notFound("customer", args.CustomerID, err)
	}
	vehicles, err := d.stores.Vehicles.ListVehicles(ctx, args.CustomerID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"customer": customer, "vehicles": vehicles}, nil
}

func (d *Dispatcher) createCustomer(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[createCustomerArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	return d.stores.Customers.CreateCustomer(ctx, &models.CreateCustomerRequest{
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Email:     args.Email,
		Phone:     args.Phone,
		Address:   args.Address,
		Notes:     args.Notes,
	})
}

func (d *Dispatcher) updateCustomer(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateCustomerArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if _, err := d.stores.Customers.GetCustomerByID(ctx, args.CustomerID); err != nil {
		return nil, notFound("customer", args.CustomerID, err)
	}
	return d.stores.Customers.UpdateCustomer(ctx, args.CustomerID, &models.UpdateCustomerRequest{
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Email:     args.Email,
		Phone:     args.Phone,
		Address:   args.Address,
		Notes:     args.Notes,
	})
}

func (d *Dispatcher) deleteCustomer(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[customerIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if err := d.stores.Customers.DeleteCustomer(ctx, args.CustomerID); err != nil {
		return nil, notFound("customer", args.CustomerID, err)
	}
	return deleted("customer", args.CustomerID), nil
}

func (d *Dispatcher) listVehicles(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[customerIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	vehicles, err := d.stores.Vehicles.ListVehicles(ctx, args.CustomerID)
	if err != nil {
		return nil, notFound("customer", args.CustomerID, err)
	}
	return map[string]any{"vehicles": vehicles, "count": len(vehicles)}, nil
}

func (d *Dispatcher) createVehicle(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[createVehicleArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	vehicle, err := d.stores.Vehicles.CreateVehicle(ctx, &models.CreateVehicleRequest{
		CustomerID:   args.CustomerID,
		Year:         args.Year,
		Make:         args.Make,
		Model:        args.Model,
		VIN:          args.VIN,
		LicensePlate: args.LicensePlate,
		Color:        args.Color,
		Mileage:      args.Mileage,
	})
	if err != nil {
		return nil, notFound("customer", args.CustomerID, err)
	}
	return vehicle, nil
}

func (d *Dispatcher) updateVehicle(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateVehicleArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if _, err := d.stores.Vehicles.GetVehicleByID(ctx, args.VehicleID); err != nil {
		return nil, notFound("vehicle", args.VehicleID, err)
	}
	return d.stores.Vehicles.UpdateVehicle(ctx, args.VehicleID, &models.UpdateVehicleRequest{
		Year:         args.Year,
		Make:         args.Make,
		Model:        args.Model,
		VIN:          args.VIN,
		LicensePlate: args.LicensePlate,
		Color:        args.Color,
		Mileage:      args.Mileage,
	})
}

func (d *Dispatcher) deleteVehicle(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[vehicleIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if err := d.stores.Vehicles.DeleteVehicle(ctx, args.VehicleID); err != nil {
		return nil, notFound("vehicle", args.VehicleID, err)
	}
	return deleted("vehicle", args.VehicleID), nil
}

func (d *Dispatcher) listJobs(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[listJobsArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	jobs, err := d.stores.Jobs.ListJobs(ctx, models.JobFilter{
		Status:     models.JobStatus(args.Status),
		CustomerID: args.CustomerID,
		OpenOnly:   args.OpenOnly,
		Limit:      args.Limit,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"jobs": jobs, "count": len(jobs)}, nil
}

func (d *Dispatcher) getJob(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[jobIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	job, err := d.stores.Jobs.GetJob(ctx, args.JobID)
	if err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return job, nil
}

func (d *Dispatcher) createJob(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[createJobArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	return d.stores.Jobs.CreateJob(ctx, &models.CreateJobRequest{
		CustomerID:  args.CustomerID,
		VehicleID:   args.VehicleID,
		Title:       args.Title,
		Description: args.Description,
		AssignedTo:  args.AssignedTo,
		DueDate:     args.DueDate,
	})
}

func (d *Dispatcher) updateJob(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateJobArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if _, err := d.stores.Jobs.GetJob(ctx, args.JobID); err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return d.stores.Jobs.UpdateJob(ctx, args.JobID, &models.UpdateJobRequest{
		VehicleID:   args.VehicleID,
		Title:       args.Title,
		Description: args.Description,
		AssignedTo:  args.AssignedTo,
		DueDate:     args.DueDate,
	})
}

func (d *Dispatcher) updateJobStatus(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateJobStatusArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	job, err := d.stores.Jobs.UpdateJobStatus(ctx, args.JobID, models.JobStatus(args.Status))
	if err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return job, nil
}

func (d *Dispatcher) deleteJob(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[jobIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if err := d.stores.Jobs.DeleteJob(ctx, args.JobID); err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return deleted("job", args.JobID), nil
}

func (d *Dispatcher) addLineItem(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[addLineItemArgs](input, d.loc)
	if err != nil {
		return nil, err
	}

	var unitPriceCents int64
	switch {
	case args.UnitPrice != nil:
		unitPriceCents = dollarsToCents(*args.UnitPrice)
	case args.Kind == string(models.LineItemLabor):
		unitPriceCents = d.shop.LaborRateCents
	default:
		return nil, &ArgumentError{Fields: []FieldError{{Field: "unit_price", Message: "is required for " + args.Kind + " lines"}}}
	}

	item, err := d.stores.Jobs.AddLineItem(ctx, &models.CreateLineItemRequest{
		JobID:          args.JobID,
		Kind:           models.LineItemKind(args.Kind),
		Description:    args.Description,
		Quantity:       args.Quantity,
		UnitPriceCents: unitPriceCents,
	})
	if err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return item, nil
}

func (d *Dispatcher) updateLineItem(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateLineItemArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if _, err := d.stores.Jobs.GetLineItem(ctx, args.LineItemID); err != nil {
		return nil, notFound("line item", args.LineItemID, err)
	}

	req := &models.UpdateLineItemRequest{
		Description: args.Description,
		Quantity:    args.Quantity,
	}
	if args.Kind != nil {
		kind := models.LineItemKind(*args.Kind)
		req.Kind = &kind
	}
	if args.UnitPrice != nil {
		cents := dollarsToCents(*args.UnitPrice)
		req.UnitPriceCents = &cents
	}
	return d.stores.Jobs.UpdateLineItem(ctx, args.LineItemID, req)
}

func (d *Dispatcher) deleteLineItem(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[lineItemIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if err := d.stores.Jobs.DeleteLineItem(ctx, args.LineItemID); err != nil {
		return nil, notFound("line item", args.LineItemID, err)
	}
	return deleted("line_item", args.LineItemID), nil
}

func (d *Dispatcher) createEstimate(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[createEstimateArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	estimate, err := d.stores.Estimates.CreateEstimate(ctx, &models.CreateEstimateRequest{
		JobID:     args.JobID,
		Notes:     args.Notes,
		ValidDays: args.ValidDays,
	})
	if err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return estimate, nil
}

func (d *Dispatcher) getEstimate(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[estimateIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	estimate, err := d.stores.Estimates.GetEstimate(ctx, args.EstimateID)
	if err != nil {
		return nil, notFound("estimate", args.EstimateID, err)
	}
	return estimate, nil
}

func (d *Dispatcher) sendEstimate(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[estimateIDArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	estimate, err := d.stores.Estimates.SendEstimate(ctx, args.EstimateID)
	if err != nil {
		return nil, notFound("estimate", args.EstimateID, err)
	}
	return estimate, nil
}

func (d *Dispatcher) updateEstimateStatus(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[updateEstimateStatusArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	if _, err := d.stores.Estimates.GetEstimate(ctx, args.EstimateID); err != nil {
		return nil, notFound("estimate", args.EstimateID, err)
	}
	return d.stores.Estimates.UpdateEstimateStatus(ctx, args.EstimateID, models.EstimateStatus(args.Status))
}

func (d *Dispatcher) createInvoice(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[createInvoiceArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	invoice, err := d.stores.Invoices.CreateInvoice(ctx, &models.CreateInvoiceRequest{
		JobID:   args.JobID,
		Notes:   args.Notes,
		DueDays: args.DueDays,
	})
	if err != nil {
		return nil, notFound("job", args.JobID, err)
	}
	return invoice, nil
}

func (d *Dispatcher) listTeamMembers(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[listTeamMembersArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	members, err := d.stores.Team.ListTeamMembers(ctx, args.Role)
	if err != nil {
		return nil, err
	}
	return map[string]any{"team_members": members, "count": len(members)}, nil
}

func (d *Dispatcher) getReport(ctx context.Context, input map[string]any) (any, error) {
	args, err := parseArgs[getReportArgs](input, d.loc)
	if err != nil {
		return nil, err
	}
	return d.stores.Reports.Report(ctx, models.ReportKind(args.ReportType), d.reportRange(args.StartDate, args.EndDate), args.Limit)
}

// reportRange turns inclusive calendar days into a half-open range. Missing
// bounds default to the last defaultReportDays days ending today.
func (d *Dispatcher) reportRange(start, end *time.Time) models.DateRange {
	today := startOfDay(d.now().In(d.loc))

	endExclusive := today.AddDate(0, 0, 1)
	if end != nil {
		endExclusive = startOfDay(end.In(d.loc)).AddDate(0, 0, 1)
	}

	startInclusive := endExclusive.AddDate(0, 0, -defaultReportDays)
	if start != nil {
		startInclusive = startOfDay(start.In(d.loc))
	}

	return models.DateRange{Start: startInclusive, End: endExclusive}
}

func (d *Dispatcher) getCurrentTime(_ context.Context, input map[string]any) (any, error) {
	if _, err := parseArgs[getCurrentTimeArgs](input, d.loc); err != nil {
		return nil, err
	}
	now := d.now().In(d.loc)
	return map[string]string{
		"now":      now.Format(time.RFC3339),
		"date":     now.Format("2006-01-02"),
		"weekday":  now.Weekday().String(),
		"timezone": d.loc.String(),
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

func dollarsToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
