package agent

import (
	"time"
)

// Each tool's input is declared once as a struct: the registry reflects its
// JSON schema from the tags and the dispatcher fills it through bind.

type argBinder[T any] interface {
	*T
	bind(a *argReader)
}

// parseArgs coerces input into T, reporting every invalid field at once.
func parseArgs[T any, P argBinder[T]](input map[string]any, loc *time.Location) (T, error) {
	var args T
	reader := newArgReader(input, loc)
	P(&args).bind(reader)
	return args, reader.Err()
}

var (
	jobStatusValues      = []string{"not_started", "in_progress", "waiting_for_parts", "complete", "cancelled"}
	lineItemKindValues   = []string{"labor", "part", "fee"}
	estimateStatusValues = []string{"sent", "approved", "declined"}
	reportTypeValues     = []string{"revenue", "jobs_by_status", "top_customers"}
)

type searchCustomersArgs struct {
	Query string `json:"query" jsonschema:"description=Name or email or phone fragment to search for"`
	Limit int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=50,description=Maximum number of matches (default 10)"`
}

func (p *searchCustomersArgs) bind(a *argReader) {
	p.Query = a.String("query")
	p.Limit = a.IntDefault("limit", 10)
}

type customerIDArgs struct {
	CustomerID int `json:"customer_id" jsonschema:"description=The customer's ID"`
}

func (p *customerIDArgs) bind(a *argReader) {
	p.CustomerID = a.Int("customer_id")
}

type createCustomerArgs struct {
	FirstName string `json:"first_name" jsonschema:"description=Customer first name"`
	LastName  string `json:"last_name,omitempty" jsonschema:"description=Customer last name"`
	Email     string `json:"email,omitempty" jsonschema:"description=Email address"`
	Phone     string `json:"phone,omitempty" jsonschema:"description=Phone number"`
	Address   string `json:"address,omitempty" jsonschema:"description=Street address"`
	Notes     string `json:"notes,omitempty" jsonschema:"description=Free-form notes about the customer"`
}

func (p *createCustomerArgs) bind(a *argReader) {
	p.FirstName = a.String("first_name")
	p.LastName = a.StringDefault("last_name", "")
	p.Email = a.StringDefault("email", "")
	p.Phone = a.StringDefault("phone", "")
	p.Address = a.StringDefault("address", "")
	p.Notes = a.StringDefault("notes", "")
}

type updateCustomerArgs struct {
	CustomerID int     `json:"customer_id" jsonschema:"description=The ID of the customer to update"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (p *updateCustomerArgs) bind(a *argReader) {
	p.CustomerID = a.Int("customer_id")
	p.FirstName = a.OptString("first_name")
	p.LastName = a.OptString("last_name")
	p.Email = a.OptString("email")
	p.Phone = a.OptString("phone")
	p.Address = a.OptString("address")
	p.Notes = a.OptString("notes")
}

type createVehicleArgs struct {
	CustomerID   int    `json:"customer_id" jsonschema:"description=Owner's customer ID"`
	Year         int    `json:"year,omitempty" jsonschema:"description=Model year"`
	Make         string `json:"make" jsonschema:"description=Manufacturer such as Toyota"`
	Model        string `json:"model" jsonschema:"description=Model name such as Camry"`
	VIN          string `json:"vin,omitempty" jsonschema:"description=17 character vehicle identification number"`
	LicensePlate string `json:"license_plate,omitempty"`
	Color        string `json:"color,omitempty"`
	Mileage      int    `json:"mileage,omitempty" jsonschema:"description=Odometer reading in miles"`
}

func (p *createVehicleArgs) bind(a *argReader) {
	p.CustomerID = a.Int("customer_id")
	p.Year = a.IntDefault("year", 0)
	p.Make = a.String("make")
	p.Model = a.String("model")
	p.VIN = a.StringDefault("vin", "")
	p.LicensePlate = a.StringDefault("license_plate", "")
	p.Color = a.StringDefault("color", "")
	p.Mileage = a.IntDefault("mileage", 0)
}

type vehicleIDArgs struct {
	VehicleID int `json:"vehicle_id" jsonschema:"description=The vehicle's ID"`
}

func (p *vehicleIDArgs) bind(a *argReader) {
	p.VehicleID = a.Int("vehicle_id")
}

type updateVehicleArgs struct {
	VehicleID    int     `json:"vehicle_id" jsonschema:"description=The ID of the vehicle to update"`
	Year         *int    `json:"year,omitempty"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	VIN          *string `json:"vin,omitempty"`
	LicensePlate *string `json:"license_plate,omitempty"`
	Color        *string `json:"color,omitempty"`
	Mileage      *int    `json:"mileage,omitempty"`
}

func (p *updateVehicleArgs) bind(a *argReader) {
	p.VehicleID = a.Int("vehicle_id")
	p.Year = a.OptInt("year")
	p.Make = a.OptString("make")
	p.Model = a.OptString("model")
	p.VIN = a.OptString("vin")
	p.LicensePlate = a.OptString("license_plate")
	p.Color = a.OptString("color")
	p.Mileage = a.OptInt("mileage")
}

type listJobsArgs struct {
	Status     string `json:"status,omitempty" jsonschema:"enum=not_started,enum=in_progress,enum=waiting_for_parts,enum=complete,enum=cancelled"`
	CustomerID int    `json:"customer_id,omitempty" jsonschema:"description=Only jobs for this customer"`
	OpenOnly   bool   `json:"open_only,omitempty" jsonschema:"description=Exclude complete and cancelled jobs"`
	Limit      int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100,description=Maximum number of jobs (default 25)"`
}

func (p *listJobsArgs) bind(a *argReader) {
	if status := a.OptEnum("status", jobStatusValues...); status != nil {
		p.Status = *status
	}
	p.CustomerID = a.IntDefault("customer_id", 0)
	p.OpenOnly = a.Bool("open_only", false)
	p.Limit = a.IntDefault("limit", 25)
}

type jobIDArgs struct {
	JobID int `json:"job_id" jsonschema:"description=The job's ID"`
}

func (p *jobIDArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
}

type createJobArgs struct {
	CustomerID  int        `json:"customer_id" jsonschema:"description=Customer the work is for"`
	VehicleID   *int       `json:"vehicle_id,omitempty" jsonschema:"description=Vehicle being worked on"`
	Title       string     `json:"title" jsonschema:"description=Short summary such as Front brake pads"`
	Description string     `json:"description,omitempty"`
	AssignedTo  *int       `json:"assigned_to,omitempty" jsonschema:"description=Team member ID of the technician"`
	DueDate     *time.Time `json:"due_date,omitempty" jsonschema:"format=date,description=Due date as YYYY-MM-DD"`
}

func (p *createJobArgs) bind(a *argReader) {
	p.CustomerID = a.Int("customer_id")
	p.VehicleID = a.OptInt("vehicle_id")
	p.Title = a.String("title")
	p.Description = a.StringDefault("description", "")
	p.AssignedTo = a.OptInt("assigned_to")
	p.DueDate = a.OptDate("due_date")
}

type updateJobArgs struct {
	JobID       int        `json:"job_id" jsonschema:"description=The ID of the job to update"`
	VehicleID   *int       `json:"vehicle_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssignedTo  *int       `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" jsonschema:"format=date"`
}

func (p *updateJobArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
	p.VehicleID = a.OptInt("vehicle_id")
	p.Title = a.OptString("title")
	p.Description = a.OptString("description")
	p.AssignedTo = a.OptInt("assigned_to")
	p.DueDate = a.OptDate("due_date")
}

type updateJobStatusArgs struct {
	JobID  int    `json:"job_id"`
	Status string `json:"status" jsonschema:"enum=not_started,enum=in_progress,enum=waiting_for_parts,enum=complete,enum=cancelled"`
}

func (p *updateJobStatusArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
	p.Status = a.Enum("status", jobStatusValues...)
}

type addLineItemArgs struct {
	JobID       int      `json:"job_id"`
	Kind        string   `json:"kind" jsonschema:"enum=labor,enum=part,enum=fee"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity,omitempty" jsonschema:"description=Hours for labor or units for parts (default 1)"`
	UnitPrice   *float64 `json:"unit_price,omitempty" jsonschema:"description=Price per unit in dollars; labor defaults to the shop rate"`
}

func (p *addLineItemArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
	p.Kind = a.Enum("kind", lineItemKindValues...)
	p.Description = a.String("description")
	p.Quantity = a.FloatDefault("quantity", 1)
	p.UnitPrice = a.OptFloat("unit_price")
}

type lineItemIDArgs struct {
	LineItemID int `json:"line_item_id"`
}

func (p *lineItemIDArgs) bind(a *argReader) {
	p.LineItemID = a.Int("line_item_id")
}

type updateLineItemArgs struct {
	LineItemID  int      `json:"line_item_id"`
	Kind        *string  `json:"kind,omitempty" jsonschema:"enum=labor,enum=part,enum=fee"`
	Description *string  `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty" jsonschema:"description=Price per unit in dollars"`
}

func (p *updateLineItemArgs) bind(a *argReader) {
	p.LineItemID = a.Int("line_item_id")
	p.Kind = a.OptEnum("kind", lineItemKindValues...)
	p.Description = a.OptString("description")
	p.Quantity = a.OptFloat("quantity")
	p.UnitPrice = a.OptFloat("unit_price")
}

type createEstimateArgs struct {
	JobID     int    `json:"job_id" jsonschema:"description=Job whose line items are estimated"`
	Notes     string `json:"notes,omitempty"`
	ValidDays int    `json:"valid_days,omitempty" jsonschema:"description=Days the estimate stays valid (default from shop settings)"`
}

func (p *createEstimateArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
	p.Notes = a.StringDefault("notes", "")
	p.ValidDays = a.IntDefault("valid_days", 0)
}

type estimateIDArgs struct {
	EstimateID int `json:"estimate_id"`
}

func (p *estimateIDArgs) bind(a *argReader) {
	p.EstimateID = a.Int("estimate_id")
}

type updateEstimateStatusArgs struct {
	EstimateID int    `json:"estimate_id"`
	Status     string `json:"status" jsonschema:"enum=sent,enum=approved,enum=declined"`
}

func (p *updateEstimateStatusArgs) bind(a *argReader) {
	p.EstimateID = a.Int("estimate_id")
	p.Status = a.Enum("status", estimateStatusValues...)
}

type createInvoiceArgs struct {
	JobID   int    `json:"job_id" jsonschema:"description=Job to bill"`
	Notes   string `json:"notes,omitempty"`
	DueDays int    `json:"due_days,omitempty" jsonschema:"description=Days until payment is due (default from shop settings)"`
}

func (p *createInvoiceArgs) bind(a *argReader) {
	p.JobID = a.Int("job_id")
	p.Notes = a.StringDefault("notes", "")
	p.DueDays = a.IntDefault("due_days", 0)
}

type listTeamMembersArgs struct {
	Role string `json:"role,omitempty" jsonschema:"description=Only members with this role such as technician"`
}

func (p *listTeamMembersArgs) bind(a *argReader) {
	p.Role = a.StringDefault("role", "")
}

type getReportArgs struct {
	ReportType string     `json:"report_type" jsonschema:"enum=revenue,enum=jobs_by_status,enum=top_customers"`
	StartDate  *time.Time `json:"start_date,omitempty" jsonschema:"format=date,description=First day included (default 30 days ago)"`
	EndDate    *time.Time `json:"end_date,omitempty" jsonschema:"format=date,description=Last day included (default today)"`
	Limit      int        `json:"limit,omitempty" jsonschema:"description=Number of customers for top_customers (default 5)"`
}

func (p *getReportArgs) bind(a *argReader) {
	p.ReportType = a.Enum("report_type", reportTypeValues...)
	p.StartDate = a.OptDate("start_date")
	p.EndDate = a.OptDate("end_date")
	p.Limit = a.IntDefault("limit", 0)
}

type getCurrentTimeArgs struct{}

func (p *getCurrentTimeArgs) bind(*argReader) {}
