package models

import "time"

type JobStatus string

const (
	JobStatusNotStarted      JobStatus = "not_started"
	JobStatusInProgress      JobStatus = "in_progress"
	JobStatusWaitingForParts JobStatus = "waiting_for_parts"
	JobStatusComplete        JobStatus = "complete"
	JobStatusCancelled       JobStatus = "cancelled"
)

var JobStatuses = []JobStatus{
	JobStatusNotStarted,
	JobStatusInProgress,
	JobStatusWaitingForParts,
	JobStatusComplete,
	JobStatusCancelled,
}

func (s JobStatus) IsOpen() bool {
	return s != JobStatusComplete && s != JobStatusCancelled
}

type Job struct {
	ID          int        `json:"id" db:"id"`
	CustomerID  int        `json:"customer_id" db:"customer_id"`
	VehicleID   *int       `json:"vehicle_id,omitempty" db:"vehicle_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      JobStatus  `json:"status" db:"status"`
	AssignedTo  *int       `json:"assigned_to,omitempty" db:"assigned_to"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LineItems   []LineItem `json:"line_items,omitempty"`
	TotalCents  int64      `json:"total_cents"`
}

type JobFilter struct {
	Status     JobStatus
	CustomerID int
	OpenOnly   bool
	Limit      int
}

type CreateJobRequest struct {
	CustomerID  int        `json:"customer_id"`
	VehicleID   *int       `json:"vehicle_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  *int       `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type UpdateJobRequest struct {
	VehicleID   *int       `json:"vehicle_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssignedTo  *int       `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (r *UpdateJobRequest) IsEmpty() bool {
	return r.VehicleID == nil && r.Title == nil && r.Description == nil &&
		r.AssignedTo == nil && r.DueDate == nil
}

func (r *UpdateJobRequest) ApplyTo(j *Job) {
	if r.VehicleID != nil {
		id := *r.VehicleID
		j.VehicleID = &id
	}
	applyString(&j.Title, r.Title)
	applyString(&j.Description, r.Description)
	if r.AssignedTo != nil {
		id := *r.AssignedTo
		j.AssignedTo = &id
	}
	if r.DueDate != nil {
		due := *r.DueDate
		j.DueDate = &due
	}
}

type LineItemKind string

const (
	LineItemLabor LineItemKind = "labor"
	LineItemPart  LineItemKind = "part"
	LineItemFee   LineItemKind = "fee"
)

type LineItem struct {
	ID             int          `json:"id" db:"id"`
	JobID          int          `json:"job_id" db:"job_id"`
	Kind           LineItemKind `json:"kind" db:"kind"`
	Description    string       `json:"description" db:"description"`
	Quantity       float64      `json:"quantity" db:"quantity"`
	UnitPriceCents int64        `json:"unit_price_cents" db:"unit_price_cents"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// TotalCents rounds quantity * unit price to the nearest cent.
func (li LineItem) TotalCents() int64 {
	total := li.Quantity * float64(li.UnitPriceCents)
	if total < 0 {
		return int64(total - 0.5)
	}
	return int64(total + 0.5)
}

type CreateLineItemRequest struct {
	JobID          int          `json:"job_id"`
	Kind           LineItemKind `json:"kind"`
	Description    string       `json:"description"`
	Quantity       float64      `json:"quantity"`
	UnitPriceCents int64        `json:"unit_price_cents"`
}

type UpdateLineItemRequest struct {
	Kind           *LineItemKind `json:"kind,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Quantity       *float64      `json:"quantity,omitempty"`
	UnitPriceCents *int64        `json:"unit_price_cents,omitempty"`
}

func (r *UpdateLineItemRequest) IsEmpty() bool {
	return r.Kind == nil && r.Description == nil && r.Quantity == nil && r.UnitPriceCents == nil
}

func (r *UpdateLineItemRequest) ApplyTo(li *LineItem) {
	if r.Kind != nil {
		li.Kind = *r.Kind
	}
	applyString(&li.Description, r.Description)
	if r.Quantity != nil {
		li.Quantity = *r.Quantity
	}
	if r.UnitPriceCents != nil {
		li.UnitPriceCents = *r.UnitPriceCents
	}
}
