package models

import "time"

type Vehicle struct {
	ID           int       `json:"id" db:"id"`
	CustomerID   int       `json:"customer_id" db:"customer_id"`
	Year         int       `json:"year" db:"year"`
	Make         string    `json:"make" db:"make"`
	Model        string    `json:"model" db:"model"`
	VIN          string    `json:"vin" db:"vin"`
	LicensePlate string    `json:"license_plate" db:"license_plate"`
	Color        string    `json:"color" db:"color"`
	Mileage      int       `json:"mileage" db:"mileage"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateVehicleRequest struct {
	CustomerID   int    `json:"customer_id"`
	Year         int    `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	VIN          string `json:"vin"`
	LicensePlate string `json:"license_plate"`
	Color        string `json:"color"`
	Mileage      int    `json:"mileage"`
}

type UpdateVehicleRequest struct {
	Year         *int    `json:"year,omitempty"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	VIN          *string `json:"vin,omitempty"`
	LicensePlate *string `json:"license_plate,omitempty"`
	Color        *string `json:"color,omitempty"`
	Mileage      *int    `json:"mileage,omitempty"`
}

func (r *UpdateVehicleRequest) IsEmpty() bool {
	return r.Year == nil && r.Make == nil && r.Model == nil && r.VIN == nil &&
		r.LicensePlate == nil && r.Color == nil && r.Mileage == nil
}

func (r *UpdateVehicleRequest) ApplyTo(v *Vehicle) {
	applyInt(&v.Year, r.Year)
	applyString(&v.Make, r.Make)
	applyString(&v.Model, r.Model)
	applyString(&v.VIN, r.VIN)
	applyString(&v.LicensePlate, r.LicensePlate)
	applyString(&v.Color, r.Color)
	applyInt(&v.Mileage, r.Mileage)
}
