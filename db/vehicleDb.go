package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

type VehicleRepository interface {
	CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error)
	GetVehiclesByCustomer(ctx context.Context, customerID int) ([]*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, id int) error
}

type PostgresVehicleRepository struct {
	db *sql.DB
}

func NewPostgresVehicleRepository(conn *sql.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: conn}
}

const vehicleColumns = `id, customer_id, year, make, model, vin, license_plate, color, mileage, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(&v.ID, &v.CustomerID, &v.Year, &v.Make, &v.Model, &v.VIN, &v.LicensePlate, &v.Color, &v.Mileage, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *PostgresVehicleRepository) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO shop.vehicles (customer_id, year, make, model, vin, license_plate, color, mileage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		vehicle.CustomerID, vehicle.Year, vehicle.Make, vehicle.Model, vehicle.VIN, vehicle.LicensePlate, vehicle.Color, vehicle.Mileage)

	if err := row.Scan(&vehicle.ID, &vehicle.CreatedAt, &vehicle.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

func (r *PostgresVehicleRepository) GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM shop.vehicles WHERE id = $1`

	vehicle, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("vehicle", id)
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return vehicle, nil
}

func (r *PostgresVehicleRepository) GetVehiclesByCustomer(ctx context.Context, customerID int) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM shop.vehicles WHERE customer_id = $1 ORDER BY year DESC, make`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*models.Vehicle, 0)
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *PostgresVehicleRepository) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE shop.vehicles
		SET year = $1, make = $2, model = $3, vin = $4, license_plate = $5, color = $6, mileage = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	row := r.db.QueryRowContext(ctx, query,
		vehicle.Year, vehicle.Make, vehicle.Model, vehicle.VIN, vehicle.LicensePlate, vehicle.Color, vehicle.Mileage, vehicle.ID)

	if err := row.Scan(&vehicle.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("vehicle", vehicle.ID)
		}
		return fmt.Errorf("failed to update vehicle: %w", err)
	}

	return nil
}

func (r *PostgresVehicleRepository) DeleteVehicle(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM shop.vehicles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	return checkRowsAffected(result, "vehicle", id)
}
