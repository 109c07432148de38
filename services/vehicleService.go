package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"
)

const vinLength = 17

type VehicleService struct {
	repo      db.VehicleRepository
	customers db.CustomerRepository
	now       func() time.Time
}

func NewVehicleService(repo db.VehicleRepository, customers db.CustomerRepository) *VehicleService {
	return &VehicleService{repo: repo, customers: customers, now: time.Now}
}

func (s *VehicleService) CreateVehicle(ctx context.Context, req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	if req.CustomerID <= 0 {
		return nil, invalidID("customer", req.CustomerID)
	}
	if _, err := s.customers.GetCustomerByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	vehicle := &models.Vehicle{
		CustomerID:   req.CustomerID,
		Year:         req.Year,
		Make:         req.Make,
		Model:        req.Model,
		VIN:          req.VIN,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		Mileage:      req.Mileage,
	}
	normalizeVehicle(vehicle)

	if err := s.validateVehicle(vehicle); err != nil {
		slog.Warn("vehicle creation validation failed", "error", err)
		return nil, err
	}

	if err := s.repo.CreateVehicle(ctx, vehicle); err != nil {
		slog.Error("failed to create vehicle", "customer_id", req.CustomerID, "error", err)
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	slog.Info("created vehicle", "vehicle_id", vehicle.ID, "customer_id", vehicle.CustomerID)
	return vehicle, nil
}

func (s *VehicleService) GetVehicleByID(ctx context.Context, id int) (*models.Vehicle, error) {
	if id <= 0 {
		return nil, invalidID("vehicle", id)
	}
	return s.repo.GetVehicleByID(ctx, id)
}

func (s *VehicleService) ListVehicles(ctx context.Context, customerID int) ([]*models.Vehicle, error) {
	if customerID <= 0 {
		return nil, invalidID("customer", customerID)
	}
	if _, err := s.customers.GetCustomerByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.GetVehiclesByCustomer(ctx, customerID)
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, id int, req *models.UpdateVehicleRequest) (*models.Vehicle, error) {
	if id <= 0 {
		return nil, invalidID("vehicle", id)
	}
	if req.IsEmpty() {
		return nil, validationError("no updates provided")
	}

	vehicle, err := s.repo.GetVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(vehicle)
	normalizeVehicle(vehicle)
	if err := s.validateVehicle(vehicle); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateVehicle(ctx, vehicle); err != nil {
		slog.Error("failed to update vehicle", "vehicle_id", id, "error", err)
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	slog.Info("updated vehicle", "vehicle_id", id)
	return vehicle, nil
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, id int) error {
	if id <= 0 {
		return invalidID("vehicle", id)
	}
	if err := s.repo.DeleteVehicle(ctx, id); err != nil {
		return err
	}
	slog.Info("deleted vehicle", "vehicle_id", id)
	return nil
}

func normalizeVehicle(v *models.Vehicle) {
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.VIN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v.VIN), " ", ""))
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	v.Color = strings.TrimSpace(v.Color)
}

func (s *VehicleService) validateVehicle(v *models.Vehicle) error {
	if v.Make == "" || v.Model == "" {
		return validationError("make and model are required")
	}
	maxYear := s.now().Year() + 1
	if v.Year != 0 && (v.Year < 1900 || v.Year > maxYear) {
		return validationError("year must be between 1900 and %d, got %d", maxYear, v.Year)
	}
	if v.VIN != "" && len(v.VIN) != vinLength {
		return validationError("VIN must be %d characters, got %d", vinLength, len(v.VIN))
	}
	if v.Mileage < 0 {
		return validationError("mileage cannot be negative")
	}
	return nil
}
