package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id int) (*models.Customer, error)
	GetAllCustomers(ctx context.Context) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, id int) error
}

type PostgresCustomerRepository struct {
	db *sql.DB
}

func NewPostgresCustomerRepository(conn *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: conn}
}

const customerColumns = `id, first_name, last_name, email, phone, address, notes, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresCustomerRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO shop.customers (first_name, last_name, email, phone, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Address, customer.Notes)

	if err := row.Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

func (r *PostgresCustomerRepository) GetCustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM shop.customers WHERE id = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("customer", id)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
}

func (r *PostgresCustomerRepository) GetAllCustomers(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM shop.customers ORDER BY last_name, first_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over customers: %w", err)
	}

	return customers, nil
}

func (r *PostgresCustomerRepository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE shop.customers
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, notes = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	row := r.db.QueryRowContext(ctx, query,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Address, customer.Notes, customer.ID)

	if err := row.Scan(&customer.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("customer", customer.ID)
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

func (r *PostgresCustomerRepository) DeleteCustomer(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM shop.customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	return checkRowsAffected(result, "customer", id)
}
