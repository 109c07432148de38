package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

type TeamRepository interface {
	GetTeamMembers(ctx context.Context, role string) ([]*models.TeamMember, error)
	GetTeamMemberByID(ctx context.Context, id int) (*models.TeamMember, error)
}

type PostgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(conn *sql.DB) *PostgresTeamRepository {
	return &PostgresTeamRepository{db: conn}
}

// GetTeamMembers lists active members, optionally restricted to one role.
func (r *PostgresTeamRepository) GetTeamMembers(ctx context.Context, role string) ([]*models.TeamMember, error) {
	query := `SELECT id, name, role, email, phone, active, created_at FROM shop.team_members WHERE active`
	var args []any

	if role != "" {
		query += " AND LOWER(role) = LOWER($1)"
		args = append(args, role)
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		m := &models.TeamMember{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Email, &m.Phone, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over team members: %w", err)
	}

	return members, nil
}

func (r *PostgresTeamRepository) GetTeamMemberByID(ctx context.Context, id int) (*models.TeamMember, error) {
	query := `SELECT id, name, role, email, phone, active, created_at FROM shop.team_members WHERE id = $1`

	m := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Role, &m.Email, &m.Phone, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("team member", id)
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}

	return m, nil
}
