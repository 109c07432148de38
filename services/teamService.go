package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomdro61/shop-pilot-sub000/db"
	"github.com/tomdro61/shop-pilot-sub000/models"
)

type TeamService struct {
	repo db.TeamRepository
}

func NewTeamService(repo db.TeamRepository) *TeamService {
	return &TeamService{repo: repo}
}

func (s *TeamService) ListTeamMembers(ctx context.Context, role string) ([]*models.TeamMember, error) {
	members, err := s.repo.GetTeamMembers(ctx, strings.TrimSpace(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}
