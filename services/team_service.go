package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name string, captainID int) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	// AddMember fixes a player to a board slot. Slots are 1-based and
	// unique within the team.
	AddMember(ctx context.Context, teamID, userID, slot int) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

func (s *teamService) CreateTeam(ctx context.Context, name string, captainID int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if _, err := s.userRepo.GetByID(ctx, captainID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	team := &models.Team{Name: name, CaptainID: captainID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, fmt.Errorf("%w: team name taken", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID, slot int) (*models.Team, error) {
	if slot < 1 {
		return nil, fmt.Errorf("%w: slot must be positive", ErrValidationFailed)
	}
	if _, err := s.loadTeam(ctx, teamID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	already, err := s.teamRepo.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("%w: player already on the team", ErrConflict)
	}

	member := &models.TeamMember{TeamID: teamID, UserID: userID, Slot: slot}
	if err := s.teamRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrTeamSlotTaken) {
			return nil, fmt.Errorf("%w: slot %d taken", ErrConflict, slot)
		}
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return s.GetTeam(ctx, teamID)
}

func (s *teamService) loadTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	return team, nil
}
