package services

import (
	"context"
	"fmt"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardService struct {
	userRepo   repositories.UserRepository
	eventRepo  repositories.EventRepository
	roundRepo  repositories.RoundRepository
	gameRepo   repositories.GameRepository
	ritualRepo repositories.RitualRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	eventRepo repositories.EventRepository,
	roundRepo repositories.RoundRepository,
	gameRepo repositories.GameRepository,
	ritualRepo repositories.RitualRepository,
) DashboardService {
	return &dashboardService{
		userRepo:   userRepo,
		eventRepo:  eventRepo,
		roundRepo:  roundRepo,
		gameRepo:   gameRepo,
		ritualRepo: ritualRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.userRepo.Count(gctx)
		stats.UsersTotal = count
		return err
	})
	g.Go(func() error {
		count, err := s.eventRepo.Count(gctx, nil)
		stats.EventsTotal = count
		return err
	})
	g.Go(func() error {
		active := models.PhaseActive
		count, err := s.eventRepo.Count(gctx, &active)
		stats.ActiveEvents = count
		return err
	})
	g.Go(func() error {
		count, err := s.roundRepo.CountOpen(gctx)
		stats.OpenRounds = count
		return err
	})
	g.Go(func() error {
		count, err := s.gameRepo.CountByState(gctx, models.GameDisputed)
		stats.DisputedGames = count
		return err
	})
	g.Go(func() error {
		count, err := s.ritualRepo.CountOpen(gctx)
		stats.OpenRituals = count
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return stats, nil
}
