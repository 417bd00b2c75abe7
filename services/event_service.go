package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/repositories"
	"github.com/affendiariffin/TO-Bot/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPointsWin  = 3
	defaultPointsDraw = 1
	defaultPointsLoss = 0
)

type CreateEventInput struct {
	Name        string
	Format      models.EventFormat
	OrganizerID int
	TeamSize    int
	PointsWin   *int
	PointsDraw  *int
	PointsLoss  *int
}

type EventService interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, eventID int) (*models.Event, error)
	ListEvents(ctx context.Context, phase *models.EventPhase) ([]*models.Event, error)
	// AdvancePhase moves the event one step forward. The step into the
	// active phase fixes the round schedule from the approved roster; the
	// step to finished happens only by completing the final round.
	AdvancePhase(ctx context.Context, eventID int) (*models.Event, error)
	Register(ctx context.Context, eventID, participantID int) (*models.Registration, error)
	// UploadList stores an army list file for a registration and resets
	// its approval.
	UploadList(ctx context.Context, registrationID int, filename, contentType string, file io.Reader) (*models.Registration, error)
	ApproveList(ctx context.Context, registrationID int, approved bool) (*models.Registration, error)
	// DropParticipant withdraws a participant. Played games stay on the
	// books; future pairings skip them.
	DropParticipant(ctx context.Context, eventID, participantID int) (*models.Registration, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
	regRepo   repositories.RegistrationRepository
	roundRepo repositories.RoundRepository
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	standings StandingsService
	uploader  storage.FileUploader
	logger    *slog.Logger
}

func NewEventService(
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	roundRepo repositories.RoundRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	standings StandingsService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		roundRepo: roundRepo,
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		standings: standings,
		uploader:  uploader,
		logger:    logger,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEventNameRequired
	}
	if input.Format != models.FormatSingles && input.Format != models.FormatTeams {
		return nil, fmt.Errorf("%w: %q", ErrEventFormatInvalid, input.Format)
	}
	teamSize := 1
	if input.Format == models.FormatTeams {
		if input.TeamSize < 2 {
			return nil, fmt.Errorf("%w: team events need a team size of at least 2", ErrValidationFailed)
		}
		teamSize = input.TeamSize
	}

	event := &models.Event{
		Name:        name,
		Format:      input.Format,
		Phase:       models.PhaseInterest,
		OrganizerID: input.OrganizerID,
		TeamSize:    teamSize,
		PointsWin:   valueOrDefault(input.PointsWin, defaultPointsWin),
		PointsDraw:  valueOrDefault(input.PointsDraw, defaultPointsDraw),
		PointsLoss:  valueOrDefault(input.PointsLoss, defaultPointsLoss),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventNameConflict) {
			return nil, ErrEventNameConflict
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regs, loadErr := s.regRepo.ListByEvent(gctx, eventID, nil)
		if loadErr != nil {
			return loadErr
		}
		for _, reg := range regs {
			s.fillListURL(reg)
		}
		event.Registrations = regs
		return nil
	})
	g.Go(func() error {
		rounds, loadErr := s.roundRepo.ListByEvent(gctx, eventID)
		if loadErr != nil {
			return loadErr
		}
		event.Rounds = rounds
		return nil
	})
	g.Go(func() error {
		standings, loadErr := s.standings.GetStandings(gctx, eventID)
		if loadErr != nil {
			return loadErr
		}
		event.Standings = standings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, phase *models.EventPhase) ([]*models.Event, error) {
	return s.eventRepo.List(ctx, phase)
}

func (s *eventService) AdvancePhase(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	switch event.Phase {
	case models.PhaseFinished:
		return nil, ErrEventPhaseFinal
	case models.PhaseActive:
		return nil, fmt.Errorf("%w: an active event finishes by playing its final round", ErrInvalidTransition)
	}

	next := event.Phase.NextPhase()
	if next == models.PhaseActive {
		roster, rosterErr := s.approvedRoster(ctx, eventID)
		if rosterErr != nil {
			return nil, rosterErr
		}
		if len(roster) < 2 {
			return nil, fmt.Errorf("%w: %d approved participants", ErrInvalidRoster, len(roster))
		}
		if err := s.eventRepo.UpdateRoundCount(ctx, nil, eventID, models.RoundCountFor(len(roster))); err != nil {
			return nil, err
		}
		event.RoundCount = models.RoundCountFor(len(roster))
	}

	if err := s.eventRepo.UpdatePhase(ctx, nil, eventID, next); err != nil {
		return nil, err
	}
	event.Phase = next

	s.logger.Info("event phase advanced",
		slog.Int("event_id", eventID), slog.String("phase", string(next)))
	return event, nil
}

func (s *eventService) Register(ctx context.Context, eventID, participantID int) (*models.Registration, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Phase != models.PhaseInterest && event.Phase != models.PhaseRegistration {
		return nil, fmt.Errorf("%w: event is in phase %q", ErrRegistrationClosed, event.Phase)
	}
	if err := s.checkParticipantExists(ctx, event, participantID); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
		Status:        models.RegistrationActive,
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrRegistrationDuplicate) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to register participant %d: %w", participantID, err)
	}
	return reg, nil
}

func (s *eventService) UploadList(ctx context.Context, registrationID int, filename, contentType string, file io.Reader) (*models.Registration, error) {
	reg, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.loadEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.Phase != models.PhaseRegistration && event.Phase != models.PhaseListsLock {
		return nil, fmt.Errorf("%w: lists cannot change in phase %q", ErrInvalidTransition, event.Phase)
	}

	key := fmt.Sprintf("lists/event_%d/reg_%d/%s%s",
		reg.EventID, reg.ID, uuid.NewString(), filepath.Ext(filename))
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload list: %w", err)
	}

	oldKey := reg.ListKey
	if err := s.regRepo.UpdateListKey(ctx, reg.ID, &key); err != nil {
		return nil, err
	}
	if oldKey != nil {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete superseded list file",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	reg.ListKey = &key
	reg.ListApproved = false
	s.fillListURL(reg)
	return reg, nil
}

func (s *eventService) ApproveList(ctx context.Context, registrationID int, approved bool) (*models.Registration, error) {
	reg, err := s.loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if approved && reg.ListKey == nil {
		return nil, fmt.Errorf("%w: no list uploaded", ErrValidationFailed)
	}
	if err := s.regRepo.UpdateListApproved(ctx, reg.ID, approved); err != nil {
		return nil, err
	}
	reg.ListApproved = approved
	s.fillListURL(reg)
	return reg, nil
}

func (s *eventService) DropParticipant(ctx context.Context, eventID, participantID int) (*models.Registration, error) {
	reg, err := s.regRepo.GetByEventAndParticipant(ctx, eventID, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.Status == models.RegistrationDropped {
		return reg, nil
	}
	if err := s.regRepo.UpdateStatus(ctx, nil, reg.ID, models.RegistrationDropped); err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationDropped

	s.logger.Info("participant dropped",
		slog.Int("event_id", eventID), slog.Int("participant_id", participantID))
	return reg, nil
}

func (s *eventService) approvedRoster(ctx context.Context, eventID int) ([]*models.Registration, error) {
	active := models.RegistrationActive
	regs, err := s.regRepo.ListByEvent(ctx, eventID, &active)
	if err != nil {
		return nil, err
	}
	roster := make([]*models.Registration, 0, len(regs))
	for _, reg := range regs {
		if reg.ListApproved {
			roster = append(roster, reg)
		}
	}
	return roster, nil
}

func (s *eventService) checkParticipantExists(ctx context.Context, event *models.Event, participantID int) error {
	if event.Format == models.FormatTeams {
		if _, err := s.teamRepo.GetByID(ctx, participantID); err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *eventService) fillListURL(reg *models.Registration) {
	if reg.ListKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*reg.ListKey)
	if url != "" {
		reg.ListURL = &url
	}
}

func (s *eventService) loadEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *eventService) loadRegistration(ctx context.Context, id int) (*models.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration %d: %w", id, err)
	}
	return reg, nil
}

func valueOrDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
