package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/affendiariffin/TO-Bot/repositories"
	"github.com/google/uuid"
)

const (
	// byeDieSize is the die rolled in bye-decision rituals. Seat rolls use
	// the classic d6.
	byeDieSize  = 20
	seatDieSize = 6

	// maxRerollRounds bounds tie re-rolls; after that the lowest
	// participant id wins so the session always terminates.
	maxRerollRounds = 3
)

type RitualService interface {
	// ResolveByeContention implements the bye tie-break feedback loop: it
	// returns the winner of a resolved session for this decision slot,
	// opens a new session (and reports ErrRitualPending) when none exists,
	// and falls back to the lowest id once a session expires. A non-nil
	// session id must be consumed by the round that uses the outcome.
	ResolveByeContention(ctx context.Context, eventID, roundNumber int, contenders []int) (int, uuid.UUID, error)
	// OpenSeatRoll starts a d6 roll-off for a seating dispute.
	OpenSeatRoll(ctx context.Context, eventID, roundNumber int, contenders []int) (*models.RitualSession, error)
	SubmitRoll(ctx context.Context, sessionID uuid.UUID, userID int) (*models.RitualSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.RitualSession, error)
}

type ritualService struct {
	ritualRepo repositories.RitualRepository
	hub        *pairing.Hub
	waitWindow time.Duration
	roll       func(dieSize int) int
	now        func() time.Time
}

func NewRitualService(ritualRepo repositories.RitualRepository, hub *pairing.Hub, waitWindow time.Duration) RitualService {
	return &ritualService{
		ritualRepo: ritualRepo,
		hub:        hub,
		waitWindow: waitWindow,
		roll:       func(dieSize int) int { return rand.Intn(dieSize) + 1 },
		now:        time.Now,
	}
}

func (s *ritualService) ResolveByeContention(ctx context.Context, eventID, roundNumber int, contenders []int) (int, uuid.UUID, error) {
	// A lone contender is not a tie; no dice are needed.
	if len(contenders) == 1 {
		return contenders[0], uuid.Nil, nil
	}

	session, err := s.ritualRepo.GetPending(ctx, eventID, roundNumber, models.RitualByeDecision)
	if err != nil {
		if errors.Is(err, repositories.ErrRitualNotFound) {
			return s.openByeSession(ctx, eventID, roundNumber, contenders)
		}
		return 0, uuid.Nil, fmt.Errorf("failed to load pending ritual session: %w", err)
	}

	// A stale session for a different contender set cannot decide this
	// pairing, e.g. after a drop changed the tie.
	if !sameContenders(session.Participants, contenders) {
		if updErr := s.ritualRepo.UpdateState(ctx, nil, session.ID, models.RitualExpired); updErr != nil {
			return 0, uuid.Nil, updErr
		}
		return s.openByeSession(ctx, eventID, roundNumber, contenders)
	}

	switch session.State {
	case models.RitualResolved:
		if session.WinnerID == nil {
			return 0, uuid.Nil, fmt.Errorf("resolved ritual session %s has no winner", session.ID)
		}
		return *session.WinnerID, session.ID, nil
	case models.RitualOpen:
		if s.now().After(session.ExpiresAt) {
			if updErr := s.ritualRepo.UpdateState(ctx, nil, session.ID, models.RitualExpired); updErr != nil {
				return 0, uuid.Nil, updErr
			}
			winner, fbErr := pairing.LowestID(contenders)
			return winner, uuid.Nil, fbErr
		}
		return 0, uuid.Nil, fmt.Errorf("%w: session %s", ErrRitualPending, session.ID)
	default:
		return 0, uuid.Nil, fmt.Errorf("unexpected ritual state %q", session.State)
	}
}

func (s *ritualService) openByeSession(ctx context.Context, eventID, roundNumber int, contenders []int) (int, uuid.UUID, error) {
	session := &models.RitualSession{
		ID:           uuid.New(),
		EventID:      eventID,
		RoundNumber:  roundNumber,
		Kind:         models.RitualByeDecision,
		DieSize:      byeDieSize,
		State:        models.RitualOpen,
		Participants: contenders,
		ExpiresAt:    s.now().Add(s.waitWindow),
	}
	if err := s.ritualRepo.Create(ctx, session); err != nil {
		return 0, uuid.Nil, fmt.Errorf("failed to open ritual session: %w", err)
	}

	s.hub.BroadcastToRoom(eventRoom(eventID), pairing.WebSocketMessage{
		Type:    pairing.EventRitualOpened,
		Payload: session,
		RoomID:  eventRoom(eventID),
	})
	return 0, uuid.Nil, fmt.Errorf("%w: session %s", ErrRitualPending, session.ID)
}

func (s *ritualService) OpenSeatRoll(ctx context.Context, eventID, roundNumber int, contenders []int) (*models.RitualSession, error) {
	if len(contenders) < 2 {
		return nil, fmt.Errorf("%w: a seat roll needs at least two contenders", ErrValidationFailed)
	}
	session := &models.RitualSession{
		ID:           uuid.New(),
		EventID:      eventID,
		RoundNumber:  roundNumber,
		Kind:         models.RitualSeatRoll,
		DieSize:      seatDieSize,
		State:        models.RitualOpen,
		Participants: contenders,
		ExpiresAt:    s.now().Add(s.waitWindow),
	}
	if err := s.ritualRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to open seat roll session: %w", err)
	}

	s.hub.BroadcastToRoom(eventRoom(eventID), pairing.WebSocketMessage{
		Type:    pairing.EventRitualOpened,
		Payload: session,
		RoomID:  eventRoom(eventID),
	})
	return session, nil
}

func (s *ritualService) SubmitRoll(ctx context.Context, sessionID uuid.UUID, userID int) (*models.RitualSession, error) {
	session, err := s.getSessionWithRolls(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.State != models.RitualOpen {
		return nil, fmt.Errorf("%w: ritual session is %s", ErrInvalidTransition, session.State)
	}
	if s.now().After(session.ExpiresAt) {
		if updErr := s.ritualRepo.UpdateState(ctx, nil, session.ID, models.RitualExpired); updErr != nil {
			return nil, updErr
		}
		return nil, fmt.Errorf("%w: ritual session expired", ErrInvalidTransition)
	}

	contenders := currentContenders(session.Participants, session.Rolls, session.RerollRound)
	if !containsInt(contenders, userID) {
		return nil, ErrRitualNotContender
	}
	for _, roll := range session.Rolls {
		if roll.RerollRound == session.RerollRound && roll.ParticipantID == userID {
			return nil, ErrRitualAlreadyRolled
		}
	}

	roll := &models.RitualRoll{
		SessionID:     session.ID,
		ParticipantID: userID,
		RerollRound:   session.RerollRound,
		Value:         s.roll(session.DieSize),
	}
	if err := s.ritualRepo.AddRoll(ctx, roll); err != nil {
		return nil, err
	}
	session.Rolls = append(session.Rolls, *roll)

	if err := s.settleRound(ctx, session, contenders); err != nil {
		return nil, err
	}
	return session, nil
}

// settleRound checks whether every contender of the current re-roll round
// has rolled, and either resolves the session, starts a re-roll of the
// tied participants, or leaves it waiting.
func (s *ritualService) settleRound(ctx context.Context, session *models.RitualSession, contenders []int) error {
	values := make(map[int]int, len(contenders))
	for _, roll := range session.Rolls {
		if roll.RerollRound == session.RerollRound {
			values[roll.ParticipantID] = roll.Value
		}
	}
	if len(values) < len(contenders) {
		return nil
	}

	tied := tiedAtMax(contenders, values)
	if len(tied) == 1 {
		return s.resolve(ctx, session, tied[0])
	}

	if session.RerollRound+1 >= maxRerollRounds {
		winner, err := pairing.LowestID(tied)
		if err != nil {
			return err
		}
		return s.resolve(ctx, session, winner)
	}

	session.RerollRound++
	if err := s.ritualRepo.UpdateRerollRound(ctx, session.ID, session.RerollRound); err != nil {
		return err
	}
	return nil
}

func (s *ritualService) resolve(ctx context.Context, session *models.RitualSession, winnerID int) error {
	if err := s.ritualRepo.UpdateResolved(ctx, nil, session.ID, winnerID); err != nil {
		return err
	}
	session.State = models.RitualResolved
	session.WinnerID = &winnerID

	s.hub.BroadcastToRoom(eventRoom(session.EventID), pairing.WebSocketMessage{
		Type:    pairing.EventRitualResolved,
		Payload: session,
		RoomID:  eventRoom(session.EventID),
	})
	return nil
}

func (s *ritualService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.RitualSession, error) {
	return s.getSessionWithRolls(ctx, sessionID)
}

func (s *ritualService) getSessionWithRolls(ctx context.Context, sessionID uuid.UUID) (*models.RitualSession, error) {
	session, err := s.ritualRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrRitualNotFound) {
			return nil, ErrRitualNotFound
		}
		return nil, fmt.Errorf("failed to load ritual session %s: %w", sessionID, err)
	}
	rolls, err := s.ritualRepo.ListRolls(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Rolls = rolls
	return session, nil
}

// currentContenders derives who still has to roll: the full participant
// set in round zero, afterwards the participants tied at the maximum of
// the previous round.
func currentContenders(participants []int, rolls []models.RitualRoll, rerollRound int) []int {
	contenders := participants
	for round := 0; round < rerollRound; round++ {
		values := make(map[int]int, len(contenders))
		for _, roll := range rolls {
			if roll.RerollRound == round {
				values[roll.ParticipantID] = roll.Value
			}
		}
		contenders = tiedAtMax(contenders, values)
	}
	return contenders
}

func tiedAtMax(contenders []int, values map[int]int) []int {
	max := 0
	for _, id := range contenders {
		if v := values[id]; v > max {
			max = v
		}
	}
	tied := make([]int, 0, len(contenders))
	for _, id := range contenders {
		if values[id] == max {
			tied = append(tied, id)
		}
	}
	return tied
}

func sameContenders(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
