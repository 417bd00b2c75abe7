package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/affendiariffin/TO-Bot/repositories"
	"github.com/google/uuid"
)

// deadlineWarnLead is how far before the round deadline the warning fires.
const deadlineWarnLead = 10 * time.Minute

// RoundCompleter is the narrow dependency GameService needs to close a
// round after a game reaches a terminal state.
type RoundCompleter interface {
	CompleteRoundIfFinished(ctx context.Context, roundID int) (bool, error)
}

type RoundService interface {
	RoundCompleter

	// StartRound pairs the next round of an event. Round and games are
	// persisted atomically or not at all.
	StartRound(ctx context.Context, eventID int) (*models.Round, error)
	// AcknowledgeAnnouncement moves an announced round to active once the
	// presentation layer confirms delivery.
	AcknowledgeAnnouncement(ctx context.Context, roundID int) (*models.Round, error)
	// RepairRound discards every non-terminal game of the round and
	// re-pairs the remaining participants under the same round number.
	RepairRound(ctx context.Context, roundID int) (*models.Round, error)
	// CompleteRound closes the round, failing when games are outstanding.
	CompleteRound(ctx context.Context, roundID int) (*models.Round, error)
	GetRound(ctx context.Context, roundID int) (*models.Round, error)
	// CheckDeadlines is the periodic deadline sweep. Redundant invocations
	// are harmless.
	CheckDeadlines(ctx context.Context) error
}

type roundService struct {
	txManager     repositories.TxManager
	eventRepo     repositories.EventRepository
	regRepo       repositories.RegistrationRepository
	roundRepo     repositories.RoundRepository
	gameRepo      repositories.GameRepository
	ritualRepo    repositories.RitualRepository
	teamRepo      repositories.TeamRepository
	rituals       RitualService
	standings     StandingsService
	hub           *pairing.Hub
	logger        *slog.Logger
	roundDuration time.Duration
	now           func() time.Time
}

func NewRoundService(
	txManager repositories.TxManager,
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	roundRepo repositories.RoundRepository,
	gameRepo repositories.GameRepository,
	ritualRepo repositories.RitualRepository,
	teamRepo repositories.TeamRepository,
	rituals RitualService,
	standings StandingsService,
	hub *pairing.Hub,
	logger *slog.Logger,
	roundDuration time.Duration,
) RoundService {
	return &roundService{
		txManager:     txManager,
		eventRepo:     eventRepo,
		regRepo:       regRepo,
		roundRepo:     roundRepo,
		gameRepo:      gameRepo,
		ritualRepo:    ritualRepo,
		teamRepo:      teamRepo,
		rituals:       rituals,
		standings:     standings,
		hub:           hub,
		logger:        logger,
		roundDuration: roundDuration,
		now:           time.Now,
	}
}

func (s *roundService) StartRound(ctx context.Context, eventID int) (*models.Round, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Phase != models.PhaseActive {
		return nil, fmt.Errorf("%w: event is in phase %q", ErrEventNotActive, event.Phase)
	}
	if event.CurrentRound >= event.RoundCount {
		return nil, fmt.Errorf("%w: all %d rounds played", ErrRoundLimitReached, event.RoundCount)
	}

	nextNumber := event.CurrentRound + 1
	if event.CurrentRound > 0 {
		prev, prevErr := s.roundRepo.GetByEventAndNumber(ctx, eventID, event.CurrentRound)
		if prevErr != nil {
			return nil, fmt.Errorf("failed to load round %d: %w", event.CurrentRound, prevErr)
		}
		if prev.State != models.RoundComplete {
			return nil, fmt.Errorf("%w: round %d is %s", ErrPreviousRoundOpen, prev.Number, prev.State)
		}
	}
	if _, dupErr := s.roundRepo.GetByEventAndNumber(ctx, eventID, nextNumber); dupErr == nil {
		return nil, fmt.Errorf("%w: round %d already exists", ErrConflict, nextNumber)
	} else if !errors.Is(dupErr, repositories.ErrRoundNotFound) {
		return nil, dupErr
	}

	roster, regs, err := s.loadRoster(ctx, event)
	if err != nil {
		return nil, err
	}

	allGames, err := s.gameRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	participants := buildPairingRoster(event, regs, roster, allGames)
	history := buildHistory(event, allGames, nil)

	var consumedSession uuid.UUID
	resolver := pairing.LowestID
	if event.Format == models.FormatSingles {
		resolver = func(contenders []int) (int, error) {
			winner, sessionID, resolveErr := s.rituals.ResolveByeContention(ctx, eventID, nextNumber, contenders)
			if resolveErr != nil {
				return 0, resolveErr
			}
			consumedSession = sessionID
			return winner, nil
		}
	}

	result, err := pairing.Swiss(participants, history, resolver)
	if err != nil {
		return nil, mapPairingError(err)
	}

	prevRooms, err := s.previousRooms(ctx, event, event.CurrentRound)
	if err != nil {
		return nil, err
	}
	roomByPair := pairing.AssignRooms(result.Pairs, prevRooms)

	games, err := s.buildGames(ctx, event, result, roomByPair)
	if err != nil {
		return nil, err
	}

	round := &models.Round{
		EventID:  eventID,
		Number:   nextNumber,
		State:    models.RoundDrafting,
		Deadline: s.now().Add(s.roundDuration),
	}
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.roundRepo.Create(ctx, exec, round); txErr != nil {
			if errors.Is(txErr, repositories.ErrRoundNumberTaken) {
				return fmt.Errorf("%w: round %d already exists", ErrConflict, nextNumber)
			}
			return txErr
		}
		for _, game := range games {
			game.RoundID = round.ID
			if txErr := s.gameRepo.Create(ctx, exec, game); txErr != nil {
				return txErr
			}
		}
		if consumedSession != uuid.Nil {
			if txErr := s.ritualRepo.MarkConsumed(ctx, exec, consumedSession); txErr != nil {
				return txErr
			}
		}
		if txErr := s.roundRepo.UpdateState(ctx, exec, round.ID, models.RoundAnnounced, false, round.Version); txErr != nil {
			return mapRoundConflict(txErr)
		}
		return s.eventRepo.UpdateCurrentRound(ctx, exec, eventID, nextNumber)
	})
	if err != nil {
		return nil, err
	}

	round.State = models.RoundAnnounced
	round.Version++
	round.Games = games

	s.broadcastRound(pairing.EventRoundAnnounced, round)
	return round, nil
}

func (s *roundService) AcknowledgeAnnouncement(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.State != models.RoundAnnounced {
		return nil, fmt.Errorf("%w: round %d is %s", ErrInvalidTransition, round.Number, round.State)
	}
	if err := s.roundRepo.UpdateState(ctx, nil, round.ID, models.RoundActive, false, round.Version); err != nil {
		return nil, mapRoundConflict(err)
	}
	round.State = models.RoundActive
	round.Version++
	return round, nil
}

func (s *roundService) RepairRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.State != models.RoundActive && round.State != models.RoundDeadlineWarned {
		return nil, fmt.Errorf("%w: cannot repair a %s round", ErrInvalidTransition, round.State)
	}
	event, err := s.loadEvent(ctx, round.EventID)
	if err != nil {
		return nil, err
	}

	games, err := s.gameRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	preserved := make([]*models.Game, 0, len(games))
	discardedIDs := make(map[int]bool)
	taken := make(map[int]bool)
	usedRooms := make([]string, 0, len(games))
	for _, game := range games {
		if !game.Terminal() {
			discardedIDs[game.ID] = true
			continue
		}
		preserved = append(preserved, game)
		for _, id := range gameParticipants(event, game) {
			taken[id] = true
		}
		if game.Room != nil {
			usedRooms = append(usedRooms, *game.Room)
		}
	}

	roster, regs, err := s.loadRoster(ctx, event)
	if err != nil && !errors.Is(err, ErrInvalidRoster) {
		return nil, err
	}
	remaining := make([]*models.Registration, 0, len(roster))
	for _, reg := range roster {
		if !taken[reg.ParticipantID] {
			remaining = append(remaining, reg)
		}
	}

	allGames, err := s.gameRepo.ListByEvent(ctx, round.EventID)
	if err != nil {
		return nil, err
	}
	history := buildHistory(event, allGames, discardedIDs)
	participants := buildPairingRoster(event, regs, remaining, allGames)

	var newGames []*models.Game
	switch {
	case len(participants) == 0:
		// Everyone left is already in a preserved game.
	case len(participants) == 1:
		bye := participants[0].ID
		newGames = append(newGames, s.byeGame(event, bye))
	default:
		// Repairs use the deterministic tie-break; no ritual is opened
		// mid-round.
		result, swissErr := pairing.Swiss(participants, history, pairing.LowestID)
		if swissErr != nil {
			return nil, mapPairingError(swissErr)
		}
		prevRooms, roomErr := s.previousRooms(ctx, event, round.Number-1)
		if roomErr != nil {
			return nil, roomErr
		}
		roomByPair := pairing.AssignRoomsAvoiding(result.Pairs, prevRooms, usedRooms)
		newGames, err = s.buildGames(ctx, event, result, roomByPair)
		if err != nil {
			return nil, err
		}
	}

	deadline := s.now().Add(s.roundDuration)
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.ritualRepo.ExpireOpenForRound(ctx, exec, round.EventID, round.Number); txErr != nil {
			return txErr
		}
		if txErr := s.gameRepo.DeleteNonTerminalByRound(ctx, exec, round.ID); txErr != nil {
			return txErr
		}
		for _, game := range newGames {
			game.RoundID = round.ID
			if txErr := s.gameRepo.Create(ctx, exec, game); txErr != nil {
				return txErr
			}
		}
		if txErr := s.roundRepo.UpdateDeadline(ctx, exec, round.ID, deadline); txErr != nil {
			return txErr
		}
		if txErr := s.roundRepo.UpdateState(ctx, exec, round.ID, models.RoundAnnounced, false, round.Version); txErr != nil {
			return mapRoundConflict(txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	round.State = models.RoundAnnounced
	round.DeadlineWarned = false
	round.Deadline = deadline
	round.Version++
	round.Games = append(preserved, newGames...)

	s.broadcastRound(pairing.EventRoundRepaired, round)
	return round, nil
}

func (s *roundService) CompleteRound(ctx context.Context, roundID int) (*models.Round, error) {
	completed, err := s.CompleteRoundIfFinished(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, fmt.Errorf("%w: round has unfinished games", ErrInvalidTransition)
	}
	return s.GetRound(ctx, roundID)
}

func (s *roundService) CompleteRoundIfFinished(ctx context.Context, roundID int) (bool, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	if round.State != models.RoundActive && round.State != models.RoundDeadlineWarned {
		return false, nil
	}

	games, err := s.gameRepo.ListByRound(ctx, roundID)
	if err != nil {
		return false, err
	}
	if len(games) == 0 {
		return false, nil
	}
	for _, game := range games {
		if !game.Terminal() {
			return false, nil
		}
	}

	event, err := s.loadEvent(ctx, round.EventID)
	if err != nil {
		return false, err
	}

	avgVP := averageVP(games)
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Byes are credited the rounded average VP of the played games
		// before locking, so standings treat them as full wins.
		for _, game := range games {
			if game.IsBye() && game.P1VP == nil {
				if txErr := s.gameRepo.UpdateScores(ctx, exec, game.ID, avgVP, 0, game.Version); txErr != nil {
					return mapGameConflict(txErr)
				}
			}
		}
		if txErr := s.gameRepo.LockConfirmedByRound(ctx, exec, round.ID); txErr != nil {
			return txErr
		}
		if txErr := s.roundRepo.UpdateState(ctx, exec, round.ID, models.RoundComplete, round.DeadlineWarned, round.Version); txErr != nil {
			return mapRoundConflict(txErr)
		}
		if round.Number >= event.RoundCount {
			return s.eventRepo.UpdatePhase(ctx, exec, event.ID, models.PhaseFinished)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if _, recomputeErr := s.standings.Recompute(ctx, round.EventID); recomputeErr != nil {
		s.logger.Error("standings recomputation after round completion failed",
			slog.Int("round_id", round.ID), slog.Any("error", recomputeErr))
	}

	round.State = models.RoundComplete
	s.broadcastRound(pairing.EventRoundComplete, round)
	return true, nil
}

func (s *roundService) GetRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	round.Games = games
	return round, nil
}

func (s *roundService) CheckDeadlines(ctx context.Context) error {
	rounds, err := s.roundRepo.ListForDeadlineWarning(ctx, s.now().Add(deadlineWarnLead))
	if err != nil {
		return fmt.Errorf("deadline sweep query failed: %w", err)
	}
	for _, round := range rounds {
		err := s.roundRepo.UpdateState(ctx, nil, round.ID, models.RoundDeadlineWarned, true, round.Version)
		if err != nil {
			if errors.Is(err, repositories.ErrRoundConflict) {
				// Another sweep or a game transition got there first.
				continue
			}
			s.logger.Error("deadline warning failed", slog.Int("round_id", round.ID), slog.Any("error", err))
			continue
		}
		round.State = models.RoundDeadlineWarned
		round.DeadlineWarned = true
		s.broadcastRound(pairing.EventDeadlineWarning, round)
	}
	return nil
}

func (s *roundService) loadEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	return event, nil
}

func (s *roundService) loadRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to load round %d: %w", roundID, err)
	}
	return round, nil
}

// loadRoster returns the pairable registrations: active with an approved
// list. regs carries every registration for history purposes.
func (s *roundService) loadRoster(ctx context.Context, event *models.Event) ([]*models.Registration, []*models.Registration, error) {
	regs, err := s.regRepo.ListByEvent(ctx, event.ID, nil)
	if err != nil {
		return nil, nil, err
	}
	roster := make([]*models.Registration, 0, len(regs))
	for _, reg := range regs {
		if reg.Status == models.RegistrationActive && reg.ListApproved {
			roster = append(roster, reg)
		}
	}
	if len(roster) < 2 {
		return roster, regs, fmt.Errorf("%w: %d pairable participants", ErrInvalidRoster, len(roster))
	}
	return roster, regs, nil
}

func (s *roundService) previousRooms(ctx context.Context, event *models.Event, number int) (map[int]string, error) {
	if number < 1 {
		return nil, nil
	}
	prev, err := s.roundRepo.GetByEventAndNumber(ctx, event.ID, number)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, nil
		}
		return nil, err
	}
	games, err := s.gameRepo.ListByRound(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	rooms := make(map[int]string)
	for _, game := range games {
		if game.Room == nil {
			continue
		}
		for _, id := range gameParticipants(event, game) {
			if _, ok := rooms[id]; !ok {
				rooms[id] = *game.Room
			}
		}
	}
	return rooms, nil
}

// buildGames expands the pairing result into game rows. Team pairings
// become one board game per roster slot, matched slot-for-slot, all
// sharing the pairing's room.
func (s *roundService) buildGames(ctx context.Context, event *models.Event, result *pairing.Result, roomByPair map[pairing.Pair]string) ([]*models.Game, error) {
	games := make([]*models.Game, 0, len(result.Pairs)+1)
	for _, pair := range result.Pairs {
		room := roomByPair[pair]
		if event.Format == models.FormatTeams {
			boards, err := s.boardGames(ctx, event, pair, room)
			if err != nil {
				return nil, err
			}
			games = append(games, boards...)
			continue
		}
		games = append(games, &models.Game{
			P1ID:  intPtr(pair.A),
			P2ID:  intPtr(pair.B),
			Room:  &room,
			State: models.GameUnplayed,
		})
	}
	if result.Bye != nil {
		games = append(games, s.byeGame(event, *result.Bye))
	}
	return games, nil
}

func (s *roundService) boardGames(ctx context.Context, event *models.Event, pair pairing.Pair, room string) ([]*models.Game, error) {
	members1, err := s.teamRepo.ListMembers(ctx, pair.A)
	if err != nil {
		return nil, err
	}
	members2, err := s.teamRepo.ListMembers(ctx, pair.B)
	if err != nil {
		return nil, err
	}
	if len(members1) < event.TeamSize || len(members2) < event.TeamSize {
		return nil, fmt.Errorf("%w: team roster incomplete for pairing %d vs %d", ErrInvalidRoster, pair.A, pair.B)
	}

	boards := make([]*models.Game, 0, event.TeamSize)
	for slot := 0; slot < event.TeamSize; slot++ {
		boards = append(boards, &models.Game{
			P1ID:  intPtr(members1[slot].UserID),
			P2ID:  intPtr(members2[slot].UserID),
			T1ID:  intPtr(pair.A),
			T2ID:  intPtr(pair.B),
			Slot:  slot + 1,
			Room:  &room,
			State: models.GameUnplayed,
		})
	}
	return boards, nil
}

// byeGame builds the unopposed game for the bye recipient. It is born
// confirmed; the VP credit happens when the round closes.
func (s *roundService) byeGame(event *models.Event, participantID int) *models.Game {
	game := &models.Game{
		State:         models.GameConfirmed,
		AutoConfirmed: true,
	}
	if event.Format == models.FormatTeams {
		game.T1ID = intPtr(participantID)
	} else {
		game.P1ID = intPtr(participantID)
	}
	return game
}

func (s *roundService) broadcastRound(eventType string, round *models.Round) {
	room := eventRoom(round.EventID)
	s.hub.BroadcastToRoom(room, pairing.WebSocketMessage{
		Type:    eventType,
		Payload: round,
		RoomID:  room,
	})
}

// buildPairingRoster folds standings into the pairing view of the roster.
func buildPairingRoster(event *models.Event, regs []*models.Registration, roster []*models.Registration, games []*models.Game) []pairing.Participant {
	standings := ComputeStandings(event, regs, games)
	byID := make(map[int]models.Standing, len(standings))
	for _, row := range standings {
		byID[row.ParticipantID] = row
	}

	participants := make([]pairing.Participant, 0, len(roster))
	for _, reg := range roster {
		row := byID[reg.ParticipantID]
		participants = append(participants, pairing.Participant{
			ID:     reg.ParticipantID,
			Score:  row.Points,
			VPDiff: row.VPDiff,
			HasBye: row.Byes > 0,
		})
	}
	return participants
}

// buildHistory collects every pair that has met, skipping discarded games.
func buildHistory(event *models.Event, games []*models.Game, skip map[int]bool) pairing.History {
	history := pairing.History{}
	for _, game := range games {
		if skip[game.ID] || game.IsBye() {
			continue
		}
		if event.Format == models.FormatTeams {
			if game.T1ID != nil && game.T2ID != nil {
				history.Add(*game.T1ID, *game.T2ID)
			}
			continue
		}
		if game.P1ID != nil && game.P2ID != nil {
			history.Add(*game.P1ID, *game.P2ID)
		}
	}
	return history
}

// gameParticipants returns the pairing-level participant ids of a game:
// team ids in the teams format, player ids in singles.
func gameParticipants(event *models.Event, game *models.Game) []int {
	ids := make([]int, 0, 2)
	if event.Format == models.FormatTeams {
		if game.T1ID != nil {
			ids = append(ids, *game.T1ID)
		}
		if game.T2ID != nil {
			ids = append(ids, *game.T2ID)
		}
		return ids
	}
	if game.P1ID != nil {
		ids = append(ids, *game.P1ID)
	}
	if game.P2ID != nil {
		ids = append(ids, *game.P2ID)
	}
	return ids
}

// averageVP is the bye credit: the rounded mean of every side's VP across
// the played games of the round.
func averageVP(games []*models.Game) int {
	total, sides := 0, 0
	for _, game := range games {
		if game.IsBye() || !game.Terminal() {
			continue
		}
		total += derefInt(game.P1VP) + derefInt(game.P2VP)
		sides += 2
	}
	if sides == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(sides)))
}

func mapPairingError(err error) error {
	switch {
	case errors.Is(err, pairing.ErrInsufficientRoster):
		return fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	case errors.Is(err, pairing.ErrInfeasiblePairing):
		return fmt.Errorf("%w: %v", ErrInfeasiblePairing, err)
	default:
		return err
	}
}

func mapRoundConflict(err error) error {
	if errors.Is(err, repositories.ErrRoundConflict) {
		return fmt.Errorf("%w: round", ErrConflict)
	}
	return err
}

func mapGameConflict(err error) error {
	if errors.Is(err, repositories.ErrGameConflict) {
		return fmt.Errorf("%w: game", ErrConflict)
	}
	return err
}
