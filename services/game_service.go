package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/affendiariffin/TO-Bot/repositories"
)

type ReportScoresInput struct {
	ReporterID int
	P1VP       int
	P2VP       int
}

type OverrideInput struct {
	OrganizerID int
	P1VP        int
	P2VP        int
	Reason      string
}

type GameService interface {
	GetGame(ctx context.Context, gameID int) (*models.Game, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Game, error)
	// ReportResult records the first score claim for an unplayed game.
	ReportResult(ctx context.Context, gameID int, input ReportScoresInput) (*models.Game, error)
	// ConfirmResult is the opponent's acknowledgement. A score claim that
	// contradicts the report marks the game disputed and returns
	// ErrDisputed together with the updated game.
	ConfirmResult(ctx context.Context, gameID, userID int, claimP1VP, claimP2VP *int) (*models.Game, error)
	// OverrideResult lets an organizer rewrite the score of any game,
	// locked ones included, leaving an audit record. Overriding a game in
	// a completed round re-credits the round's bye from the new average.
	OverrideResult(ctx context.Context, gameID int, input OverrideInput) (*models.Game, error)
	ListOverrides(ctx context.Context, gameID int) ([]*models.GameOverride, error)
	// CheckAutoConfirm confirms reported games whose confirmation window
	// has lapsed. Safe to run repeatedly.
	CheckAutoConfirm(ctx context.Context) error
}

type gameService struct {
	txManager         repositories.TxManager
	gameRepo          repositories.GameRepository
	roundRepo         repositories.RoundRepository
	overrideRepo      repositories.OverrideRepository
	rounds            RoundCompleter
	standings         StandingsService
	hub               *pairing.Hub
	logger            *slog.Logger
	autoConfirmWindow time.Duration
	now               func() time.Time
}

func NewGameService(
	txManager repositories.TxManager,
	gameRepo repositories.GameRepository,
	roundRepo repositories.RoundRepository,
	overrideRepo repositories.OverrideRepository,
	rounds RoundCompleter,
	standings StandingsService,
	hub *pairing.Hub,
	logger *slog.Logger,
	autoConfirmWindow time.Duration,
) GameService {
	return &gameService{
		txManager:         txManager,
		gameRepo:          gameRepo,
		roundRepo:         roundRepo,
		overrideRepo:      overrideRepo,
		rounds:            rounds,
		standings:         standings,
		hub:               hub,
		logger:            logger,
		autoConfirmWindow: autoConfirmWindow,
		now:               time.Now,
	}
}

func (s *gameService) GetGame(ctx context.Context, gameID int) (*models.Game, error) {
	return s.loadGame(ctx, gameID)
}

func (s *gameService) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	return s.gameRepo.ListByRound(ctx, roundID)
}

func (s *gameService) ReportResult(ctx context.Context, gameID int, input ReportScoresInput) (*models.Game, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.IsBye() {
		return nil, fmt.Errorf("%w: bye games carry no report", ErrInvalidTransition)
	}
	if game.State != models.GameUnplayed {
		return nil, fmt.Errorf("%w: game is %s", ErrInvalidTransition, game.State)
	}
	if !game.HasParticipant(input.ReporterID) {
		return nil, ErrNotGameParticipant
	}
	if input.P1VP < 0 || input.P2VP < 0 {
		return nil, fmt.Errorf("%w: victory points cannot be negative", ErrValidationFailed)
	}

	err = s.gameRepo.UpdateReport(ctx, nil, game.ID, input.P1VP, input.P2VP, input.ReporterID, game.Version)
	if err != nil {
		return nil, mapGameConflict(err)
	}

	game, err = s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.broadcastGame(ctx, pairing.EventGameReported, game)
	return game, nil
}

func (s *gameService) ConfirmResult(ctx context.Context, gameID, userID int, claimP1VP, claimP2VP *int) (*models.Game, error) {
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.State != models.GameReported {
		return nil, fmt.Errorf("%w: game is %s", ErrInvalidTransition, game.State)
	}
	if !game.HasParticipant(userID) {
		return nil, ErrNotGameParticipant
	}
	if game.ReporterID != nil && *game.ReporterID == userID {
		return nil, ErrReporterCannotConfirm
	}

	if claimsDisagree(game, claimP1VP, claimP2VP) {
		if updErr := s.gameRepo.UpdateState(ctx, nil, game.ID, models.GameDisputed, game.Version); updErr != nil {
			return nil, mapGameConflict(updErr)
		}
		game.State = models.GameDisputed
		game.Version++
		return game, fmt.Errorf("%w: reported %d-%d, confirmer claims %d-%d",
			ErrDisputed, derefInt(game.P1VP), derefInt(game.P2VP), derefInt(claimP1VP), derefInt(claimP2VP))
	}

	if err := s.gameRepo.UpdateConfirm(ctx, nil, game.ID, &userID, false, game.Version); err != nil {
		return nil, mapGameConflict(err)
	}

	game, err = s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.broadcastGame(ctx, pairing.EventGameConfirmed, game)
	s.afterTerminal(ctx, game)
	return game, nil
}

func (s *gameService) OverrideResult(ctx context.Context, gameID int, input OverrideInput) (*models.Game, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, ErrOverrideReasonNeeded
	}
	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if input.P1VP < 0 || input.P2VP < 0 {
		return nil, fmt.Errorf("%w: victory points cannot be negative", ErrValidationFailed)
	}

	// Locked games stay locked; everything else lands on confirmed.
	newState := models.GameConfirmed
	if game.State == models.GameLocked {
		newState = models.GameLocked
	}

	byeCredits, err := s.planByeRecredit(ctx, game, input)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.gameRepo.UpdateResult(ctx, exec, game.ID, input.P1VP, input.P2VP,
			newState, &input.OrganizerID, game.Version); txErr != nil {
			return mapGameConflict(txErr)
		}
		for _, credit := range byeCredits {
			if txErr := s.gameRepo.UpdateScores(ctx, exec, credit.gameID, credit.vp, 0, credit.version); txErr != nil {
				return mapGameConflict(txErr)
			}
		}
		return s.overrideRepo.Create(ctx, exec, &models.GameOverride{
			GameID:  game.ID,
			ActorID: input.OrganizerID,
			OldP1VP: game.P1VP,
			OldP2VP: game.P2VP,
			NewP1VP: input.P1VP,
			NewP2VP: input.P2VP,
			Reason:  input.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	game, err = s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.broadcastGame(ctx, pairing.EventGameOverridden, game)
	s.afterTerminal(ctx, game)
	return game, nil
}

func (s *gameService) ListOverrides(ctx context.Context, gameID int) ([]*models.GameOverride, error) {
	if _, err := s.loadGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.overrideRepo.ListByGame(ctx, gameID)
}

func (s *gameService) CheckAutoConfirm(ctx context.Context) error {
	cutoff := s.now().Add(-s.autoConfirmWindow)
	games, err := s.gameRepo.ListReportedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("auto-confirm sweep query failed: %w", err)
	}
	for _, game := range games {
		err := s.gameRepo.UpdateConfirm(ctx, nil, game.ID, nil, true, game.Version)
		if err != nil {
			if errors.Is(err, repositories.ErrGameConflict) {
				// Confirmed, disputed or overridden since we listed it.
				continue
			}
			s.logger.Error("auto-confirm failed", slog.Int("game_id", game.ID), slog.Any("error", err))
			continue
		}
		game.State = models.GameConfirmed
		game.AutoConfirmed = true
		s.broadcastGame(ctx, pairing.EventGameConfirmed, game)
		s.afterTerminal(ctx, game)
	}
	return nil
}

type byeCredit struct {
	gameID  int
	vp      int
	version int
}

// planByeRecredit computes the bye VP updates an override makes necessary.
// Byes are credited the round's average VP at completion, so rewriting a
// game of a completed round moves that average and the bye must follow.
func (s *gameService) planByeRecredit(ctx context.Context, game *models.Game, input OverrideInput) ([]byeCredit, error) {
	round, err := s.roundRepo.GetByID(ctx, game.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round %d: %w", game.RoundID, err)
	}
	if round.State != models.RoundComplete {
		return nil, nil
	}
	games, err := s.gameRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		if g.ID == game.ID {
			g.P1VP = intPtr(input.P1VP)
			g.P2VP = intPtr(input.P2VP)
		}
	}
	avg := averageVP(games)
	credits := make([]byeCredit, 0, 1)
	for _, g := range games {
		// An explicitly overridden bye keeps the organizer's score.
		if g.ID == game.ID || !g.IsBye() {
			continue
		}
		if derefInt(g.P1VP) != avg {
			credits = append(credits, byeCredit{gameID: g.ID, vp: avg, version: g.Version})
		}
	}
	return credits, nil
}

// afterTerminal runs the follow-through once a game reaches a terminal
// state: refresh standings and close the round when it was the last one.
// Both are best-effort; the confirmation itself already committed.
func (s *gameService) afterTerminal(ctx context.Context, game *models.Game) {
	round, err := s.roundRepo.GetByID(ctx, game.RoundID)
	if err != nil {
		s.logger.Error("round lookup after game completion failed",
			slog.Int("game_id", game.ID), slog.Any("error", err))
		return
	}
	if _, err := s.standings.Recompute(ctx, round.EventID); err != nil {
		s.logger.Error("standings recomputation failed",
			slog.Int("event_id", round.EventID), slog.Any("error", err))
	}
	if _, err := s.rounds.CompleteRoundIfFinished(ctx, round.ID); err != nil {
		s.logger.Error("round completion check failed",
			slog.Int("round_id", round.ID), slog.Any("error", err))
	}
}

func (s *gameService) broadcastGame(ctx context.Context, eventType string, game *models.Game) {
	round, err := s.roundRepo.GetByID(ctx, game.RoundID)
	if err != nil {
		s.logger.Error("round lookup for game broadcast failed",
			slog.Int("game_id", game.ID), slog.Any("error", err))
		return
	}
	room := eventRoom(round.EventID)
	s.hub.BroadcastToRoom(room, pairing.WebSocketMessage{
		Type:    eventType,
		Payload: game,
		RoomID:  room,
	})
}

func (s *gameService) loadGame(ctx context.Context, gameID int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}
	return game, nil
}

// claimsDisagree reports whether the confirmer's optional counter-claim
// contradicts the reported scores. Absent claims count as agreement.
func claimsDisagree(game *models.Game, claimP1VP, claimP2VP *int) bool {
	if claimP1VP == nil && claimP2VP == nil {
		return false
	}
	if claimP1VP != nil && derefInt(game.P1VP) != *claimP1VP {
		return true
	}
	if claimP2VP != nil && derefInt(game.P2VP) != *claimP2VP {
		return true
	}
	return false
}
