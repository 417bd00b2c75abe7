package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/affendiariffin/TO-Bot/repositories"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	GetStandings(ctx context.Context, eventID int) ([]models.Standing, error)
	// Recompute rebuilds the standings from persisted games and pushes a
	// standings update to the event room.
	Recompute(ctx context.Context, eventID int) ([]models.Standing, error)
}

type standingsService struct {
	eventRepo repositories.EventRepository
	regRepo   repositories.RegistrationRepository
	gameRepo  repositories.GameRepository
	hub       *pairing.Hub
}

func NewStandingsService(
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	gameRepo repositories.GameRepository,
	hub *pairing.Hub,
) StandingsService {
	return &standingsService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		gameRepo:  gameRepo,
		hub:       hub,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, eventID int) ([]models.Standing, error) {
	event, regs, games, err := s.loadEventData(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return ComputeStandings(event, regs, games), nil
}

func (s *standingsService) Recompute(ctx context.Context, eventID int) ([]models.Standing, error) {
	standings, err := s.GetStandings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(eventRoom(eventID), pairing.WebSocketMessage{
		Type:    pairing.EventStandingsUpdate,
		Payload: standings,
		RoomID:  eventRoom(eventID),
	})
	return standings, nil
}

func (s *standingsService) loadEventData(ctx context.Context, eventID int) (*models.Event, []*models.Registration, []*models.Game, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, nil, nil, ErrEventNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	var (
		regs  []*models.Registration
		games []*models.Game
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		regs, loadErr = s.regRepo.ListByEvent(gctx, eventID, nil)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		games, loadErr = s.gameRepo.ListByEvent(gctx, eventID)
		return loadErr
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load standings inputs for event %d: %w", eventID, err)
	}
	return event, regs, games, nil
}

// ComputeStandings derives the ranked table from confirmed and locked
// games. It is a pure function of its inputs: calling it any number of
// times over the same data yields identical output.
//
// Sort order: match points, VP differential, head-to-head result where the
// two participants met, then participant id.
func ComputeStandings(event *models.Event, regs []*models.Registration, games []*models.Game) []models.Standing {
	table := make(map[int]*models.Standing, len(regs))
	order := make([]int, 0, len(regs))
	for _, reg := range regs {
		if _, ok := table[reg.ParticipantID]; ok {
			continue
		}
		table[reg.ParticipantID] = &models.Standing{ParticipantID: reg.ParticipantID}
		order = append(order, reg.ParticipantID)
	}

	headToHead := make(map[pairing.Pair]int)

	if event.Format == models.FormatTeams {
		tallyTeamGames(games, table, headToHead)
	} else {
		tallySinglesGames(event, games, table, headToHead)
	}

	standings := make([]models.Standing, 0, len(order))
	for _, id := range order {
		row := table[id]
		row.VPDiff = row.VPFor - row.VPAgainst
		standings = append(standings, *row)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.VPDiff != b.VPDiff {
			return a.VPDiff > b.VPDiff
		}
		if winner, ok := headToHead[pairing.NewPair(a.ParticipantID, b.ParticipantID)]; ok {
			if winner == a.ParticipantID {
				return true
			}
			if winner == b.ParticipantID {
				return false
			}
		}
		return a.ParticipantID < b.ParticipantID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

func tallySinglesGames(event *models.Event, games []*models.Game, table map[int]*models.Standing, headToHead map[pairing.Pair]int) {
	for _, game := range games {
		if !game.Terminal() || game.P1ID == nil {
			continue
		}
		p1 := table[*game.P1ID]
		if p1 == nil {
			continue
		}
		if game.IsBye() {
			p1.Byes++
			creditResult(event, p1, nil, derefInt(game.P1VP), 0)
			continue
		}
		p2 := table[*game.P2ID]
		if p2 == nil {
			continue
		}
		creditResult(event, p1, p2, derefInt(game.P1VP), derefInt(game.P2VP))
		recordHeadToHead(headToHead, *game.P1ID, *game.P2ID, derefInt(game.P1VP), derefInt(game.P2VP))
	}
}

// tallyTeamGames folds board games back into team results: a team pairing
// counts once all its boards are terminal, the side with more board wins
// takes the round, and VP totals are summed across boards.
func tallyTeamGames(games []*models.Game, table map[int]*models.Standing, headToHead map[pairing.Pair]int) {
	type pairKey struct {
		roundID int
		teams   pairing.Pair
	}
	type pairTally struct {
		t1, t2       int
		boards       int
		terminal     int
		wins1, wins2 int
		vp1, vp2     int
	}

	tallies := make(map[pairKey]*pairTally)
	keys := make([]pairKey, 0)

	for _, game := range games {
		if game.T1ID == nil {
			continue
		}
		if game.IsBye() {
			if game.Terminal() {
				if row := table[*game.T1ID]; row != nil {
					row.Byes++
					row.Wins++
					row.Points += teamPointsWin
					row.VPFor += derefInt(game.P1VP)
				}
			}
			continue
		}
		key := pairKey{roundID: game.RoundID, teams: pairing.NewPair(*game.T1ID, *game.T2ID)}
		tally, ok := tallies[key]
		if !ok {
			tally = &pairTally{t1: key.teams.A, t2: key.teams.B}
			tallies[key] = tally
			keys = append(keys, key)
		}
		tally.boards++
		if !game.Terminal() {
			continue
		}
		tally.terminal++

		// Normalize board scores onto the (t1, t2) orientation.
		vpA, vpB := derefInt(game.P1VP), derefInt(game.P2VP)
		if *game.T1ID != tally.t1 {
			vpA, vpB = vpB, vpA
		}
		tally.vp1 += vpA
		tally.vp2 += vpB
		switch {
		case vpA > vpB:
			tally.wins1++
		case vpB > vpA:
			tally.wins2++
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].roundID != keys[j].roundID {
			return keys[i].roundID < keys[j].roundID
		}
		if keys[i].teams.A != keys[j].teams.A {
			return keys[i].teams.A < keys[j].teams.A
		}
		return keys[i].teams.B < keys[j].teams.B
	})

	for _, key := range keys {
		tally := tallies[key]
		if tally.terminal < tally.boards {
			continue
		}
		row1, row2 := table[tally.t1], table[tally.t2]
		if row1 == nil || row2 == nil {
			continue
		}
		// Team VP are the summed board VP; the round goes to the side
		// with more board wins.
		switch {
		case tally.wins1 > tally.wins2:
			creditOutcome(row1, row2, 1)
			headToHead[key.teams] = tally.t1
		case tally.wins2 > tally.wins1:
			creditOutcome(row1, row2, -1)
			headToHead[key.teams] = tally.t2
		default:
			creditOutcome(row1, row2, 0)
		}
		row1.VPFor += tally.vp1
		row1.VPAgainst += tally.vp2
		row2.VPFor += tally.vp2
		row2.VPAgainst += tally.vp1
	}
}

// creditResult updates one or two singles rows for a finished game. p2 is
// nil for byes, which count as wins.
func creditResult(event *models.Event, p1, p2 *models.Standing, vp1, vp2 int) {
	p1.VPFor += vp1
	p1.VPAgainst += vp2
	if p2 != nil {
		p2.VPFor += vp2
		p2.VPAgainst += vp1
	}
	switch {
	case p2 == nil || vp1 > vp2:
		p1.Wins++
		p1.Points += event.PointsWin
		if p2 != nil {
			p2.Losses++
			p2.Points += event.PointsLoss
		}
	case vp2 > vp1:
		p1.Losses++
		p1.Points += event.PointsLoss
		p2.Wins++
		p2.Points += event.PointsWin
	default:
		p1.Draws++
		p1.Points += event.PointsDraw
		p2.Draws++
		p2.Points += event.PointsDraw
	}
}

// Team-level round points are fixed at 2/1/0. The configurable event
// points apply to singles games only.
const (
	teamPointsWin  = 2
	teamPointsDraw = 1
	teamPointsLoss = 0
)

// creditOutcome applies a team-level round result: outcome 1 means row1
// won, -1 means row2 won, 0 is a draw.
func creditOutcome(row1, row2 *models.Standing, outcome int) {
	switch {
	case outcome > 0:
		row1.Wins++
		row1.Points += teamPointsWin
		row2.Losses++
		row2.Points += teamPointsLoss
	case outcome < 0:
		row2.Wins++
		row2.Points += teamPointsWin
		row1.Losses++
		row1.Points += teamPointsLoss
	default:
		row1.Draws++
		row1.Points += teamPointsDraw
		row2.Draws++
		row2.Points += teamPointsDraw
	}
}

func recordHeadToHead(headToHead map[pairing.Pair]int, p1, p2, vp1, vp2 int) {
	switch {
	case vp1 > vp2:
		headToHead[pairing.NewPair(p1, p2)] = p1
	case vp2 > vp1:
		headToHead[pairing.NewPair(p1, p2)] = p2
	}
}
