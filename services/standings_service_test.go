package services

import (
	"testing"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singlesEvent() *models.Event {
	return &models.Event{
		ID:         1,
		Format:     models.FormatSingles,
		PointsWin:  3,
		PointsDraw: 1,
		PointsLoss: 0,
	}
}

func regsFor(eventID int, participantIDs ...int) []*models.Registration {
	regs := make([]*models.Registration, 0, len(participantIDs))
	for _, id := range participantIDs {
		regs = append(regs, &models.Registration{EventID: eventID, ParticipantID: id, Status: models.RegistrationActive})
	}
	return regs
}

func confirmedGame(roundID, p1, p2, vp1, vp2 int) *models.Game {
	return &models.Game{
		RoundID: roundID,
		P1ID:    &p1,
		P2ID:    &p2,
		P1VP:    &vp1,
		P2VP:    &vp2,
		State:   models.GameConfirmed,
	}
}

func TestComputeStandingsPointsAndVPDiff(t *testing.T) {
	event := singlesEvent()
	regs := regsFor(1, 1, 2, 3, 4)
	games := []*models.Game{
		confirmedGame(10, 1, 2, 15, 5),
		confirmedGame(10, 3, 4, 12, 8),
		confirmedGame(11, 1, 3, 10, 10),
		confirmedGame(11, 2, 4, 6, 14),
	}

	standings := ComputeStandings(event, regs, games)
	require.Len(t, standings, 4)

	// 1: win + draw = 4 pts, diff +10. 3: win + draw = 4 pts, diff +4.
	assert.Equal(t, 1, standings[0].ParticipantID)
	assert.Equal(t, 4, standings[0].Points)
	assert.Equal(t, 10, standings[0].VPDiff)
	assert.Equal(t, 1, standings[0].Rank)

	assert.Equal(t, 3, standings[1].ParticipantID)
	assert.Equal(t, 4, standings[1].Points)

	// 4: one win, one loss = 3 pts. 2: one loss each way = 0 pts.
	assert.Equal(t, 4, standings[2].ParticipantID)
	assert.Equal(t, 2, standings[3].ParticipantID)
	assert.Equal(t, 4, standings[3].Rank)
}

func TestComputeStandingsIgnoresNonTerminalGames(t *testing.T) {
	event := singlesEvent()
	regs := regsFor(1, 1, 2)

	reported := confirmedGame(10, 1, 2, 20, 0)
	reported.State = models.GameReported
	disputed := confirmedGame(10, 2, 1, 20, 0)
	disputed.State = models.GameDisputed

	standings := ComputeStandings(event, regs, []*models.Game{reported, disputed})
	require.Len(t, standings, 2)
	for _, row := range standings {
		assert.Zero(t, row.Points)
		assert.Zero(t, row.Wins)
		assert.Zero(t, row.VPFor)
	}
}

func TestComputeStandingsByeCountsAsWin(t *testing.T) {
	event := singlesEvent()
	regs := regsFor(1, 1, 2, 3)

	byeVP := 10
	p1 := 3
	bye := &models.Game{RoundID: 10, P1ID: &p1, P1VP: &byeVP, State: models.GameConfirmed, AutoConfirmed: true}
	games := []*models.Game{
		confirmedGame(10, 1, 2, 12, 8),
		bye,
	}

	standings := ComputeStandings(event, regs, games)
	require.Len(t, standings, 3)

	var row3 models.Standing
	for _, row := range standings {
		if row.ParticipantID == 3 {
			row3 = row
		}
	}
	assert.Equal(t, 1, row3.Byes)
	assert.Equal(t, 1, row3.Wins)
	assert.Equal(t, 3, row3.Points)
	assert.Equal(t, 10, row3.VPFor)
}

func TestComputeStandingsHeadToHeadBreaksTies(t *testing.T) {
	event := singlesEvent()
	regs := regsFor(1, 1, 2, 3, 4)
	// 2 beats 1 directly; both finish on identical points and VP diff.
	games := []*models.Game{
		confirmedGame(10, 2, 1, 11, 9),
		confirmedGame(11, 1, 3, 11, 9),
		confirmedGame(11, 2, 4, 9, 11),
	}

	standings := ComputeStandings(event, regs, games)
	require.Len(t, standings, 4)

	pos := make(map[int]int)
	for i, row := range standings {
		pos[row.ParticipantID] = i
	}
	assert.Less(t, pos[2], pos[1], "head-to-head winner must rank above the loser")
}

func TestComputeStandingsDeterministic(t *testing.T) {
	event := singlesEvent()
	regs := regsFor(1, 1, 2, 3, 4)
	games := []*models.Game{
		confirmedGame(10, 1, 2, 10, 10),
		confirmedGame(10, 3, 4, 10, 10),
	}

	first := ComputeStandings(event, regs, games)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStandings(event, regs, games))
	}
}

func TestComputeStandingsTeamsBoardAggregation(t *testing.T) {
	event := &models.Event{
		ID:         1,
		Format:     models.FormatTeams,
		TeamSize:   2,
		PointsWin:  3,
		PointsDraw: 1,
		PointsLoss: 0,
	}
	regs := regsFor(1, 100, 200)

	t1, t2 := 100, 200
	board := func(p1, p2, vp1, vp2, slot int, state models.GameState) *models.Game {
		return &models.Game{
			RoundID: 10,
			P1ID:    &p1, P2ID: &p2,
			T1ID: &t1, T2ID: &t2,
			Slot: slot,
			P1VP: &vp1, P2VP: &vp2,
			State: state,
		}
	}

	// Team 100 wins board 1, loses board 2 by less: 1-1 on boards is a
	// draw, VP decide nothing at team level.
	games := []*models.Game{
		board(1, 3, 15, 5, 1, models.GameConfirmed),
		board(2, 4, 8, 12, 2, models.GameConfirmed),
	}

	standings := ComputeStandings(event, regs, games)
	require.Len(t, standings, 2)
	assert.Equal(t, 1, standings[0].Draws)
	assert.Equal(t, 1, standings[1].Draws)
	assert.Equal(t, 1, standings[0].Points)
	assert.Equal(t, 23, standings[0].VPFor)

	// With one board still unplayed, the pairing must not count at all.
	games[1].State = models.GameReported
	standings = ComputeStandings(event, regs, games)
	for _, row := range standings {
		assert.Zero(t, row.Points)
		assert.Zero(t, row.VPFor)
	}
}

func TestComputeStandingsTeamsUseFixedRoundPoints(t *testing.T) {
	// Team-level points are 2/1/0 regardless of the event's singles
	// configuration.
	event := &models.Event{
		ID:         1,
		Format:     models.FormatTeams,
		TeamSize:   2,
		PointsWin:  3,
		PointsDraw: 1,
		PointsLoss: 0,
	}
	regs := regsFor(1, 100, 200, 300)

	t1, t2 := 100, 200
	board := func(p1, p2, vp1, vp2, slot int) *models.Game {
		return &models.Game{
			RoundID: 10,
			P1ID:    &p1, P2ID: &p2,
			T1ID: &t1, T2ID: &t2,
			Slot:  slot,
			P1VP:  &vp1, P2VP: &vp2,
			State: models.GameConfirmed,
		}
	}
	t3 := 300
	byeVP := 11
	games := []*models.Game{
		board(1, 3, 15, 5, 1),
		board(2, 4, 12, 8, 2),
		{RoundID: 10, T1ID: &t3, P1VP: &byeVP, State: models.GameConfirmed, AutoConfirmed: true},
	}

	standings := ComputeStandings(event, regs, games)
	require.Len(t, standings, 3)

	rows := make(map[int]models.Standing)
	for _, row := range standings {
		rows[row.ParticipantID] = row
	}
	assert.Equal(t, 2, rows[100].Points, "a swept pairing is worth 2, not the singles win value")
	assert.Equal(t, 1, rows[100].Wins)
	assert.Equal(t, 0, rows[200].Points)
	assert.Equal(t, 2, rows[300].Points, "a team bye counts as a round win")
	assert.Equal(t, 1, rows[300].Byes)
	assert.Equal(t, 11, rows[300].VPFor)
}
