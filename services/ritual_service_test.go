package services

import (
	"context"
	"testing"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/pairing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRitualService(repo *fakeRitualRepo) *ritualService {
	svc := NewRitualService(repo, pairing.NewHub(), 10*time.Minute).(*ritualService)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc
}

func scriptedRolls(values ...int) func(int) int {
	i := 0
	return func(dieSize int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestResolveByeContentionOpensSession(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)

	_, _, err := svc.ResolveByeContention(context.Background(), 1, 2, []int{7, 9})
	require.ErrorIs(t, err, ErrRitualPending)

	session, err := repo.GetPending(context.Background(), 1, 2, models.RitualByeDecision)
	require.NoError(t, err)
	assert.Equal(t, models.RitualOpen, session.State)
	assert.Equal(t, 20, session.DieSize)
	assert.ElementsMatch(t, []int{7, 9}, session.Participants)
}

func TestResolveByeContentionReturnsResolvedWinner(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	_, _, err := svc.ResolveByeContention(ctx, 1, 2, []int{7, 9})
	require.ErrorIs(t, err, ErrRitualPending)

	pending, err := repo.GetPending(ctx, 1, 2, models.RitualByeDecision)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateResolved(ctx, nil, pending.ID, 9))

	winner, sessionID, err := svc.ResolveByeContention(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)
	assert.Equal(t, 9, winner)
	assert.Equal(t, pending.ID, sessionID)
}

func TestResolveByeContentionExpiredFallsBackToLowestID(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	_, _, err := svc.ResolveByeContention(ctx, 1, 2, []int{7, 9})
	require.ErrorIs(t, err, ErrRitualPending)

	// Move past the wait window.
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC) }

	winner, sessionID, err := svc.ResolveByeContention(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)
	assert.Equal(t, 7, winner)
	assert.Equal(t, uuid.Nil, sessionID, "a fallback outcome has no session to consume")

	_, err = repo.GetPending(ctx, 1, 2, models.RitualByeDecision)
	assert.Error(t, err, "the expired session must not stay pending")
}

func TestResolveByeContentionSingleContenderSkipsRitual(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	winner, sessionID, err := svc.ResolveByeContention(ctx, 1, 2, []int{5})
	require.NoError(t, err)
	assert.Equal(t, 5, winner)
	assert.Equal(t, uuid.Nil, sessionID)

	_, err = repo.GetPending(ctx, 1, 2, models.RitualByeDecision)
	assert.Error(t, err, "a lone contender must not open a session")
}

func TestResolveByeContentionReplacesStaleContenderSet(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	_, _, err := svc.ResolveByeContention(ctx, 1, 2, []int{7, 9})
	require.ErrorIs(t, err, ErrRitualPending)

	// A drop changed the tie: different contenders need a fresh session.
	_, _, err = svc.ResolveByeContention(ctx, 1, 2, []int{7, 11})
	require.ErrorIs(t, err, ErrRitualPending)

	session, err := repo.GetPending(ctx, 1, 2, models.RitualByeDecision)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{7, 11}, session.Participants)
}

func TestSubmitRollResolvesOnUniqueMaximum(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	svc.roll = scriptedRolls(14, 3)
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	require.NoError(t, err)
	updated, err := svc.SubmitRoll(ctx, session.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, models.RitualResolved, updated.State)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, 7, *updated.WinnerID)
}

func TestSubmitRollTieTriggersReroll(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	svc.roll = scriptedRolls(5, 5, 2, 6)
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	require.NoError(t, err)
	tied, err := svc.SubmitRoll(ctx, session.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, models.RitualOpen, tied.State)
	assert.Equal(t, 1, tied.RerollRound)

	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	require.NoError(t, err)
	resolved, err := svc.SubmitRoll(ctx, session.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, models.RitualResolved, resolved.State)
	require.NotNil(t, resolved.WinnerID)
	assert.Equal(t, 9, *resolved.WinnerID)
}

func TestSubmitRollRerollCapFallsBackToLowestID(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	// Every roll ties.
	svc.roll = func(int) int { return 4 }
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	var last *models.RitualSession
	for round := 0; round < maxRerollRounds; round++ {
		_, err = svc.SubmitRoll(ctx, session.ID, 7)
		require.NoError(t, err)
		last, err = svc.SubmitRoll(ctx, session.ID, 9)
		require.NoError(t, err)
	}

	assert.Equal(t, models.RitualResolved, last.State)
	require.NotNil(t, last.WinnerID)
	assert.Equal(t, 7, *last.WinnerID)
}

func TestSubmitRollRejectsOutsiders(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	_, err = svc.SubmitRoll(ctx, session.ID, 42)
	assert.ErrorIs(t, err, ErrRitualNotContender)
}

func TestSubmitRollRejectsDoubleRoll(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	require.NoError(t, err)
	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	assert.ErrorIs(t, err, ErrRitualAlreadyRolled)
}

func TestSubmitRollExpiredSession(t *testing.T) {
	repo := newFakeRitualRepo()
	svc := newTestRitualService(repo)
	ctx := context.Background()

	session, err := svc.OpenSeatRoll(ctx, 1, 2, []int{7, 9})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC) }

	_, err = svc.SubmitRoll(ctx, session.ID, 7)
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RitualExpired, stored.State)
}
