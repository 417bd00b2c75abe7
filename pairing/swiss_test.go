package pairing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwissEvenRosterPerfectMatching(t *testing.T) {
	roster := []Participant{
		{ID: 1, Score: 6},
		{ID: 2, Score: 6},
		{ID: 3, Score: 3},
		{ID: 4, Score: 3},
		{ID: 5, Score: 0},
		{ID: 6, Score: 0},
	}

	result, err := Swiss(roster, History{}, nil)
	require.NoError(t, err)
	require.Nil(t, result.Bye)
	require.Len(t, result.Pairs, 3)
	assert.Equal(t, 0, result.Repeats)

	seen := map[int]bool{}
	for _, p := range result.Pairs {
		assert.False(t, seen[p.A], "participant %d paired twice", p.A)
		assert.False(t, seen[p.B], "participant %d paired twice", p.B)
		seen[p.A], seen[p.B] = true, true
	}
	assert.Len(t, seen, 6)

	// Adjacent scores pair together when nothing forbids it.
	assert.Equal(t, []Pair{{A: 1, B: 2}, {A: 3, B: 4}, {A: 5, B: 6}}, result.Pairs)
}

func TestSwissOddRosterFirstRound(t *testing.T) {
	roster := []Participant{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
	}

	result, err := Swiss(roster, History{}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Bye)

	// All scores zero, so the lowest id takes the bye.
	assert.Equal(t, 1, *result.Bye)
	assert.Equal(t, []Pair{{A: 2, B: 3}, {A: 4, B: 5}}, result.Pairs)
}

func TestSwissByePrefersNoPriorBye(t *testing.T) {
	roster := []Participant{
		{ID: 1, HasBye: true},
		{ID: 2}, {ID: 3}, {ID: 4}, {ID: 5},
	}

	result, err := Swiss(roster, History{}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Bye)
	assert.Equal(t, 2, *result.Bye)
}

func TestSwissByePrefersLowestScore(t *testing.T) {
	roster := []Participant{
		{ID: 1, Score: 3},
		{ID: 2, Score: 3},
		{ID: 3, Score: 0},
		{ID: 4, Score: 3},
		{ID: 5, Score: 3},
	}

	var got []int
	resolver := func(contenders []int) (int, error) {
		got = contenders
		return LowestID(contenders)
	}

	result, err := Swiss(roster, History{}, resolver)
	require.NoError(t, err)
	require.NotNil(t, result.Bye)
	assert.Equal(t, 3, *result.Bye)
	assert.Equal(t, []int{3}, got, "only the lowest-score participant should contend")
}

func TestSwissByeResolverErrorAborts(t *testing.T) {
	errPending := errors.New("tie-break pending")
	roster := []Participant{{ID: 1}, {ID: 2}, {ID: 3}}

	_, err := Swiss(roster, History{}, func([]int) (int, error) {
		return 0, errPending
	})
	require.ErrorIs(t, err, errPending)
}

func TestSwissAvoidsRepeatsWhenPossible(t *testing.T) {
	roster := []Participant{
		{ID: 1, Score: 3},
		{ID: 2, Score: 3},
		{ID: 3, Score: 0},
		{ID: 4, Score: 0},
	}
	history := History{}
	history.Add(1, 2)
	history.Add(3, 4)

	result, err := Swiss(roster, history, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Repeats)
	assert.Equal(t, []Pair{{A: 1, B: 3}, {A: 2, B: 4}}, result.Pairs)
}

func TestSwissMinimalForcedRepeats(t *testing.T) {
	roster := []Participant{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4},
	}
	history := History{}
	for a := 1; a <= 4; a++ {
		for b := a + 1; b <= 4; b++ {
			history.Add(a, b)
		}
	}

	result, err := Swiss(roster, history, nil)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 2)

	// Every pair has met already: both pairings are forced repeats, and
	// the search must not fail over that.
	assert.Equal(t, 2, result.Repeats)
}

func TestSwissSingleForcedRepeatIsMinimum(t *testing.T) {
	// 1 has played everyone, nobody else has met. Exactly one repeat is
	// unavoidable; the matching must not contain more.
	roster := []Participant{
		{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4},
	}
	history := History{}
	history.Add(1, 2)
	history.Add(1, 3)
	history.Add(1, 4)

	result, err := Swiss(roster, history, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Repeats)
}

func TestSwissInsufficientRoster(t *testing.T) {
	_, err := Swiss([]Participant{{ID: 1}}, History{}, nil)
	require.ErrorIs(t, err, ErrInsufficientRoster)

	_, err = Swiss(nil, History{}, nil)
	require.ErrorIs(t, err, ErrInsufficientRoster)
}

func TestSwissDeterministic(t *testing.T) {
	roster := []Participant{
		{ID: 7, Score: 3, VPDiff: 10},
		{ID: 2, Score: 3, VPDiff: -4},
		{ID: 5, Score: 6, VPDiff: 2},
		{ID: 9, Score: 0, VPDiff: 0},
		{ID: 4, Score: 3, VPDiff: 10},
	}
	history := History{}
	history.Add(5, 7)

	first, err := Swiss(roster, history, nil)
	require.NoError(t, err)
	second, err := Swiss(roster, history, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
