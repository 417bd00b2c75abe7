package pairing

import (
	"errors"
	"sort"
)

var (
	ErrInsufficientRoster = errors.New("fewer than two active participants")
	ErrInfeasiblePairing  = errors.New("no valid full pairing exists for the roster")
)

// Participant is one pairable entity: a player in singles, a team in the
// teams format. Score carries current match points, VPDiff the victory
// point differential, both used for the Swiss sort.
type Participant struct {
	ID     int
	Score  int
	VPDiff int
	HasBye bool
}

// Pair is a normalized pairing: A < B always holds.
type Pair struct {
	A int
	B int
}

// NewPair normalizes the participant order so history lookups are
// direction-agnostic.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// History records which pairs have already met this event.
type History map[Pair]struct{}

func (h History) Add(a, b int) {
	h[NewPair(a, b)] = struct{}{}
}

func (h History) Played(a, b int) bool {
	_, ok := h[NewPair(a, b)]
	return ok
}

// ByeResolver picks the bye recipient from contenders that remain tied
// after the no-prior-bye and lowest-score filters. It may return an error
// to abort pairing, e.g. while an external tie-break is still pending.
type ByeResolver func(contenders []int) (int, error)

// LowestID is the deterministic fallback resolver.
func LowestID(contenders []int) (int, error) {
	if len(contenders) == 0 {
		return 0, ErrInfeasiblePairing
	}
	min := contenders[0]
	for _, id := range contenders[1:] {
		if id < min {
			min = id
		}
	}
	return min, nil
}

// Result is a complete round proposal.
type Result struct {
	Pairs   []Pair
	Bye     *int
	Repeats int
}

// Swiss pairs the roster against its match history.
//
// The roster is sorted by score, then VP differential, then id. An odd
// roster yields exactly one bye, preferring participants without a prior
// bye, then the lowest score; remaining ties go to resolveBye (nil means
// LowestID). The remaining roster is paired adjacent-score first while
// skipping pairs present in history; when no repeat-free full matching
// exists the search re-runs with a growing repeat budget, so the returned
// matching always carries the minimum possible number of forced repeats.
func Swiss(roster []Participant, history History, resolveBye ByeResolver) (*Result, error) {
	if len(roster) < 2 {
		return nil, ErrInsufficientRoster
	}
	if resolveBye == nil {
		resolveBye = LowestID
	}

	sorted := make([]Participant, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].VPDiff != sorted[j].VPDiff {
			return sorted[i].VPDiff > sorted[j].VPDiff
		}
		return sorted[i].ID < sorted[j].ID
	})

	result := &Result{}

	if len(sorted)%2 == 1 {
		byeID, err := resolveBye(byeContenders(sorted))
		if err != nil {
			return nil, err
		}
		result.Bye = &byeID
		trimmed := sorted[:0:0]
		for _, p := range sorted {
			if p.ID != byeID {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == len(sorted) {
			return nil, ErrInfeasiblePairing
		}
		sorted = trimmed
	}

	ids := make([]int, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ID
	}

	for budget := 0; budget <= len(ids)/2; budget++ {
		if pairs, ok := matchWithBudget(ids, history, budget); ok {
			result.Pairs = pairs
			result.Repeats = budget
			return result, nil
		}
	}
	return nil, ErrInfeasiblePairing
}

// byeContenders returns the ids still tied for the bye after applying the
// preference filters: no prior bye first, then the lowest score.
func byeContenders(sorted []Participant) []int {
	pool := make([]Participant, 0, len(sorted))
	for _, p := range sorted {
		if !p.HasBye {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = sorted
	}

	lowest := pool[0].Score
	for _, p := range pool[1:] {
		if p.Score < lowest {
			lowest = p.Score
		}
	}

	contenders := make([]int, 0, len(pool))
	for _, p := range pool {
		if p.Score == lowest {
			contenders = append(contenders, p.ID)
		}
	}
	return contenders
}

// matchWithBudget searches for a perfect matching over ids, in sorted
// order, admitting at most budget repeat pairings. The head of the
// remaining list is always paired first, trying the closest-score partner
// before more distant ones.
func matchWithBudget(ids []int, history History, budget int) ([]Pair, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	head := ids[0]
	rest := ids[1:]
	for i, partner := range rest {
		repeat := history.Played(head, partner)
		if repeat && budget == 0 {
			continue
		}
		remaining := make([]int, 0, len(rest)-1)
		remaining = append(remaining, rest[:i]...)
		remaining = append(remaining, rest[i+1:]...)
		nextBudget := budget
		if repeat {
			nextBudget--
		}
		if tail, ok := matchWithBudget(remaining, history, nextBudget); ok {
			return append([]Pair{NewPair(head, partner)}, tail...), true
		}
	}
	return nil, false
}
