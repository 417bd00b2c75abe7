package services

import (
	"context"
	"sync"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/affendiariffin/TO-Bot/repositories"
	"github.com/google/uuid"
)

// In-memory repository fakes. They reproduce the version-check semantics
// of the postgres implementations so the optimistic concurrency paths are
// exercised for real.

type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int]*models.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.events {
		if existing.Name == event.Name {
			return repositories.ErrEventNameConflict
		}
	}
	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	stored := *event
	r.events[event.ID] = &stored
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) List(ctx context.Context, phase *models.EventPhase) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Event, 0, len(r.events))
	for _, event := range r.events {
		if phase != nil && event.Phase != *phase {
			continue
		}
		copied := *event
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeEventRepo) UpdatePhase(ctx context.Context, exec repositories.SQLExecutor, id int, phase models.EventPhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.Phase = phase
	return nil
}

func (r *fakeEventRepo) UpdateRoundCount(ctx context.Context, exec repositories.SQLExecutor, id int, roundCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.RoundCount = roundCount
	return nil
}

func (r *fakeEventRepo) UpdateCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id int, currentRound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.CurrentRound = currentRound
	return nil
}

func (r *fakeEventRepo) Count(ctx context.Context, phase *models.EventPhase) (int, error) {
	events, _ := r.List(ctx, phase)
	return len(events), nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	nextID int
	regs   []*models.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.regs {
		if existing.EventID == reg.EventID && existing.ParticipantID == reg.ParticipantID {
			return repositories.ErrRegistrationDuplicate
		}
	}
	r.nextID++
	reg.ID = r.nextID
	reg.CreatedAt = time.Now()
	stored := *reg
	r.regs = append(r.regs, &stored)
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) GetByEventAndParticipant(ctx context.Context, eventID, participantID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.ParticipantID == participantID {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID int, status *models.RegistrationStatus) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Registration, 0)
	for _, reg := range r.regs {
		if reg.EventID != eventID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		copied := *reg
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			reg.Status = status
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) UpdateListKey(ctx context.Context, id int, listKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			reg.ListKey = listKey
			reg.ListApproved = false
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) UpdateListApproved(ctx context.Context, id int, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.ID == id {
			reg.ListApproved = approved
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) addApproved(eventID, participantID int) {
	_ = r.Create(context.Background(), &models.Registration{
		EventID:       eventID,
		ParticipantID: participantID,
		Status:        models.RegistrationActive,
		ListApproved:  true,
	})
}

type fakeRoundRepo struct {
	mu     sync.Mutex
	nextID int
	rounds map[int]*models.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[int]*models.Round)}
}

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rounds {
		if existing.EventID == round.EventID && existing.Number == round.Number {
			return repositories.ErrRoundNumberTaken
		}
	}
	r.nextID++
	round.ID = r.nextID
	round.Version = 1
	round.CreatedAt = time.Now()
	stored := *round
	r.rounds[round.ID] = &stored
	return nil
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, id int) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *round
	return &copied, nil
}

func (r *fakeRoundRepo) GetByEventAndNumber(ctx context.Context, eventID, number int) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, round := range r.rounds {
		if round.EventID == eventID && round.Number == number {
			copied := *round
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Round, 0)
	for _, round := range r.rounds {
		if round.EventID == eventID {
			copied := *round
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) ListForDeadlineWarning(ctx context.Context, warnBefore time.Time) ([]*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Round, 0)
	for _, round := range r.rounds {
		if round.State == models.RoundActive && !round.DeadlineWarned && !round.Deadline.After(warnBefore) {
			copied := *round
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, id int, state models.RoundState, deadlineWarned bool, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok || round.Version != expectedVersion {
		return repositories.ErrRoundConflict
	}
	round.State = state
	round.DeadlineWarned = deadlineWarned
	round.Version++
	return nil
}

func (r *fakeRoundRepo) UpdateDeadline(ctx context.Context, exec repositories.SQLExecutor, id int, deadline time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.Deadline = deadline
	return nil
}

func (r *fakeRoundRepo) CountOpen(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, round := range r.rounds {
		switch round.State {
		case models.RoundAnnounced, models.RoundActive, models.RoundDeadlineWarned:
			count++
		}
	}
	return count, nil
}

type fakeGameRepo struct {
	mu     sync.Mutex
	nextID int
	games  map[int]*models.Game
	rounds *fakeRoundRepo
}

func newFakeGameRepo(rounds *fakeRoundRepo) *fakeGameRepo {
	return &fakeGameRepo{games: make(map[int]*models.Game), rounds: rounds}
}

func (r *fakeGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	game.ID = r.nextID
	game.Version = 1
	game.CreatedAt = time.Now()
	stored := *game
	r.games[game.ID] = &stored
	return nil
}

func (r *fakeGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (r *fakeGameRepo) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Game, 0)
	for id := 1; id <= r.nextID; id++ {
		game, ok := r.games[id]
		if ok && game.RoundID == roundID {
			copied := *game
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.Game, error) {
	r.mu.Lock()
	all := make([]*models.Game, 0, len(r.games))
	for id := 1; id <= r.nextID; id++ {
		if game, ok := r.games[id]; ok {
			copied := *game
			all = append(all, &copied)
		}
	}
	r.mu.Unlock()

	out := make([]*models.Game, 0, len(all))
	for _, game := range all {
		round, err := r.rounds.GetByID(ctx, game.RoundID)
		if err == nil && round.EventID == eventID {
			out = append(out, game)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) ListReportedBefore(ctx context.Context, cutoff time.Time) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Game, 0)
	for id := 1; id <= r.nextID; id++ {
		game, ok := r.games[id]
		if ok && game.State == models.GameReported && game.ReportedAt != nil && !game.ReportedAt.After(cutoff) {
			copied := *game
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) UpdateReport(ctx context.Context, exec repositories.SQLExecutor, id int, p1vp, p2vp, reporterID, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok || game.Version != expectedVersion {
		return repositories.ErrGameConflict
	}
	now := time.Now()
	game.State = models.GameReported
	game.P1VP = &p1vp
	game.P2VP = &p2vp
	game.ReporterID = &reporterID
	game.ReportedAt = &now
	game.Version++
	return nil
}

func (r *fakeGameRepo) UpdateConfirm(ctx context.Context, exec repositories.SQLExecutor, id int, confirmedBy *int, autoConfirmed bool, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok || game.Version != expectedVersion {
		return repositories.ErrGameConflict
	}
	now := time.Now()
	game.State = models.GameConfirmed
	game.ConfirmedBy = confirmedBy
	game.AutoConfirmed = autoConfirmed
	game.ConfirmedAt = &now
	game.Version++
	return nil
}

func (r *fakeGameRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, id int, state models.GameState, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok || game.Version != expectedVersion {
		return repositories.ErrGameConflict
	}
	game.State = state
	game.Version++
	return nil
}

func (r *fakeGameRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id, p1vp, p2vp int, state models.GameState, confirmedBy *int, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok || game.Version != expectedVersion {
		return repositories.ErrGameConflict
	}
	game.P1VP = &p1vp
	game.P2VP = &p2vp
	game.State = state
	game.ConfirmedBy = confirmedBy
	game.AutoConfirmed = false
	if game.ConfirmedAt == nil {
		now := time.Now()
		game.ConfirmedAt = &now
	}
	game.Version++
	return nil
}

func (r *fakeGameRepo) UpdateScores(ctx context.Context, exec repositories.SQLExecutor, id, p1vp, p2vp, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok || game.Version != expectedVersion {
		return repositories.ErrGameConflict
	}
	game.P1VP = &p1vp
	game.P2VP = &p2vp
	game.Version++
	return nil
}

func (r *fakeGameRepo) LockConfirmedByRound(ctx context.Context, exec repositories.SQLExecutor, roundID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, game := range r.games {
		if game.RoundID == roundID && game.State == models.GameConfirmed {
			game.State = models.GameLocked
			game.Version++
		}
	}
	return nil
}

func (r *fakeGameRepo) DeleteNonTerminalByRound(ctx context.Context, exec repositories.SQLExecutor, roundID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, game := range r.games {
		if game.RoundID == roundID && !game.Terminal() {
			delete(r.games, id)
		}
	}
	return nil
}

func (r *fakeGameRepo) CountByState(ctx context.Context, state models.GameState) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, game := range r.games {
		if game.State == state {
			count++
		}
	}
	return count, nil
}

type fakeRitualRepo struct {
	mu       sync.Mutex
	order    []uuid.UUID
	sessions map[uuid.UUID]*models.RitualSession
	rolls    []models.RitualRoll
	nextRoll int
}

func newFakeRitualRepo() *fakeRitualRepo {
	return &fakeRitualRepo{sessions: make(map[uuid.UUID]*models.RitualSession)}
}

func (r *fakeRitualRepo) Create(ctx context.Context, session *models.RitualSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.CreatedAt = time.Now()
	stored := *session
	r.sessions[session.ID] = &stored
	r.order = append(r.order, session.ID)
	return nil
}

func (r *fakeRitualRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RitualSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrRitualNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeRitualRepo) GetPending(ctx context.Context, eventID, roundNumber int, kind models.RitualKind) (*models.RitualSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		session := r.sessions[r.order[i]]
		if session.EventID != eventID || session.RoundNumber != roundNumber || session.Kind != kind {
			continue
		}
		if session.Consumed {
			continue
		}
		if session.State == models.RitualOpen || session.State == models.RitualResolved {
			copied := *session
			return &copied, nil
		}
	}
	return nil, repositories.ErrRitualNotFound
}

func (r *fakeRitualRepo) AddRoll(ctx context.Context, roll *models.RitualRoll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextRoll++
	roll.ID = r.nextRoll
	roll.RolledAt = time.Now()
	r.rolls = append(r.rolls, *roll)
	return nil
}

func (r *fakeRitualRepo) ListRolls(ctx context.Context, sessionID uuid.UUID) ([]models.RitualRoll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RitualRoll, 0)
	for _, roll := range r.rolls {
		if roll.SessionID == sessionID {
			out = append(out, roll)
		}
	}
	return out, nil
}

func (r *fakeRitualRepo) UpdateResolved(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, winnerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repositories.ErrRitualNotFound
	}
	session.State = models.RitualResolved
	session.WinnerID = &winnerID
	return nil
}

func (r *fakeRitualRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID, state models.RitualState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repositories.ErrRitualNotFound
	}
	session.State = state
	return nil
}

func (r *fakeRitualRepo) UpdateRerollRound(ctx context.Context, id uuid.UUID, rerollRound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return repositories.ErrRitualNotFound
	}
	session.RerollRound = rerollRound
	return nil
}

func (r *fakeRitualRepo) MarkConsumed(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.Consumed {
		return repositories.ErrRitualNotFound
	}
	session.Consumed = true
	return nil
}

func (r *fakeRitualRepo) ExpireOpenForRound(ctx context.Context, exec repositories.SQLExecutor, eventID, roundNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.EventID == eventID && session.RoundNumber == roundNumber && session.State == models.RitualOpen {
			session.State = models.RitualExpired
		}
	}
	return nil
}

func (r *fakeRitualRepo) CountOpen(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.State == models.RitualOpen {
			count++
		}
	}
	return count, nil
}

type fakeTeamRepo struct {
	mu      sync.Mutex
	nextID  int
	teams   map[int]*models.Team
	members map[int][]models.TeamMember
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team), members: make(map[int][]models.TeamMember)}
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	r.nextID++
	team.ID = r.nextID
	team.CreatedAt = time.Now()
	stored := *team
	r.teams[team.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members[member.TeamID] {
		if existing.Slot == member.Slot {
			return repositories.ErrTeamSlotTaken
		}
	}
	member.ID = len(r.members[member.TeamID]) + 1
	r.members[member.TeamID] = append(r.members[member.TeamID], *member)
	return nil
}

func (r *fakeTeamRepo) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := append([]models.TeamMember(nil), r.members[teamID]...)
	for i := 1; i < len(members); i++ {
		for j := i; j > 0 && members[j].Slot < members[j-1].Slot; j-- {
			members[j], members[j-1] = members[j-1], members[j]
		}
	}
	return members, nil
}

func (r *fakeTeamRepo) IsMember(ctx context.Context, teamID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members[teamID] {
		if member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeOverrideRepo struct {
	mu        sync.Mutex
	nextID    int
	overrides []*models.GameOverride
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{}
}

func (r *fakeOverrideRepo) Create(ctx context.Context, exec repositories.SQLExecutor, override *models.GameOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	override.ID = r.nextID
	override.CreatedAt = time.Now()
	stored := *override
	r.overrides = append(r.overrides, &stored)
	return nil
}

func (r *fakeOverrideRepo) ListByGame(ctx context.Context, gameID int) ([]*models.GameOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.GameOverride, 0)
	for _, override := range r.overrides {
		if override.GameID == gameID {
			copied := *override
			out = append(out, &copied)
		}
	}
	return out, nil
}
