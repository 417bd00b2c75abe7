package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrRitualNotFound = errors.New("ritual session not found")

type RitualRepository interface {
	Create(ctx context.Context, session *models.RitualSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RitualSession, error)
	// GetPending returns the open or resolved-but-unconsumed session for a
	// decision slot, or ErrRitualNotFound.
	GetPending(ctx context.Context, eventID, roundNumber int, kind models.RitualKind) (*models.RitualSession, error)
	AddRoll(ctx context.Context, roll *models.RitualRoll) error
	ListRolls(ctx context.Context, sessionID uuid.UUID) ([]models.RitualRoll, error)
	UpdateResolved(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID int) error
	UpdateState(ctx context.Context, exec SQLExecutor, id uuid.UUID, state models.RitualState) error
	UpdateRerollRound(ctx context.Context, id uuid.UUID, rerollRound int) error
	MarkConsumed(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
	ExpireOpenForRound(ctx context.Context, exec SQLExecutor, eventID, roundNumber int) error
	CountOpen(ctx context.Context) (int, error)
}

type postgresRitualRepository struct {
	db *sql.DB
}

func NewPostgresRitualRepository(db *sql.DB) RitualRepository {
	return &postgresRitualRepository{db: db}
}

func (r *postgresRitualRepository) Create(ctx context.Context, session *models.RitualSession) error {
	query := `
		INSERT INTO ritual_sessions
			(id, event_id, round_number, kind, die_size, state, participants,
			 reroll_round, consumed, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		session.ID,
		session.EventID,
		session.RoundNumber,
		session.Kind,
		session.DieSize,
		session.State,
		pq.Array(toInt64(session.Participants)),
		session.RerollRound,
		session.Consumed,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ritual session: %w", err)
	}
	return nil
}

func (r *postgresRitualRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RitualSession, error) {
	query := `
		SELECT id, event_id, round_number, kind, die_size, state, participants,
		       winner_id, reroll_round, consumed, expires_at, created_at
		FROM ritual_sessions
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRitualRepository) GetPending(ctx context.Context, eventID, roundNumber int, kind models.RitualKind) (*models.RitualSession, error) {
	query := `
		SELECT id, event_id, round_number, kind, die_size, state, participants,
		       winner_id, reroll_round, consumed, expires_at, created_at
		FROM ritual_sessions
		WHERE event_id = $1 AND round_number = $2 AND kind = $3
		  AND consumed = FALSE AND state IN ($4, $5)
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query,
		eventID, roundNumber, kind, models.RitualOpen, models.RitualResolved))
}

func (r *postgresRitualRepository) AddRoll(ctx context.Context, roll *models.RitualRoll) error {
	query := `
		INSERT INTO ritual_rolls (session_id, participant_id, reroll_round, value)
		VALUES ($1, $2, $3, $4)
		RETURNING id, rolled_at`

	err := r.db.QueryRowContext(ctx, query,
		roll.SessionID,
		roll.ParticipantID,
		roll.RerollRound,
		roll.Value,
	).Scan(&roll.ID, &roll.RolledAt)
	if err != nil {
		return fmt.Errorf("failed to insert ritual roll: %w", err)
	}
	return nil
}

func (r *postgresRitualRepository) ListRolls(ctx context.Context, sessionID uuid.UUID) ([]models.RitualRoll, error) {
	query := `
		SELECT id, session_id, participant_id, reroll_round, value, rolled_at
		FROM ritual_rolls
		WHERE session_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolls for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	rolls := make([]models.RitualRoll, 0)
	for rows.Next() {
		var roll models.RitualRoll
		if scanErr := rows.Scan(
			&roll.ID,
			&roll.SessionID,
			&roll.ParticipantID,
			&roll.RerollRound,
			&roll.Value,
			&roll.RolledAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ritual roll row: %w", scanErr)
		}
		rolls = append(rolls, roll)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ritual roll rows iteration: %w", err)
	}
	return rolls, nil
}

func (r *postgresRitualRepository) UpdateResolved(ctx context.Context, exec SQLExecutor, id uuid.UUID, winnerID int) error {
	query := `UPDATE ritual_sessions SET state = $1, winner_id = $2 WHERE id = $3`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, models.RitualResolved, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to resolve ritual session %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrRitualNotFound)
}

func (r *postgresRitualRepository) UpdateState(ctx context.Context, exec SQLExecutor, id uuid.UUID, state models.RitualState) error {
	query := `UPDATE ritual_sessions SET state = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, state, id)
	if err != nil {
		return fmt.Errorf("failed to update ritual session %s state: %w", id, err)
	}
	return checkAffectedRows(result, ErrRitualNotFound)
}

func (r *postgresRitualRepository) UpdateRerollRound(ctx context.Context, id uuid.UUID, rerollRound int) error {
	query := `UPDATE ritual_sessions SET reroll_round = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, rerollRound, id)
	if err != nil {
		return fmt.Errorf("failed to update ritual session %s reroll round: %w", id, err)
	}
	return checkAffectedRows(result, ErrRitualNotFound)
}

func (r *postgresRitualRepository) MarkConsumed(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	query := `UPDATE ritual_sessions SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume ritual session %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrRitualNotFound)
}

func (r *postgresRitualRepository) ExpireOpenForRound(ctx context.Context, exec SQLExecutor, eventID, roundNumber int) error {
	query := `
		UPDATE ritual_sessions
		SET state = $1
		WHERE event_id = $2 AND round_number = $3 AND state = $4`

	_, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		models.RitualExpired, eventID, roundNumber, models.RitualOpen)
	if err != nil {
		return fmt.Errorf("failed to expire ritual sessions for event %d round %d: %w", eventID, roundNumber, err)
	}
	return nil
}

func (r *postgresRitualRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ritual_sessions WHERE state = $1`, models.RitualOpen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open ritual sessions: %w", err)
	}
	return count, nil
}

func (r *postgresRitualRepository) scanOne(row *sql.Row) (*models.RitualSession, error) {
	session := &models.RitualSession{}
	var participants pq.Int64Array
	err := row.Scan(
		&session.ID,
		&session.EventID,
		&session.RoundNumber,
		&session.Kind,
		&session.DieSize,
		&session.State,
		&participants,
		&session.WinnerID,
		&session.RerollRound,
		&session.Consumed,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRitualNotFound
		}
		return nil, fmt.Errorf("failed to scan ritual session: %w", err)
	}
	session.Participants = fromInt64(participants)
	return session, nil
}

func toInt64(values []int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func fromInt64(values []int64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
