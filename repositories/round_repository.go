package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/lib/pq"
)

var (
	ErrRoundNotFound     = errors.New("round not found")
	ErrRoundConflict     = errors.New("round was modified concurrently")
	ErrRoundNumberTaken  = errors.New("round number already exists for this event")
	ErrRoundEventInvalid = errors.New("round event conflict or invalid")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByEventAndNumber(ctx context.Context, eventID, number int) (*models.Round, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Round, error)
	ListForDeadlineWarning(ctx context.Context, warnBefore time.Time) ([]*models.Round, error)
	// UpdateState performs a version-checked transition and returns
	// ErrRoundConflict when the expected version no longer matches.
	UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.RoundState, deadlineWarned bool, expectedVersion int) error
	UpdateDeadline(ctx context.Context, exec SQLExecutor, id int, deadline time.Time) error
	CountOpen(ctx context.Context) (int, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (event_id, number, state, deadline, deadline_warned, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING id, version, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		round.EventID,
		round.Number,
		round.State,
		round.Deadline,
		round.DeadlineWarned,
	).Scan(&round.ID, &round.Version, &round.CreatedAt)

	return r.handleRoundError(err)
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `
		SELECT id, event_id, number, state, deadline, deadline_warned, version, created_at
		FROM rounds
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) GetByEventAndNumber(ctx context.Context, eventID, number int) (*models.Round, error) {
	query := `
		SELECT id, event_id, number, state, deadline, deadline_warned, version, created_at
		FROM rounds
		WHERE event_id = $1 AND number = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, eventID, number))
}

func (r *postgresRoundRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Round, error) {
	query := `
		SELECT id, event_id, number, state, deadline, deadline_warned, version, created_at
		FROM rounds
		WHERE event_id = $1
		ORDER BY number ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for event %d: %w", eventID, err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *postgresRoundRepository) ListForDeadlineWarning(ctx context.Context, warnBefore time.Time) ([]*models.Round, error) {
	query := `
		SELECT id, event_id, number, state, deadline, deadline_warned, version, created_at
		FROM rounds
		WHERE state = $1 AND deadline_warned = FALSE AND deadline <= $2
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.RoundActive, warnBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for deadline warning: %w", err)
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *postgresRoundRepository) UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.RoundState, deadlineWarned bool, expectedVersion int) error {
	query := `
		UPDATE rounds
		SET state = $1, deadline_warned = $2, version = version + 1
		WHERE id = $3 AND version = $4`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, state, deadlineWarned, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update round %d state: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundConflict)
}

func (r *postgresRoundRepository) UpdateDeadline(ctx context.Context, exec SQLExecutor, id int, deadline time.Time) error {
	query := `UPDATE rounds SET deadline = $1 WHERE id = $2`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, deadline, id)
	if err != nil {
		return fmt.Errorf("failed to update round %d deadline: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) CountOpen(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM rounds WHERE state IN ($1, $2, $3)`

	var count int
	err := r.db.QueryRowContext(ctx, query,
		models.RoundAnnounced, models.RoundActive, models.RoundDeadlineWarned,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open rounds: %w", err)
	}
	return count, nil
}

func (r *postgresRoundRepository) scanOne(row *sql.Row) (*models.Round, error) {
	round := &models.Round{}
	err := row.Scan(
		&round.ID,
		&round.EventID,
		&round.Number,
		&round.State,
		&round.Deadline,
		&round.DeadlineWarned,
		&round.Version,
		&round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return round, nil
}

func (r *postgresRoundRepository) scanRows(rows *sql.Rows) ([]*models.Round, error) {
	rounds := make([]*models.Round, 0)
	for rows.Next() {
		var round models.Round
		if scanErr := rows.Scan(
			&round.ID,
			&round.EventID,
			&round.Number,
			&round.State,
			&round.Deadline,
			&round.DeadlineWarned,
			&round.Version,
			&round.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) handleRoundError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "rounds_event_id_number_key":
			return ErrRoundNumberTaken
		case "rounds_event_id_fkey":
			return ErrRoundEventInvalid
		}
	}
	return err
}
