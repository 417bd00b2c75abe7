package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNameConflict     = errors.New("event name already exists")
	ErrEventOrganizerInvalid = errors.New("event organizer conflict or invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	List(ctx context.Context, phase *models.EventPhase) ([]*models.Event, error)
	UpdatePhase(ctx context.Context, exec SQLExecutor, id int, phase models.EventPhase) error
	UpdateRoundCount(ctx context.Context, exec SQLExecutor, id int, roundCount int) error
	UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id int, currentRound int) error
	Count(ctx context.Context, phase *models.EventPhase) (int, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events
			(name, format, phase, organizer_id, team_size, round_count, current_round,
			 points_win, points_draw, points_loss)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Format,
		event.Phase,
		event.OrganizerID,
		event.TeamSize,
		event.RoundCount,
		event.CurrentRound,
		event.PointsWin,
		event.PointsDraw,
		event.PointsLoss,
	).Scan(&event.ID, &event.CreatedAt)

	return r.handleEventError(err)
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `
		SELECT id, name, format, phase, organizer_id, team_size, round_count, current_round,
		       points_win, points_draw, points_loss, created_at
		FROM events
		WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Format,
		&event.Phase,
		&event.OrganizerID,
		&event.TeamSize,
		&event.RoundCount,
		&event.CurrentRound,
		&event.PointsWin,
		&event.PointsDraw,
		&event.PointsLoss,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event by id %d: %w", id, err)
	}
	return event, nil
}

func (r *postgresEventRepository) List(ctx context.Context, phase *models.EventPhase) ([]*models.Event, error) {
	query := `
		SELECT id, name, format, phase, organizer_id, team_size, round_count, current_round,
		       points_win, points_draw, points_loss, created_at
		FROM events`

	args := []interface{}{}
	if phase != nil {
		query += ` WHERE phase = $1`
		args = append(args, *phase)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var event models.Event
		if scanErr := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Format,
			&event.Phase,
			&event.OrganizerID,
			&event.TeamSize,
			&event.RoundCount,
			&event.CurrentRound,
			&event.PointsWin,
			&event.PointsDraw,
			&event.PointsLoss,
			&event.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, &event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) UpdatePhase(ctx context.Context, exec SQLExecutor, id int, phase models.EventPhase) error {
	query := `UPDATE events SET phase = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, phase, id)
	if err != nil {
		return r.handleEventError(err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateRoundCount(ctx context.Context, exec SQLExecutor, id int, roundCount int) error {
	query := `UPDATE events SET round_count = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, roundCount, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id int, currentRound int) error {
	query := `UPDATE events SET current_round = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, currentRound, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) Count(ctx context.Context, phase *models.EventPhase) (int, error) {
	query := `SELECT COUNT(*) FROM events`
	args := []interface{}{}
	if phase != nil {
		query += ` WHERE phase = $1`
		args = append(args, *phase)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (r *postgresEventRepository) handleEventError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "events_name_key":
			return ErrEventNameConflict
		case "events_organizer_id_fkey":
			return ErrEventOrganizerInvalid
		}
	}
	return err
}
