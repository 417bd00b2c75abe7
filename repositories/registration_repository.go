package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/affendiariffin/TO-Bot/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationDuplicate    = errors.New("participant already registered for this event")
	ErrRegistrationEventInvalid = errors.New("registration event conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	GetByEventAndParticipant(ctx context.Context, eventID, participantID int) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID int, status *models.RegistrationStatus) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	UpdateListKey(ctx context.Context, id int, listKey *string) error
	UpdateListApproved(ctx context.Context, id int, approved bool) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (event_id, participant_id, status, list_key, list_approved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.EventID,
		reg.ParticipantID,
		reg.Status,
		reg.ListKey,
		reg.ListApproved,
	).Scan(&reg.ID, &reg.CreatedAt)

	return r.handleRegistrationError(err)
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT id, event_id, participant_id, status, list_key, list_approved, created_at
		FROM registrations
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRegistrationRepository) GetByEventAndParticipant(ctx context.Context, eventID, participantID int) (*models.Registration, error) {
	query := `
		SELECT id, event_id, participant_id, status, list_key, list_approved, created_at
		FROM registrations
		WHERE event_id = $1 AND participant_id = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, eventID, participantID))
}

func (r *postgresRegistrationRepository) ListByEvent(ctx context.Context, eventID int, status *models.RegistrationStatus) ([]*models.Registration, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, event_id, participant_id, status, list_key, list_approved, created_at
		FROM registrations
		WHERE event_id = $1`)

	args := []interface{}{eventID}
	if status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY participant_id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for event %d: %w", eventID, err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.ParticipantID,
			&reg.Status,
			&reg.ListKey,
			&reg.ListApproved,
			&reg.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		regs = append(regs, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) UpdateListKey(ctx context.Context, id int, listKey *string) error {
	query := `UPDATE registrations SET list_key = $1, list_approved = FALSE WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, listKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) UpdateListApproved(ctx context.Context, id int, approved bool) error {
	query := `UPDATE registrations SET list_approved = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, approved, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) scanOne(row *sql.Row) (*models.Registration, error) {
	reg := &models.Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.ParticipantID,
		&reg.Status,
		&reg.ListKey,
		&reg.ListApproved,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "registrations_event_id_participant_id_key":
			return ErrRegistrationDuplicate
		case "registrations_event_id_fkey":
			return ErrRegistrationEventInvalid
		}
	}
	return err
}
