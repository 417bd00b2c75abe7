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
	ErrGameNotFound     = errors.New("game not found")
	ErrGameConflict     = errors.New("game was modified concurrently")
	ErrGameRoundInvalid = errors.New("game round conflict or invalid")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByRound(ctx context.Context, roundID int) ([]*models.Game, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Game, error)
	ListReportedBefore(ctx context.Context, cutoff time.Time) ([]*models.Game, error)
	// All version-checked updates return ErrGameConflict when the expected
	// version no longer matches.
	UpdateReport(ctx context.Context, exec SQLExecutor, id int, p1vp, p2vp, reporterID, expectedVersion int) error
	UpdateConfirm(ctx context.Context, exec SQLExecutor, id int, confirmedBy *int, autoConfirmed bool, expectedVersion int) error
	UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.GameState, expectedVersion int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id, p1vp, p2vp int, state models.GameState, confirmedBy *int, expectedVersion int) error
	UpdateScores(ctx context.Context, exec SQLExecutor, id, p1vp, p2vp, expectedVersion int) error
	LockConfirmedByRound(ctx context.Context, exec SQLExecutor, roundID int) error
	DeleteNonTerminalByRound(ctx context.Context, exec SQLExecutor, roundID int) error
	CountByState(ctx context.Context, state models.GameState) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `
	id, round_id, p1_id, p2_id, t1_id, t2_id, slot, room, state,
	p1_vp, p2_vp, reporter_id, confirmed_by, auto_confirmed,
	reported_at, confirmed_at, version, created_at
	`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(round_id, p1_id, p2_id, t1_id, t2_id, slot, room, state,
			 p1_vp, p2_vp, reporter_id, confirmed_by, auto_confirmed, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
		RETURNING id, version, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		game.RoundID,
		game.P1ID,
		game.P2ID,
		game.T1ID,
		game.T2ID,
		game.Slot,
		game.Room,
		game.State,
		game.P1VP,
		game.P2VP,
		game.ReporterID,
		game.ConfirmedBy,
		game.AutoConfirmed,
	).Scan(&game.ID, &game.Version, &game.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE id = $1`

	game, err := r.scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByRound(ctx context.Context, roundID int) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE round_id = $1 ORDER BY slot ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for round %d: %w", roundID, err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

func (r *postgresGameRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Game, error) {
	query := `
		SELECT g.id, g.round_id, g.p1_id, g.p2_id, g.t1_id, g.t2_id, g.slot, g.room, g.state,
		       g.p1_vp, g.p2_vp, g.reporter_id, g.confirmed_by, g.auto_confirmed,
		       g.reported_at, g.confirmed_at, g.version, g.created_at
		FROM games g
		JOIN rounds r ON r.id = g.round_id
		WHERE r.event_id = $1
		ORDER BY r.number ASC, g.slot ASC, g.id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for event %d: %w", eventID, err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

func (r *postgresGameRepository) ListReportedBefore(ctx context.Context, cutoff time.Time) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE state = $1 AND reported_at <= $2 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.GameReported, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query reported games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

func (r *postgresGameRepository) UpdateReport(ctx context.Context, exec SQLExecutor, id int, p1vp, p2vp, reporterID, expectedVersion int) error {
	query := `
		UPDATE games
		SET state = $1, p1_vp = $2, p2_vp = $3, reporter_id = $4,
		    reported_at = NOW(), version = version + 1
		WHERE id = $5 AND version = $6`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		models.GameReported, p1vp, p2vp, reporterID, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to record report for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameConflict)
}

func (r *postgresGameRepository) UpdateConfirm(ctx context.Context, exec SQLExecutor, id int, confirmedBy *int, autoConfirmed bool, expectedVersion int) error {
	query := `
		UPDATE games
		SET state = $1, confirmed_by = $2, auto_confirmed = $3,
		    confirmed_at = NOW(), version = version + 1
		WHERE id = $4 AND version = $5`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		models.GameConfirmed, confirmedBy, autoConfirmed, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to record confirmation for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameConflict)
}

func (r *postgresGameRepository) UpdateState(ctx context.Context, exec SQLExecutor, id int, state models.GameState, expectedVersion int) error {
	query := `UPDATE games SET state = $1, version = version + 1 WHERE id = $2 AND version = $3`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, state, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update game %d state: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameConflict)
}

func (r *postgresGameRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id, p1vp, p2vp int, state models.GameState, confirmedBy *int, expectedVersion int) error {
	query := `
		UPDATE games
		SET p1_vp = $1, p2_vp = $2, state = $3, confirmed_by = $4,
		    auto_confirmed = FALSE, confirmed_at = COALESCE(confirmed_at, NOW()),
		    version = version + 1
		WHERE id = $5 AND version = $6`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		p1vp, p2vp, state, confirmedBy, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update result for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameConflict)
}

func (r *postgresGameRepository) UpdateScores(ctx context.Context, exec SQLExecutor, id, p1vp, p2vp, expectedVersion int) error {
	query := `UPDATE games SET p1_vp = $1, p2_vp = $2, version = version + 1 WHERE id = $3 AND version = $4`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query, p1vp, p2vp, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update scores for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameConflict)
}

func (r *postgresGameRepository) LockConfirmedByRound(ctx context.Context, exec SQLExecutor, roundID int) error {
	query := `UPDATE games SET state = $1, version = version + 1 WHERE round_id = $2 AND state = $3`

	_, err := getExecutor(exec, r.db).ExecContext(ctx, query, models.GameLocked, roundID, models.GameConfirmed)
	if err != nil {
		return fmt.Errorf("failed to lock games for round %d: %w", roundID, err)
	}
	return nil
}

func (r *postgresGameRepository) DeleteNonTerminalByRound(ctx context.Context, exec SQLExecutor, roundID int) error {
	query := `DELETE FROM games WHERE round_id = $1 AND state NOT IN ($2, $3)`

	_, err := getExecutor(exec, r.db).ExecContext(ctx, query, roundID, models.GameConfirmed, models.GameLocked)
	if err != nil {
		return fmt.Errorf("failed to delete non-terminal games for round %d: %w", roundID, err)
	}
	return nil
}

func (r *postgresGameRepository) CountByState(ctx context.Context, state models.GameState) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE state = $1`, state).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games by state: %w", err)
	}
	return count, nil
}

func (r *postgresGameRepository) scanGame(row *sql.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.RoundID,
		&game.P1ID,
		&game.P2ID,
		&game.T1ID,
		&game.T2ID,
		&game.Slot,
		&game.Room,
		&game.State,
		&game.P1VP,
		&game.P2VP,
		&game.ReporterID,
		&game.ConfirmedBy,
		&game.AutoConfirmed,
		&game.ReportedAt,
		&game.ConfirmedAt,
		&game.Version,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) scanGames(rows *sql.Rows) ([]*models.Game, error) {
	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := rows.Scan(
			&game.ID,
			&game.RoundID,
			&game.P1ID,
			&game.P2ID,
			&game.T1ID,
			&game.T2ID,
			&game.Slot,
			&game.Room,
			&game.State,
			&game.P1VP,
			&game.P2VP,
			&game.ReporterID,
			&game.ConfirmedBy,
			&game.AutoConfirmed,
			&game.ReportedAt,
			&game.ConfirmedAt,
			&game.Version,
			&game.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, &game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "games_round_id_fkey":
			return ErrGameRoundInvalid
		}
	}
	return err
}
