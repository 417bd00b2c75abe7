package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/affendiariffin/TO-Bot/models"
)

var ErrOverrideNotFound = errors.New("game override not found")

// OverrideRepository stores the audit trail of result rewrites.
type OverrideRepository interface {
	Create(ctx context.Context, exec SQLExecutor, override *models.GameOverride) error
	ListByGame(ctx context.Context, gameID int) ([]*models.GameOverride, error)
}

type postgresOverrideRepository struct {
	db *sql.DB
}

func NewPostgresOverrideRepository(db *sql.DB) OverrideRepository {
	return &postgresOverrideRepository{db: db}
}

func (r *postgresOverrideRepository) Create(ctx context.Context, exec SQLExecutor, override *models.GameOverride) error {
	query := `
		INSERT INTO game_overrides
			(game_id, actor_id, old_p1_vp, old_p2_vp, new_p1_vp, new_p2_vp, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := getExecutor(exec, r.db).QueryRowContext(ctx, query,
		override.GameID,
		override.ActorID,
		override.OldP1VP,
		override.OldP2VP,
		override.NewP1VP,
		override.NewP2VP,
		override.Reason,
	).Scan(&override.ID, &override.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game override: %w", err)
	}
	return nil
}

func (r *postgresOverrideRepository) ListByGame(ctx context.Context, gameID int) ([]*models.GameOverride, error) {
	query := `
		SELECT id, game_id, actor_id, old_p1_vp, old_p2_vp, new_p1_vp, new_p2_vp, reason, created_at
		FROM game_overrides
		WHERE game_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides for game %d: %w", gameID, err)
	}
	defer rows.Close()

	overrides := make([]*models.GameOverride, 0)
	for rows.Next() {
		var o models.GameOverride
		if scanErr := rows.Scan(
			&o.ID,
			&o.GameID,
			&o.ActorID,
			&o.OldP1VP,
			&o.OldP2VP,
			&o.NewP1VP,
			&o.NewP2VP,
			&o.Reason,
			&o.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", scanErr)
		}
		overrides = append(overrides, &o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during override rows iteration: %w", err)
	}
	return overrides, nil
}
