package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/tournament-progression/models"
)

var ErrMatchProgressNotFound = errors.New("match progress not found")

type MatchProgressRepository interface {
	Mark(ctx context.Context, matchID int, step, runID string) error
	Get(ctx context.Context, matchID int) (*models.MatchProgress, error)
}

type postgresMatchProgressRepository struct {
	db *sql.DB
}

func NewPostgresMatchProgressRepository(db *sql.DB) MatchProgressRepository {
	return &postgresMatchProgressRepository{db: db}
}

func (r *postgresMatchProgressRepository) Mark(ctx context.Context, matchID int, step, runID string) error {
	query := `
		INSERT INTO match_progress (match_id, last_step, run_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id) DO UPDATE SET
			last_step = excluded.last_step,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, matchID, step, runID, time.Now().UTC())
	return err
}

func (r *postgresMatchProgressRepository) Get(ctx context.Context, matchID int) (*models.MatchProgress, error) {
	var p models.MatchProgress
	err := r.db.QueryRowContext(ctx,
		`SELECT match_id, last_step, run_id, updated_at FROM match_progress WHERE match_id = $1`, matchID,
	).Scan(&p.MatchID, &p.LastStep, &p.RunID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}
