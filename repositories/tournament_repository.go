package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-progression/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.Status == "" {
		t.Status = models.TournamentScheduled
	}
	query := `INSERT INTO tournaments (name, status) VALUES ($1, $2) RETURNING id`
	return r.db.QueryRowContext(ctx, query, t.Name, t.Status).Scan(&t.ID)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT id, name, status FROM tournaments WHERE id = $1`
	var t models.Tournament
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := getExecutor(r.db, exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
