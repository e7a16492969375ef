package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-progression/models"
)

var (
	ErrStageNotFound = errors.New("stage not found")
	ErrGroupNotFound = errors.New("group not found")
)

type StageRepository interface {
	Create(ctx context.Context, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	// ListByTournament returns the tournament's stages ordered by ordering.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id int) (*models.Group, error)
	// ListGroups returns the stage's groups ordered by (ordering, id).
	ListGroups(ctx context.Context, stageID int) ([]*models.Group, error)
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `id, tournament_id, name, kind, ordering, config`

func (r *postgresStageRepository) Create(ctx context.Context, s *models.Stage) error {
	query := `
		INSERT INTO stages (tournament_id, name, kind, ordering, config)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, s.TournamentID, s.Name, s.Kind, s.Ordering, s.ConfigJSON).Scan(&s.ID)
	if err != nil {
		return err
	}
	return s.ParseConfig()
}

func (r *postgresStageRepository) scanStage(row rowScanner) (*models.Stage, error) {
	var s models.Stage
	if err := row.Scan(&s.ID, &s.TournamentID, &s.Name, &s.Kind, &s.Ordering, &s.ConfigJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	if err := s.ParseConfig(); err != nil {
		return nil, fmt.Errorf("stage %d: %w", s.ID, err)
	}
	return &s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = $1`
	return r.scanStage(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 ORDER BY ordering ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		s, err := r.scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *postgresStageRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	query := `INSERT INTO stage_groups (stage_id, name, ordering) VALUES ($1, $2, $3) RETURNING id`
	return r.db.QueryRowContext(ctx, query, g.StageID, g.Name, g.Ordering).Scan(&g.ID)
}

func (r *postgresStageRepository) GetGroup(ctx context.Context, id int) (*models.Group, error) {
	var g models.Group
	err := r.db.QueryRowContext(ctx, `SELECT id, stage_id, name, ordering FROM stage_groups WHERE id = $1`, id).
		Scan(&g.ID, &g.StageID, &g.Name, &g.Ordering)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresStageRepository) ListGroups(ctx context.Context, stageID int) ([]*models.Group, error) {
	query := `SELECT id, stage_id, name, ordering FROM stage_groups WHERE stage_id = $1 ORDER BY ordering ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.StageID, &g.Name, &g.Ordering); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
