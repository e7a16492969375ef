package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-progression/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchSlotTaken is returned when a conditional slot fill finds the slot already assigned.
	ErrMatchSlotTaken = errors.New("match slot already assigned")
	ErrMatchNotOpen   = errors.New("match is not scheduled")
)

type ListMatchesFilter struct {
	Status  *models.MatchStatus
	GroupID *int
	Round   *int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// ListByStage returns the stage's matches ordered by id.
	ListByStage(ctx context.Context, exec SQLExecutor, stageID int, filter ListMatchesFilter) ([]*models.Match, error)
	CountByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error)
	ListStatusesByTournament(ctx context.Context, tournamentID int) ([]models.MatchStatus, error)
	// AssignTeamIfEmpty writes teamID into the side's slot only if the slot is still empty.
	AssignTeamIfEmpty(ctx context.Context, matchID int, side models.Side, teamID int) error
	Finish(ctx context.Context, matchID int, scoreA, scoreB int, winnerTeamID *int) error
	UpdateSource(ctx context.Context, matchID int, side models.Side, sourceMatchID *int, outcome *models.Outcome) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, stage_id, group_id, matchday, round, bracket_pos,
	team_a_id, team_b_id, score_a, score_b, winner_team_id, status,
	home_source_match_id, home_source_outcome, away_source_match_id, away_source_outcome`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.StageID, &m.GroupID, &m.Matchday, &m.Round, &m.BracketPos,
		&m.TeamAID, &m.TeamBID, &m.ScoreA, &m.ScoreB, &m.WinnerTeamID, &m.Status,
		&m.HomeSourceMatchID, &m.HomeSourceOutcome, &m.AwaySourceMatchID, &m.AwaySourceOutcome,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := getExecutor(r.db, exec)
	if m.Status == "" {
		m.Status = models.MatchScheduled
	}
	query := `
		INSERT INTO matches
			(tournament_id, stage_id, group_id, matchday, round, bracket_pos,
			 team_a_id, team_b_id, score_a, score_b, winner_team_id, status,
			 home_source_match_id, home_source_outcome, away_source_match_id, away_source_outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	return executor.QueryRowContext(ctx, query,
		m.TournamentID, m.StageID, m.GroupID, m.Matchday, m.Round, m.BracketPos,
		m.TeamAID, m.TeamBID, m.ScoreA, m.ScoreB, m.WinnerTeamID, m.Status,
		m.HomeSourceMatchID, m.HomeSourceOutcome, m.AwaySourceMatchID, m.AwaySourceOutcome,
	).Scan(&m.ID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID int, filter ListMatchesFilter) ([]*models.Match, error) {
	executor := getExecutor(r.db, exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE stage_id = $1`)

	args := []interface{}{stageID}
	placeholderIndex := 2

	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.GroupID != nil {
		queryBuilder.WriteString(" AND group_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.GroupID)
		placeholderIndex++
	}
	if filter.Round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Round)
	}
	queryBuilder.WriteString(" ORDER BY id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByStage(ctx context.Context, exec SQLExecutor, stageID int) (int, error) {
	executor := getExecutor(r.db, exec)
	var n int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE stage_id = $1`, stageID).Scan(&n)
	return n, err
}

func (r *postgresMatchRepository) ListStatusesByTournament(ctx context.Context, tournamentID int) ([]models.MatchStatus, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]models.MatchStatus, 0)
	for rows.Next() {
		var s models.MatchStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

func teamColumn(side models.Side) (string, error) {
	switch side {
	case models.SideHome:
		return "team_a_id", nil
	case models.SideAway:
		return "team_b_id", nil
	}
	return "", fmt.Errorf("unknown match side %q", side)
}

func (r *postgresMatchRepository) AssignTeamIfEmpty(ctx context.Context, matchID int, side models.Side, teamID int) error {
	col, err := teamColumn(side)
	if err != nil {
		return err
	}
	query := `UPDATE matches SET ` + col + ` = $1 WHERE id = $2 AND ` + col + ` IS NULL`
	result, err := r.db.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchSlotTaken)
}

func (r *postgresMatchRepository) Finish(ctx context.Context, matchID int, scoreA, scoreB int, winnerTeamID *int) error {
	query := `
		UPDATE matches
		SET score_a = $1, score_b = $2, winner_team_id = $3, status = $4
		WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, scoreA, scoreB, winnerTeamID, models.MatchFinished, matchID, models.MatchScheduled)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotOpen)
}

func (r *postgresMatchRepository) UpdateSource(ctx context.Context, matchID int, side models.Side, sourceMatchID *int, outcome *models.Outcome) error {
	var query string
	switch side {
	case models.SideHome:
		query = `UPDATE matches SET home_source_match_id = $1, home_source_outcome = $2 WHERE id = $3`
	case models.SideAway:
		query = `UPDATE matches SET away_source_match_id = $1, away_source_outcome = $2 WHERE id = $3`
	default:
		return fmt.Errorf("unknown match side %q", side)
	}
	result, err := r.db.ExecContext(ctx, query, sourceMatchID, outcome, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
