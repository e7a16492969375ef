package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-progression/models"
)

type StageStandingRepository interface {
	// ReplaceGroup deletes every standing row of (stageID, groupID) and inserts the given rows
	// in one transaction.
	ReplaceGroup(ctx context.Context, stageID, groupID int, standings []*models.StageStanding) error
	// ListByStage returns the stage's rows sorted by (group_id, rank). maxRank <= 0 means no limit.
	ListByStage(ctx context.Context, stageID int, maxRank int) ([]*models.StageStanding, error)
}

type postgresStageStandingRepository struct {
	db *sql.DB
}

func NewPostgresStageStandingRepository(db *sql.DB) StageStandingRepository {
	return &postgresStageStandingRepository{db: db}
}

func (r *postgresStageStandingRepository) ReplaceGroup(ctx context.Context, stageID, groupID int, standings []*models.StageStanding) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM stage_standings WHERE stage_id = $1 AND group_id = $2`, stageID, groupID)
		if err != nil {
			return fmt.Errorf("ReplaceGroup failed to delete old rows: %w", err)
		}
		if len(standings) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO stage_standings
				(stage_id, group_id, team_id, played, won, drawn, lost, gf, ga, gd, points, rank, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
		if err != nil {
			return fmt.Errorf("ReplaceGroup failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, s := range standings {
			if s.UpdatedAt.IsZero() {
				s.UpdatedAt = now
			}
			_, err = stmt.ExecContext(ctx,
				stageID, groupID, s.TeamID, s.Played, s.Won, s.Drawn, s.Lost,
				s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points, s.Rank, s.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("ReplaceGroup failed for team %d: %w", s.TeamID, err)
			}
		}
		return nil
	})
}

func (r *postgresStageStandingRepository) ListByStage(ctx context.Context, stageID int, maxRank int) ([]*models.StageStanding, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT stage_id, group_id, team_id, played, won, drawn, lost, gf, ga, gd, points, rank, updated_at
		FROM stage_standings
		WHERE stage_id = $1`)
	args := []interface{}{stageID}
	if maxRank > 0 {
		queryBuilder.WriteString(" AND rank <= $2")
		args = append(args, maxRank)
	}
	queryBuilder.WriteString(" ORDER BY group_id ASC, rank ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.StageStanding, 0)
	for rows.Next() {
		var s models.StageStanding
		err := rows.Scan(
			&s.StageID, &s.GroupID, &s.TeamID, &s.Played, &s.Won, &s.Drawn, &s.Lost,
			&s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference, &s.Points, &s.Rank, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
