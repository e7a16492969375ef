package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/brackets"
	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
)

type ScheduleGroupInput struct {
	TeamIDs []int `json:"team_ids"`
	// Legs is 1 (single round robin) or 2 (home and away). Zero means 1.
	Legs int `json:"legs,omitempty"`
}

type FixtureService interface {
	// ScheduleGroup creates the round robin matches of one group, or of a whole league
	// stage when groupID is 0.
	ScheduleGroup(ctx context.Context, stageID, groupID int, input ScheduleGroupInput) ([]*models.Match, error)
}

type fixtureService struct {
	db        *sql.DB
	stageRepo repositories.StageRepository
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewFixtureService(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{db: db, stageRepo: stageRepo, matchRepo: matchRepo, logger: logger}
}

func (s *fixtureService) ScheduleGroup(ctx context.Context, stageID, groupID int, input ScheduleGroupInput) ([]*models.Match, error) {
	if input.Legs < 0 || input.Legs > 2 {
		return nil, fmt.Errorf("%w: legs must be 1 or 2", ErrValidationFailed)
	}
	seen := make(map[int]bool, len(input.TeamIDs))
	for _, id := range input.TeamIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid team id %d", ErrValidationFailed, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: team %d listed twice", ErrValidationFailed, id)
		}
		seen[id] = true
	}

	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "stage %d", stageID)
	}
	if stage.IsKnockout() {
		return nil, fmt.Errorf("%w: knockout stages are seeded, not scheduled", ErrValidationFailed)
	}

	var groupRef *int
	if groupID != 0 {
		group, err := s.stageRepo.GetGroup(ctx, groupID)
		if err != nil {
			return nil, handleRepositoryError(err, "group %d", groupID)
		}
		if group.StageID != stageID {
			return nil, fmt.Errorf("%w: group %d does not belong to stage %d", ErrNotFound, groupID, stageID)
		}
		groupRef = &group.ID
	} else if stage.Kind == models.StageGroups {
		return nil, fmt.Errorf("%w: a group is required for a groups stage", ErrValidationFailed)
	}

	fixtures, err := brackets.RoundRobin(input.TeamIDs, input.Legs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	created := make([]*models.Match, 0, len(fixtures))
	err = repositories.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := s.matchRepo.ListByStage(ctx, tx, stageID, repositories.ListMatchesFilter{GroupID: groupRef})
		if err != nil {
			return fmt.Errorf("failed to list matches of stage %d: %w", stageID, err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: fixtures already exist", ErrValidationFailed)
		}
		for _, f := range fixtures {
			matchday, teamA, teamB := f.Matchday, f.TeamAID, f.TeamBID
			m := &models.Match{
				TournamentID: stage.TournamentID,
				StageID:      stageID,
				GroupID:      groupRef,
				Matchday:     &matchday,
				TeamAID:      &teamA,
				TeamBID:      &teamB,
				Status:       models.MatchScheduled,
			}
			if err := s.matchRepo.Create(ctx, tx, m); err != nil {
				return fmt.Errorf("failed to create matchday %d fixture: %w", matchday, err)
			}
			created = append(created, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "fixtures scheduled",
		slog.Int("stage_id", stageID),
		slog.Int("group_id", groupID),
		slog.Int("matches", len(created)),
	)
	return created, nil
}
