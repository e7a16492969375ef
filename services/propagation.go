package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/brackets"
	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
)

// knockoutPropagator pushes the result of a finished knockout match into the matches of
// the same stage that declare it as a source.
type knockoutPropagator struct {
	matchRepo repositories.MatchRepository
}

func newKnockoutPropagator(matchRepo repositories.MatchRepository) *knockoutPropagator {
	return &knockoutPropagator{matchRepo: matchRepo}
}

// propagate returns the number of slots it filled. Slots that already hold a team are
// never overwritten.
func (p *knockoutPropagator) propagate(ctx context.Context, logger *slog.Logger, m *models.Match, stage *models.Stage) (int, error) {
	if !stage.IsKnockout() {
		return 0, nil
	}
	winner, loser := ResolveOutcome(m)
	if winner == nil && loser == nil {
		logger.WarnContext(ctx, "knockout match has no winner, nothing to propagate")
		return 0, nil
	}

	matches, err := p.matchRepo.ListByStage(ctx, nil, stage.ID, repositories.ListMatchesFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list matches of stage %d: %w", stage.ID, err)
	}
	kg, err := brackets.NewKnockoutGraph(matches)
	if err != nil {
		return 0, fmt.Errorf("failed to build knockout graph of stage %d: %w", stage.ID, err)
	}
	if vErr := kg.Validate(); vErr != nil {
		logger.WarnContext(ctx, "knockout stage has invalid source links", slog.Any("error", vErr))
	}

	filled := 0
	for _, dep := range kg.Dependants(m.ID) {
		for _, side := range []models.Side{models.SideHome, models.SideAway} {
			src, outcome := dep.Source(side)
			if src == nil || *src != m.ID || outcome == nil {
				continue
			}
			if dep.Team(side) != nil {
				continue
			}
			team := teamForOutcome(*outcome, winner, loser)
			if team == nil {
				continue
			}
			err := p.matchRepo.AssignTeamIfEmpty(ctx, dep.ID, side, *team)
			if errors.Is(err, repositories.ErrMatchSlotTaken) {
				// Filled between our read and the write.
				continue
			}
			if err != nil {
				return filled, fmt.Errorf("failed to fill %s slot of match %d: %w", side, dep.ID, err)
			}
			logger.InfoContext(ctx, "propagated team into dependent match",
				slog.Int("target_match_id", dep.ID),
				slog.String("side", string(side)),
				slog.String("outcome", string(*outcome)),
				slog.Int("team_id", *team),
			)
			filled++
		}
	}
	return filled, nil
}
