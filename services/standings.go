package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
)

// ComputeStandings builds the ranked table of every group of a stage from its matches.
// Unfinished matches are ignored. Matches without a group form the implicit group 0.
//
// Rows are ordered by points, goal difference and goals scored, all descending. Teams
// still level keep the order in which they first appear in matches, so the result is
// deterministic for a given match order.
func ComputeStandings(stageID int, matches []*models.Match) map[int][]*models.StageStanding {
	type table struct {
		rows  map[int]*models.StageStanding
		order []int
	}
	tables := make(map[int]*table)

	row := func(t *table, groupID, teamID int) *models.StageStanding {
		s, ok := t.rows[teamID]
		if !ok {
			s = &models.StageStanding{StageID: stageID, GroupID: groupID, TeamID: teamID}
			t.rows[teamID] = s
			t.order = append(t.order, teamID)
		}
		return s
	}

	for _, m := range matches {
		if !m.IsFinished() || m.TeamAID == nil || m.TeamBID == nil || m.ScoreA == nil || m.ScoreB == nil {
			continue
		}
		groupID := m.GroupKey()
		t, ok := tables[groupID]
		if !ok {
			t = &table{rows: make(map[int]*models.StageStanding)}
			tables[groupID] = t
		}

		a := row(t, groupID, *m.TeamAID)
		b := row(t, groupID, *m.TeamBID)
		scoreA, scoreB := *m.ScoreA, *m.ScoreB

		a.Played++
		b.Played++
		a.GoalsFor += scoreA
		a.GoalsAgainst += scoreB
		b.GoalsFor += scoreB
		b.GoalsAgainst += scoreA

		switch {
		case scoreA > scoreB:
			a.Won++
			b.Lost++
			a.Points += models.PointsForWin
			b.Points += models.PointsForLoss
		case scoreB > scoreA:
			b.Won++
			a.Lost++
			b.Points += models.PointsForWin
			a.Points += models.PointsForLoss
		default:
			a.Drawn++
			b.Drawn++
			a.Points += models.PointsForDraw
			b.Points += models.PointsForDraw
		}
	}

	result := make(map[int][]*models.StageStanding, len(tables))
	for groupID, t := range tables {
		standings := make([]*models.StageStanding, 0, len(t.order))
		for _, teamID := range t.order {
			s := t.rows[teamID]
			s.GoalDifference = s.GoalsFor - s.GoalsAgainst
			standings = append(standings, s)
		}
		sort.SliceStable(standings, func(i, j int) bool {
			if standings[i].Points != standings[j].Points {
				return standings[i].Points > standings[j].Points
			}
			if standings[i].GoalDifference != standings[j].GoalDifference {
				return standings[i].GoalDifference > standings[j].GoalDifference
			}
			return standings[i].GoalsFor > standings[j].GoalsFor
		})
		for i, s := range standings {
			s.Rank = i + 1
		}
		result[groupID] = standings
	}
	return result
}

type standingsCalculator struct {
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StageStandingRepository
}

func newStandingsCalculator(matchRepo repositories.MatchRepository, standingRepo repositories.StageStandingRepository) *standingsCalculator {
	return &standingsCalculator{matchRepo: matchRepo, standingRepo: standingRepo}
}

// recompute replaces the standings of every group of the stage that has a finished match.
// It returns the number of groups written.
func (sc *standingsCalculator) recompute(ctx context.Context, logger *slog.Logger, stage *models.Stage) (int, error) {
	if stage.IsKnockout() {
		return 0, nil
	}

	finished := models.MatchFinished
	matches, err := sc.matchRepo.ListByStage(ctx, nil, stage.ID, repositories.ListMatchesFilter{Status: &finished})
	if err != nil {
		return 0, fmt.Errorf("failed to list finished matches of stage %d: %w", stage.ID, err)
	}

	tables := ComputeStandings(stage.ID, matches)
	groupIDs := make([]int, 0, len(tables))
	for groupID := range tables {
		groupIDs = append(groupIDs, groupID)
	}
	sort.Ints(groupIDs)

	for _, groupID := range groupIDs {
		if err := sc.standingRepo.ReplaceGroup(ctx, stage.ID, groupID, tables[groupID]); err != nil {
			return 0, fmt.Errorf("failed to store standings of stage %d group %d: %w", stage.ID, groupID, err)
		}
	}
	logger.DebugContext(ctx, "standings recomputed", slog.Int("groups", len(groupIDs)))
	return len(groupIDs), nil
}
