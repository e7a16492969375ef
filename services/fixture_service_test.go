package services

import (
	"context"
	"testing"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleGroup(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tr := env.createTournament(t)
	groups := env.createStage(t, tr.ID, models.StageGroups, 1, "")
	ko := env.createStage(t, tr.ID, models.StageKnockout, 2, "")
	groupA := env.createGroup(t, groups.ID, 1, "A")
	foreignGroup := env.createGroup(t, ko.ID, 1, "X")

	created, err := env.fixtures.ScheduleGroup(ctx, groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{1, 2, 3, 4}, Legs: 2})
	require.NoError(t, err)
	require.Len(t, created, 12)
	for _, m := range created {
		assert.Equal(t, groups.ID, m.StageID)
		assert.Equal(t, tr.ID, m.TournamentID)
		require.NotNil(t, m.GroupID)
		assert.Equal(t, groupA.ID, *m.GroupID)
		assert.NotNil(t, m.Matchday)
		assert.Equal(t, models.MatchScheduled, m.Status)
	}

	tests := []struct {
		name    string
		stageID int
		groupID int
		input   ScheduleGroupInput
		wantErr error
	}{
		{"already scheduled", groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrValidationFailed},
		{"duplicate team", groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{1, 1}}, ErrValidationFailed},
		{"invalid team", groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{0, 1}}, ErrValidationFailed},
		{"too many legs", groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{1, 2}, Legs: 3}, ErrValidationFailed},
		{"single team", groups.ID, groupA.ID, ScheduleGroupInput{TeamIDs: []int{1}}, ErrValidationFailed},
		{"group required", groups.ID, 0, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrValidationFailed},
		{"knockout stage", ko.ID, 0, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrValidationFailed},
		{"group of another stage", groups.ID, foreignGroup.ID, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrNotFound},
		{"unknown stage", 999, 0, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrNotFound},
		{"unknown group", groups.ID, 999, ScheduleGroupInput{TeamIDs: []int{1, 2}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.fixtures.ScheduleGroup(ctx, tt.stageID, tt.groupID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	n, err := env.matchRepo.CountByStage(ctx, nil, groups.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestTournamentReport(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tr := env.createTournament(t)
	league := env.createStage(t, tr.ID, models.StageLeague, 1, "")
	ko := env.createStage(t, tr.ID, models.StageKnockout, 2, "")
	env.createKnockoutMatch(t, ko, 1, 1, 0, 0)

	created, err := env.fixtures.ScheduleGroup(ctx, league.ID, 0, ScheduleGroupInput{TeamIDs: []int{1, 2}})
	require.NoError(t, err)
	env.finish(t, created[0].ID, 3, 0)

	report, err := env.tournaments.GetReport(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, report.Tournament.ID)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, league.ID, report.Stages[0].Stage.ID)
	assert.Len(t, report.Stages[0].Standings, 2)
	assert.Empty(t, report.Stages[0].Matches)
	assert.Equal(t, ko.ID, report.Stages[1].Stage.ID)
	assert.Len(t, report.Stages[1].Matches, 1)
	assert.False(t, report.GeneratedAt.IsZero())

	_, err = env.tournaments.GetReport(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
