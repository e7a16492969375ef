package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleSlotRepository reports no slots, like a reader that ran before a concurrent write.
type staleSlotRepository struct {
	repositories.SlotRepository
}

func (staleSlotRepository) MaxSlotID(ctx context.Context, exec repositories.SQLExecutor, stageID, groupID int) (int, error) {
	return 0, nil
}

// staleIntakeRepository can hide existing mappings from the first existence check and
// from every next-slot lookup.
type staleIntakeRepository struct {
	repositories.IntakeMappingRepository
	hideExisting bool
	hideMax      bool
}

func (r *staleIntakeRepository) ExistsForMatch(ctx context.Context, fromStageID, round, bracketPos int) (bool, error) {
	if r.hideExisting {
		r.hideExisting = false
		return false, nil
	}
	return r.IntakeMappingRepository.ExistsForMatch(ctx, fromStageID, round, bracketPos)
}

func (r *staleIntakeRepository) MaxSlotIdx(ctx context.Context, targetStageID, groupIdx int) (int, error) {
	if r.hideMax {
		return 0, nil
	}
	return r.IntakeMappingRepository.MaxSlotIdx(ctx, targetStageID, groupIdx)
}

type intakeFixture struct {
	env    *testEnv
	ko     *models.Stage
	groups *models.Stage
	m1     *models.Match
	m2     *models.Match
}

// setupIntakeRace finishes the first of two knockout matches through the engine so its
// mappings take slot 1 of both target groups, and finishes the second one directly.
func setupIntakeRace(t *testing.T) *intakeFixture {
	t.Helper()
	env := setupTestEnv(t)
	ctx := context.Background()

	tr := env.createTournament(t)
	ko := env.createStage(t, tr.ID, models.StageKnockout, 1, "")
	groups := env.createStage(t, tr.ID, models.StageGroups, 2, `{"from_stage_id": `+itoa(ko.ID)+`}`)
	env.createGroup(t, groups.ID, 1, "Upper")
	env.createGroup(t, groups.ID, 2, "Lower")

	m1 := env.createKnockoutMatch(t, ko, 1, 1, 5, 7)
	m2 := env.createKnockoutMatch(t, ko, 1, 2, 8, 9)
	env.finish(t, m1.ID, 2, 1)
	require.NoError(t, env.matchRepo.Finish(ctx, m2.ID, 0, 1, intPtr(9)))

	return &intakeFixture{env: env, ko: ko, groups: groups, m1: env.getMatch(t, m1.ID), m2: env.getMatch(t, m2.ID)}
}

func TestSynthesizeSlotRaceSurfacesConflict(t *testing.T) {
	f := setupIntakeRace(t)
	env := f.env
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stale := newIntakeSynthesizer(env.stageRepo, staleSlotRepository{env.slotRepo}, &staleIntakeRepository{
		IntakeMappingRepository: env.intakeRepo,
		hideMax:                 true,
	})

	created, err := stale.synthesize(ctx, logger, f.m2, f.ko)
	assert.ErrorIs(t, err, repositories.ErrIntakeMappingConflict)
	assert.Empty(t, created)

	mappings, err := env.intakeRepo.ListByTargetStage(ctx, f.groups.ID)
	require.NoError(t, err)
	assert.Len(t, mappings, 2)
	exists, err := env.intakeRepo.ExistsForMatch(ctx, f.ko.ID, 1, 2)
	require.NoError(t, err)
	assert.False(t, exists)

	// Running again with fresh reads takes the next slots.
	res, err := env.progression.ProgressAfterMatch(ctx, f.m2.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.MappingsCreated)
	assert.Equal(t, 2, res.IntakeApplied)

	mappings, err = env.intakeRepo.ListForMatch(ctx, f.ko.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	for _, mp := range mappings {
		assert.Equal(t, 2, mp.SlotIdx)
	}
}

func TestSynthesizeLostRaceForSameMatchIsSilent(t *testing.T) {
	f := setupIntakeRace(t)
	env := f.env
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// The first existence check misses the mappings another run already wrote.
	stale := newIntakeSynthesizer(env.stageRepo, env.slotRepo, &staleIntakeRepository{
		IntakeMappingRepository: env.intakeRepo,
		hideExisting:            true,
	})

	created, err := stale.synthesize(ctx, logger, f.m1, f.ko)
	require.NoError(t, err)
	assert.Empty(t, created)

	mappings, err := env.intakeRepo.ListByTargetStage(ctx, f.groups.ID)
	require.NoError(t, err)
	assert.Len(t, mappings, 2)
}
