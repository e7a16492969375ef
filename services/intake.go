package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
)

// Group indexes the synthesizer routes each outcome into.
const (
	winnerGroupIdx = 0
	loserGroupIdx  = 1
)

type intakeRoute struct {
	outcome  models.Outcome
	groupIdx int
}

// intakeSynthesizer creates, once per knockout match, the mappings that carry its winner
// and loser into a downstream groups stage.
type intakeSynthesizer struct {
	stageRepo  repositories.StageRepository
	slotRepo   repositories.SlotRepository
	intakeRepo repositories.IntakeMappingRepository
}

func newIntakeSynthesizer(
	stageRepo repositories.StageRepository,
	slotRepo repositories.SlotRepository,
	intakeRepo repositories.IntakeMappingRepository,
) *intakeSynthesizer {
	return &intakeSynthesizer{stageRepo: stageRepo, slotRepo: slotRepo, intakeRepo: intakeRepo}
}

// findIntakeTarget picks the earliest later groups stage that names source as its
// from_stage_id, falling back to the first later groups stage. stages must be sorted by
// ordering.
func findIntakeTarget(stages []*models.Stage, source *models.Stage) *models.Stage {
	var fallback *models.Stage
	for _, s := range stages {
		if s.ID == source.ID || s.Ordering <= source.Ordering || s.Kind != models.StageGroups {
			continue
		}
		if s.DeclaresSource(source.ID) {
			return s
		}
		if fallback == nil {
			fallback = s
		}
	}
	return fallback
}

func (is *intakeSynthesizer) synthesize(ctx context.Context, logger *slog.Logger, m *models.Match, stage *models.Stage) ([]*models.IntakeMapping, error) {
	if !stage.IsKnockout() || !m.HasBracketPosition() {
		return nil, nil
	}

	exists, err := is.intakeRepo.ExistsForMatch(ctx, m.StageID, *m.Round, *m.BracketPos)
	if err != nil {
		return nil, fmt.Errorf("failed to check intake mappings: %w", err)
	}
	if exists {
		return nil, nil
	}

	stages, err := is.stageRepo.ListByTournament(ctx, stage.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %d: %w", stage.TournamentID, err)
	}
	target := findIntakeTarget(stages, stage)
	if target == nil {
		return nil, nil
	}
	groups, err := is.stageRepo.ListGroups(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups of stage %d: %w", target.ID, err)
	}
	if len(groups) == 0 {
		logger.InfoContext(ctx, "intake target stage has no groups", slog.Int("target_stage_id", target.ID))
		return nil, nil
	}

	routes := []intakeRoute{{models.OutcomeWinner, winnerGroupIdx}}
	if len(groups) >= 2 {
		routes = append(routes, intakeRoute{models.OutcomeLoser, loserGroupIdx})
	}

	mappings := make([]*models.IntakeMapping, 0, len(routes))
	for _, rt := range routes {
		slot, err := is.nextFreeSlot(ctx, target.ID, rt.groupIdx, groups[rt.groupIdx].ID)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, &models.IntakeMapping{
			TargetStageID: target.ID,
			GroupIdx:      rt.groupIdx,
			SlotIdx:       slot,
			FromStageID:   m.StageID,
			Round:         *m.Round,
			BracketPos:    *m.BracketPos,
			Outcome:       rt.outcome,
		})
	}

	if err := is.intakeRepo.CreateBatch(ctx, mappings); err != nil {
		if !errors.Is(err, repositories.ErrIntakeMappingConflict) {
			return nil, fmt.Errorf("failed to create intake mappings: %w", err)
		}
		// A concurrent run either created our mappings or took the slots we computed.
		exists, checkErr := is.intakeRepo.ExistsForMatch(ctx, m.StageID, *m.Round, *m.BracketPos)
		if checkErr != nil {
			return nil, fmt.Errorf("failed to re-check intake mappings: %w", checkErr)
		}
		if exists {
			return nil, nil
		}
		return nil, fmt.Errorf("intake slot allocation for stage %d raced with another run: %w", target.ID, err)
	}

	for _, mp := range mappings {
		logger.InfoContext(ctx, "intake mapping created",
			slog.Int("target_stage_id", mp.TargetStageID),
			slog.Int("group_idx", mp.GroupIdx),
			slog.Int("slot_idx", mp.SlotIdx),
			slog.String("outcome", string(mp.Outcome)),
		)
	}
	return mappings, nil
}

// nextFreeSlot is one past the highest slot already used by either a slot row or a
// mapping of that group, starting at 1.
func (is *intakeSynthesizer) nextFreeSlot(ctx context.Context, stageID, groupIdx, groupID int) (int, error) {
	maxSlot, err := is.slotRepo.MaxSlotID(ctx, nil, stageID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to read slots of stage %d group %d: %w", stageID, groupID, err)
	}
	maxMapped, err := is.intakeRepo.MaxSlotIdx(ctx, stageID, groupIdx)
	if err != nil {
		return 0, fmt.Errorf("failed to read intake mappings of stage %d group index %d: %w", stageID, groupIdx, err)
	}
	return max(maxSlot, maxMapped) + 1, nil
}

// intakeApplier writes the teams selected by a knockout match's intake mappings into
// their target slots.
type intakeApplier struct {
	stageRepo  repositories.StageRepository
	slotRepo   repositories.SlotRepository
	intakeRepo repositories.IntakeMappingRepository
}

func newIntakeApplier(
	stageRepo repositories.StageRepository,
	slotRepo repositories.SlotRepository,
	intakeRepo repositories.IntakeMappingRepository,
) *intakeApplier {
	return &intakeApplier{stageRepo: stageRepo, slotRepo: slotRepo, intakeRepo: intakeRepo}
}

func (ia *intakeApplier) apply(ctx context.Context, logger *slog.Logger, m *models.Match, stage *models.Stage) (int, error) {
	if !stage.IsKnockout() || !m.HasBracketPosition() {
		return 0, nil
	}
	mappings, err := ia.intakeRepo.ListForMatch(ctx, m.StageID, *m.Round, *m.BracketPos)
	if err != nil {
		return 0, fmt.Errorf("failed to list intake mappings: %w", err)
	}
	if len(mappings) == 0 {
		return 0, nil
	}

	winner, loser := ResolveOutcome(m)
	groupsByStage := make(map[int][]*models.Group)
	applied := 0
	for _, mp := range mappings {
		team := teamForOutcome(mp.Outcome, winner, loser)
		if team == nil {
			continue
		}

		groups, ok := groupsByStage[mp.TargetStageID]
		if !ok {
			groups, err = ia.stageRepo.ListGroups(ctx, mp.TargetStageID)
			if err != nil {
				return applied, fmt.Errorf("failed to list groups of stage %d: %w", mp.TargetStageID, err)
			}
			groupsByStage[mp.TargetStageID] = groups
		}
		if mp.GroupIdx < 0 || mp.GroupIdx >= len(groups) {
			logger.WarnContext(ctx, "intake mapping points at a missing group",
				slog.Int("mapping_id", mp.ID),
				slog.Int("target_stage_id", mp.TargetStageID),
				slog.Int("group_idx", mp.GroupIdx),
			)
			continue
		}

		slot := &models.StageSlot{
			StageID: mp.TargetStageID,
			GroupID: groups[mp.GroupIdx].ID,
			SlotID:  mp.SlotIdx,
			TeamID:  team,
			Source:  models.SlotSourceIntake,
		}
		if err := ia.slotRepo.Upsert(ctx, slot); err != nil {
			return applied, fmt.Errorf("failed to write slot %d of stage %d group %d: %w", slot.SlotID, slot.StageID, slot.GroupID, err)
		}
		applied++
	}
	return applied, nil
}
