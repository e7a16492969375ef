package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/Dosada05/tournament-progression/storage"
	"github.com/rs/xid"
)

// Pipeline steps, in execution order. The name of the last completed step is stored
// per match in match_progress.
const (
	StepPropagate        = "propagate"
	StepSynthesizeIntake = "synthesize_intake"
	StepApplyIntake      = "apply_intake"
	StepStandings        = "standings"
	StepSeedKnockout     = "seed_knockout"
	StepCheckCompletion  = "check_completion"
)

const SkipMatchNotFinished = "match not finished"

// ProgressResult reports one progression run. Skipped is set instead of OK when the
// match was not eligible.
type ProgressResult struct {
	OK       bool   `json:"ok"`
	Skipped  string `json:"skipped,omitempty"`
	RunID    string `json:"run_id"`
	LastStep string `json:"last_step,omitempty"`

	SlotsFilled         int  `json:"slots_filled"`
	MappingsCreated     int  `json:"mappings_created"`
	IntakeApplied       int  `json:"intake_applied"`
	StandingGroups      int  `json:"standing_groups"`
	SeededMatches       int  `json:"seeded_matches"`
	TournamentCompleted bool `json:"tournament_completed"`
}

// ProgressionService is the single entry point of the engine: it brings every derived
// artifact up to date after a match has been finished.
type ProgressionService interface {
	ProgressAfterMatch(ctx context.Context, matchID int) (*ProgressResult, error)
}

type progressionService struct {
	matchRepo    repositories.MatchRepository
	stageRepo    repositories.StageRepository
	progressRepo repositories.MatchProgressRepository

	propagator  *knockoutPropagator
	synthesizer *intakeSynthesizer
	applier     *intakeApplier
	standings   *standingsCalculator
	seeder      *knockoutSeeder
	completion  *completionChecker

	logger *slog.Logger
}

func NewProgressionService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	slotRepo repositories.SlotRepository,
	intakeRepo repositories.IntakeMappingRepository,
	standingRepo repositories.StageStandingRepository,
	progressRepo repositories.MatchProgressRepository,
	archiver storage.Archiver,
	logger *slog.Logger,
) ProgressionService {
	reports := &tournamentService{
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
	}
	return &progressionService{
		matchRepo:    matchRepo,
		stageRepo:    stageRepo,
		progressRepo: progressRepo,
		propagator:   newKnockoutPropagator(matchRepo),
		synthesizer:  newIntakeSynthesizer(stageRepo, slotRepo, intakeRepo),
		applier:      newIntakeApplier(stageRepo, slotRepo, intakeRepo),
		standings:    newStandingsCalculator(matchRepo, standingRepo),
		seeder:       newKnockoutSeeder(db, stageRepo, matchRepo, standingRepo),
		completion:   newCompletionChecker(tournamentRepo, matchRepo, reports, archiver),
		logger:       logger,
	}
}

// ProgressAfterMatch runs propagate, synthesize, apply intake, standings, seeding and
// completion for a finished match, strictly in that order. Each step commits on its own;
// an error aborts the remaining steps and the run can simply be repeated.
func (s *progressionService) ProgressAfterMatch(ctx context.Context, matchID int) (*ProgressResult, error) {
	runID := xid.New().String()
	logger := s.logger.With(slog.String("run_id", runID), slog.Int("match_id", matchID))
	result := &ProgressResult{RunID: runID}

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	if !m.IsFinished() {
		logger.InfoContext(ctx, "progression skipped", slog.String("reason", SkipMatchNotFinished))
		result.Skipped = SkipMatchNotFinished
		return result, nil
	}
	stage, err := s.stageRepo.GetByID(ctx, m.StageID)
	if err != nil {
		return nil, handleRepositoryError(err, "stage %d of match %d", m.StageID, matchID)
	}
	logger = logger.With(slog.Int("stage_id", stage.ID), slog.Int("tournament_id", stage.TournamentID))

	steps := []struct {
		name string
		run  func(context.Context, *slog.Logger) error
	}{
		{StepPropagate, func(ctx context.Context, l *slog.Logger) (err error) {
			result.SlotsFilled, err = s.propagator.propagate(ctx, l, m, stage)
			return err
		}},
		{StepSynthesizeIntake, func(ctx context.Context, l *slog.Logger) error {
			created, err := s.synthesizer.synthesize(ctx, l, m, stage)
			result.MappingsCreated = len(created)
			return err
		}},
		{StepApplyIntake, func(ctx context.Context, l *slog.Logger) (err error) {
			result.IntakeApplied, err = s.applier.apply(ctx, l, m, stage)
			return err
		}},
		{StepStandings, func(ctx context.Context, l *slog.Logger) (err error) {
			result.StandingGroups, err = s.standings.recompute(ctx, l, stage)
			return err
		}},
		{StepSeedKnockout, func(ctx context.Context, l *slog.Logger) error {
			seeded, err := s.seeder.seed(ctx, l, stage)
			if err != nil {
				return err
			}
			result.SeededMatches = seeded.Inserted
			if seeded.Skipped != "" {
				l.DebugContext(ctx, "knockout seeding skipped", slog.String("reason", seeded.Skipped))
			}
			return nil
		}},
		{StepCheckCompletion, func(ctx context.Context, l *slog.Logger) (err error) {
			result.TournamentCompleted, err = s.completion.check(ctx, l, stage.TournamentID)
			return err
		}},
	}

	for _, step := range steps {
		stepLogger := logger.With(slog.String("step", step.name))
		if err := step.run(ctx, stepLogger); err != nil {
			stepLogger.ErrorContext(ctx, "progression step failed", slog.Any("error", err))
			return nil, fmt.Errorf("progression of match %d failed at %s: %w", matchID, step.name, err)
		}
		result.LastStep = step.name
		if err := s.progressRepo.Mark(ctx, matchID, step.name, runID); err != nil {
			stepLogger.WarnContext(ctx, "failed to record progression step", slog.Any("error", err))
		}
	}

	result.OK = true
	logger.InfoContext(ctx, "progression finished",
		slog.Int("slots_filled", result.SlotsFilled),
		slog.Int("mappings_created", result.MappingsCreated),
		slog.Int("intake_applied", result.IntakeApplied),
		slog.Int("standing_groups", result.StandingGroups),
		slog.Int("seeded_matches", result.SeededMatches),
		slog.Bool("tournament_completed", result.TournamentCompleted),
	)
	return result, nil
}
