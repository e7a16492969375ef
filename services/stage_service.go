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

type LinkSourceInput struct {
	SourceMatchID *int           `json:"source_match_id"`
	Outcome       models.Outcome `json:"outcome"`
}

// StageValidation lists the source links of a knockout stage that break its DAG.
type StageValidation struct {
	StageID int      `json:"stage_id"`
	Valid   bool     `json:"valid"`
	Issues  []string `json:"issues"`
}

type StageService interface {
	GetStage(ctx context.Context, stageID int) (*models.Stage, error)
	ListStandings(ctx context.Context, stageID int) ([]*models.StageStanding, error)
	ListSlots(ctx context.Context, stageID int) ([]*models.StageSlot, error)
	ListIntakeMappings(ctx context.Context, stageID int) ([]*models.IntakeMapping, error)

	// LinkSource sets (or, with a nil source, clears) the source of one side of a
	// knockout match.
	LinkSource(ctx context.Context, matchID int, side models.Side, input LinkSourceInput) (*models.Match, error)
	ValidateKnockoutStage(ctx context.Context, stageID int) (*StageValidation, error)
}

type stageService struct {
	stageRepo    repositories.StageRepository
	matchRepo    repositories.MatchRepository
	slotRepo     repositories.SlotRepository
	intakeRepo   repositories.IntakeMappingRepository
	standingRepo repositories.StageStandingRepository
	logger       *slog.Logger
}

func NewStageService(
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	slotRepo repositories.SlotRepository,
	intakeRepo repositories.IntakeMappingRepository,
	standingRepo repositories.StageStandingRepository,
	logger *slog.Logger,
) StageService {
	return &stageService{
		stageRepo:    stageRepo,
		matchRepo:    matchRepo,
		slotRepo:     slotRepo,
		intakeRepo:   intakeRepo,
		standingRepo: standingRepo,
		logger:       logger,
	}
}

func (s *stageService) GetStage(ctx context.Context, stageID int) (*models.Stage, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "stage %d", stageID)
	}
	return stage, nil
}

func (s *stageService) ListStandings(ctx context.Context, stageID int) ([]*models.StageStanding, error) {
	if _, err := s.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	standings, err := s.standingRepo.ListByStage(ctx, stageID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of stage %d: %w", stageID, err)
	}
	return standings, nil
}

func (s *stageService) ListSlots(ctx context.Context, stageID int) ([]*models.StageSlot, error) {
	if _, err := s.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	slots, err := s.slotRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots of stage %d: %w", stageID, err)
	}
	return slots, nil
}

func (s *stageService) ListIntakeMappings(ctx context.Context, stageID int) ([]*models.IntakeMapping, error) {
	if _, err := s.GetStage(ctx, stageID); err != nil {
		return nil, err
	}
	mappings, err := s.intakeRepo.ListByTargetStage(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake mappings of stage %d: %w", stageID, err)
	}
	return mappings, nil
}

func (s *stageService) LinkSource(ctx context.Context, matchID int, side models.Side, input LinkSourceInput) (*models.Match, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: unknown side %q", ErrValidationFailed, side)
	}
	if input.SourceMatchID != nil && !input.Outcome.Valid() {
		return nil, fmt.Errorf("%w: outcome must be W or L", ErrValidationFailed)
	}

	target, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	stage, err := s.stageRepo.GetByID(ctx, target.StageID)
	if err != nil {
		return nil, handleRepositoryError(err, "stage %d", target.StageID)
	}
	if !stage.IsKnockout() {
		return nil, fmt.Errorf("%w: source links are only allowed in knockout stages", ErrValidationFailed)
	}

	if input.SourceMatchID == nil {
		if err := s.matchRepo.UpdateSource(ctx, matchID, side, nil, nil); err != nil {
			return nil, handleRepositoryError(err, "failed to clear source of match %d", matchID)
		}
		return s.reload(ctx, matchID)
	}

	sourceID := *input.SourceMatchID
	if sourceID == matchID {
		return nil, fmt.Errorf("%w: match %d cannot feed itself", ErrCyclicSource, matchID)
	}
	source, err := s.matchRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, handleRepositoryError(err, "source match %d", sourceID)
	}
	if source.StageID != target.StageID {
		return nil, fmt.Errorf("%w: match %d is in stage %d, match %d in stage %d",
			ErrForeignSource, sourceID, source.StageID, matchID, target.StageID)
	}

	matches, err := s.matchRepo.ListByStage(ctx, nil, stage.ID, repositories.ListMatchesFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %d: %w", stage.ID, err)
	}
	// The link being replaced must not count against the new one.
	for _, m := range matches {
		if m.ID != matchID {
			continue
		}
		if side == models.SideHome {
			m.HomeSourceMatchID, m.HomeSourceOutcome = nil, nil
		} else {
			m.AwaySourceMatchID, m.AwaySourceOutcome = nil, nil
		}
	}
	kg, err := brackets.NewKnockoutGraph(matches)
	if err != nil {
		return nil, fmt.Errorf("failed to build knockout graph of stage %d: %w", stage.ID, err)
	}
	if err := kg.CheckLink(sourceID, matchID); err != nil {
		return nil, mapGraphError(err)
	}

	outcome := input.Outcome
	if err := s.matchRepo.UpdateSource(ctx, matchID, side, &sourceID, &outcome); err != nil {
		return nil, handleRepositoryError(err, "failed to link source of match %d", matchID)
	}
	s.logger.InfoContext(ctx, "knockout source linked",
		slog.Int("match_id", matchID),
		slog.String("side", string(side)),
		slog.Int("source_match_id", sourceID),
		slog.String("outcome", string(outcome)),
	)
	return s.reload(ctx, matchID)
}

func (s *stageService) reload(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	return m, nil
}

func (s *stageService) ValidateKnockoutStage(ctx context.Context, stageID int) (*StageValidation, error) {
	stage, err := s.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if !stage.IsKnockout() {
		return nil, fmt.Errorf("%w: stage %d is not a knockout stage", ErrValidationFailed, stageID)
	}
	matches, err := s.matchRepo.ListByStage(ctx, nil, stageID, repositories.ListMatchesFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %d: %w", stageID, err)
	}
	kg, err := brackets.NewKnockoutGraph(matches)
	if err != nil {
		return nil, fmt.Errorf("failed to build knockout graph of stage %d: %w", stageID, err)
	}

	issues := kg.Issues()
	v := &StageValidation{StageID: stageID, Valid: len(issues) == 0, Issues: make([]string, 0, len(issues))}
	for _, issue := range issues {
		v.Issues = append(v.Issues, issue.Error())
	}
	return v, nil
}

func mapGraphError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrSourceCycle):
		return fmt.Errorf("%w: %w", ErrCyclicSource, err)
	case errors.Is(err, brackets.ErrForeignSource):
		return fmt.Errorf("%w: %w", ErrForeignSource, err)
	}
	return err
}
