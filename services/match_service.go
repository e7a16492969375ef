package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
)

type FinishMatchInput struct {
	ScoreA *int `json:"score_a"`
	ScoreB *int `json:"score_b"`
}

type FinishMatchResult struct {
	Match    *models.Match   `json:"match"`
	Progress *ProgressResult `json:"progress"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	// FinishMatch records the final score and runs the progression engine for the match.
	FinishMatch(ctx context.Context, matchID int, input FinishMatchInput) (*FinishMatchResult, error)
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	stageRepo   repositories.StageRepository
	progression ProgressionService
	logger      *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	progression ProgressionService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		stageRepo:   stageRepo,
		progression: progression,
		logger:      logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	return m, nil
}

func (s *matchService) FinishMatch(ctx context.Context, matchID int, input FinishMatchInput) (*FinishMatchResult, error) {
	if input.ScoreA == nil || input.ScoreB == nil {
		return nil, fmt.Errorf("%w: score_a and score_b are required", ErrValidationFailed)
	}
	scoreA, scoreB := *input.ScoreA, *input.ScoreB
	if scoreA < 0 || scoreB < 0 {
		return nil, fmt.Errorf("%w: scores must not be negative", ErrValidationFailed)
	}

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	if m.IsFinished() {
		return nil, ErrMatchAlreadyFinished
	}
	if m.TeamAID == nil || m.TeamBID == nil {
		return nil, ErrMatchNotFinishable
	}

	stage, err := s.stageRepo.GetByID(ctx, m.StageID)
	if err != nil {
		return nil, handleRepositoryError(err, "stage %d", m.StageID)
	}
	if stage.IsKnockout() && scoreA == scoreB {
		return nil, ErrKnockoutDraw
	}

	m.ScoreA, m.ScoreB = &scoreA, &scoreB
	winner, _ := ResolveOutcome(m)
	if err := s.matchRepo.Finish(ctx, matchID, scoreA, scoreB, winner); err != nil {
		if errors.Is(err, repositories.ErrMatchNotOpen) {
			return nil, ErrMatchAlreadyFinished
		}
		return nil, fmt.Errorf("failed to finish match %d: %w", matchID, err)
	}
	s.logger.InfoContext(ctx, "match finished",
		slog.Int("match_id", matchID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
	)

	progress, err := s.progression.ProgressAfterMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	finished, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "match %d", matchID)
	}
	return &FinishMatchResult{Match: finished, Progress: progress}, nil
}
