package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"golang.org/x/sync/errgroup"
)

// StageReport is one stage of a tournament report. Table stages carry their standings,
// knockout stages their matches.
type StageReport struct {
	Stage     *models.Stage            `json:"stage"`
	Standings []*models.StageStanding `json:"standings,omitempty"`
	Matches   []*models.Match          `json:"matches,omitempty"`
}

// TournamentReport is the state of a whole tournament. It is served over HTTP and
// archived once the tournament completes.
type TournamentReport struct {
	Tournament  *models.Tournament `json:"tournament"`
	Stages      []StageReport      `json:"stages"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type TournamentService interface {
	GetReport(ctx context.Context, tournamentID int) (*TournamentReport, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	matchRepo      repositories.MatchRepository
	standingRepo   repositories.StageStandingRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StageStandingRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		stageRepo:      stageRepo,
		matchRepo:      matchRepo,
		standingRepo:   standingRepo,
	}
}

func (s *tournamentService) GetReport(ctx context.Context, tournamentID int) (*TournamentReport, error) {
	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "tournament %d", tournamentID)
	}
	return s.buildReport(ctx, t)
}

// buildReport loads every stage's table or bracket concurrently.
func (s *tournamentService) buildReport(ctx context.Context, t *models.Tournament) (*TournamentReport, error) {
	stages, err := s.stageRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %d: %w", t.ID, err)
	}

	reports := make([]StageReport, len(stages))
	g, gCtx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		reports[i].Stage = stage
		g.Go(func() error {
			if stage.IsKnockout() {
				matches, err := s.matchRepo.ListByStage(gCtx, nil, stage.ID, repositories.ListMatchesFilter{})
				if err != nil {
					return fmt.Errorf("failed to list matches of stage %d: %w", stage.ID, err)
				}
				reports[i].Matches = matches
				return nil
			}
			standings, err := s.standingRepo.ListByStage(gCtx, stage.ID, 0)
			if err != nil {
				return fmt.Errorf("failed to list standings of stage %d: %w", stage.ID, err)
			}
			reports[i].Standings = standings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TournamentReport{
		Tournament:  t,
		Stages:      reports,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
