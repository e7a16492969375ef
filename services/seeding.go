package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/tournament-progression/brackets"
	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"golang.org/x/sync/errgroup"
)

// Reasons the seeder reports when it leaves the next stage alone.
const (
	seedSkipKnockoutSource = "source stage is knockout"
	seedSkipNoMatches      = "source stage has no matches"
	seedSkipUnfinished     = "source stage has unfinished matches"
	seedSkipNoNextStage    = "no knockout stage follows"
	seedSkipNotLinked      = "next stage is not seeded from this stage"
	seedSkipAlreadySeeded  = "knockout stage already seeded"
	seedSkipNotEnoughSeeds = "not enough advancers to build a bracket"
)

type seedResult struct {
	TargetStageID int
	Inserted      int
	Skipped       string
}

// knockoutSeeder builds the bracket of a knockout stage from the final standings of the
// stage right before it.
type knockoutSeeder struct {
	db           *sql.DB
	stageRepo    repositories.StageRepository
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StageStandingRepository
}

func newKnockoutSeeder(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StageStandingRepository,
) *knockoutSeeder {
	return &knockoutSeeder{db: db, stageRepo: stageRepo, matchRepo: matchRepo, standingRepo: standingRepo}
}

func (ks *knockoutSeeder) seed(ctx context.Context, logger *slog.Logger, stage *models.Stage) (*seedResult, error) {
	if stage.IsKnockout() {
		return &seedResult{Skipped: seedSkipKnockoutSource}, nil
	}

	matches, err := ks.matchRepo.ListByStage(ctx, nil, stage.ID, repositories.ListMatchesFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %d: %w", stage.ID, err)
	}
	if len(matches) == 0 {
		return &seedResult{Skipped: seedSkipNoMatches}, nil
	}
	for _, m := range matches {
		if !m.IsFinished() {
			return &seedResult{Skipped: seedSkipUnfinished}, nil
		}
	}

	var (
		stages    []*models.Stage
		standings []*models.StageStanding
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = ks.stageRepo.ListByTournament(gCtx, stage.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to list stages of tournament %d: %w", stage.TournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		standings, err = ks.standingRepo.ListByStage(gCtx, stage.ID, 0)
		if err != nil {
			return fmt.Errorf("failed to list standings of stage %d: %w", stage.ID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	next := nextStage(stages, stage)
	if next == nil || !next.IsKnockout() {
		return &seedResult{Skipped: seedSkipNoNextStage}, nil
	}
	if !next.DeclaresSource(stage.ID) {
		return &seedResult{TargetStageID: next.ID, Skipped: seedSkipNotLinked}, nil
	}

	advancers := next.AdvancersPerGroup()
	if advancers == 0 {
		advancers = stage.AdvancersPerGroup()
	}
	if advancers == 0 {
		advancers = models.DefaultAdvancersPerGroup
	}
	seeds := seedOrder(standings, advancers)
	if len(seeds) < 2 {
		return &seedResult{TargetStageID: next.ID, Skipped: seedSkipNotEnoughSeeds}, nil
	}

	policy := models.SeedingStandard
	if kc, ok := next.Config.(models.KnockoutConfig); ok && kc.Seeding != "" {
		policy = kc.Seeding
	}
	bracket, err := brackets.BuildSeededBracket(seeds, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build bracket for stage %d: %w", next.ID, err)
	}

	inserted := 0
	alreadySeeded := false
	err = repositories.WithTx(ctx, ks.db, func(tx *sql.Tx) error {
		existing, err := ks.matchRepo.CountByStage(ctx, tx, next.ID)
		if err != nil {
			return fmt.Errorf("failed to count matches of stage %d: %w", next.ID, err)
		}
		if existing > 0 {
			alreadySeeded = true
			return nil
		}

		ids := make(map[brackets.BracketRef]int, len(bracket))
		for _, bm := range bracket {
			m := bracketMatchToModel(bm, next, ids)
			if err := ks.matchRepo.Create(ctx, tx, m); err != nil {
				return fmt.Errorf("failed to create round %d match %d of stage %d: %w", bm.Round, bm.BracketPos, next.ID, err)
			}
			ids[bm.Ref()] = m.ID
			inserted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadySeeded {
		return &seedResult{TargetStageID: next.ID, Skipped: seedSkipAlreadySeeded}, nil
	}

	logger.InfoContext(ctx, "knockout stage seeded",
		slog.Int("target_stage_id", next.ID),
		slog.Int("advancers", len(seeds)),
		slog.Int("matches", inserted),
		slog.String("seeding", string(policy)),
	)
	return &seedResult{TargetStageID: next.ID, Inserted: inserted}, nil
}

// nextStage returns the stage directly after current in tournament order.
func nextStage(stages []*models.Stage, current *models.Stage) *models.Stage {
	for i, s := range stages {
		if s.ID == current.ID {
			if i+1 < len(stages) {
				return stages[i+1]
			}
			return nil
		}
	}
	return nil
}

// seedOrder turns standings sorted by (group, rank) into a seed list: every group winner
// in group order, then every runner-up, and so on down to maxRank.
func seedOrder(standings []*models.StageStanding, maxRank int) []int {
	advancing := make([]*models.StageStanding, 0, len(standings))
	for _, s := range standings {
		if s.Rank <= maxRank {
			advancing = append(advancing, s)
		}
	}
	sort.SliceStable(advancing, func(i, j int) bool {
		if advancing[i].Rank != advancing[j].Rank {
			return advancing[i].Rank < advancing[j].Rank
		}
		return advancing[i].GroupID < advancing[j].GroupID
	})

	seeds := make([]int, len(advancing))
	for i, s := range advancing {
		seeds[i] = s.TeamID
	}
	return seeds
}

func bracketMatchToModel(bm *brackets.BracketMatch, stage *models.Stage, ids map[brackets.BracketRef]int) *models.Match {
	round, pos := bm.Round, bm.BracketPos
	m := &models.Match{
		TournamentID: stage.TournamentID,
		StageID:      stage.ID,
		Round:        &round,
		BracketPos:   &pos,
		TeamAID:      bm.TeamAID,
		TeamBID:      bm.TeamBID,
		Status:       models.MatchScheduled,
	}
	if bm.HomeSource != nil {
		id, outcome := ids[*bm.HomeSource], models.OutcomeWinner
		m.HomeSourceMatchID, m.HomeSourceOutcome = &id, &outcome
	}
	if bm.AwaySource != nil {
		id, outcome := ids[*bm.AwaySource], models.OutcomeWinner
		m.AwaySourceMatchID, m.AwaySourceOutcome = &id, &outcome
	}
	return m
}
