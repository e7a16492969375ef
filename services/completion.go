package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/Dosada05/tournament-progression/storage"
)

// completionChecker marks a tournament completed once all of its matches are finished
// and archives the final report.
type completionChecker struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	reports        *tournamentService
	archiver       storage.Archiver
}

func newCompletionChecker(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	reports *tournamentService,
	archiver storage.Archiver,
) *completionChecker {
	if archiver == nil {
		archiver = storage.NewNoopArchiver()
	}
	return &completionChecker{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		reports:        reports,
		archiver:       archiver,
	}
}

// check returns true if this call moved the tournament to completed.
func (cc *completionChecker) check(ctx context.Context, logger *slog.Logger, tournamentID int) (bool, error) {
	statuses, err := cc.matchRepo.ListStatusesByTournament(ctx, tournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to list match statuses of tournament %d: %w", tournamentID, err)
	}
	if len(statuses) == 0 {
		return false, nil
	}
	for _, st := range statuses {
		if st != models.MatchFinished {
			return false, nil
		}
	}

	t, err := cc.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return false, handleRepositoryError(err, "tournament %d", tournamentID)
	}
	if t.Status == models.TournamentCompleted {
		return false, nil
	}
	if err := cc.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.TournamentCompleted); err != nil {
		return false, handleRepositoryError(err, "failed to complete tournament %d", tournamentID)
	}
	t.Status = models.TournamentCompleted
	logger.InfoContext(ctx, "tournament completed", slog.Int("matches", len(statuses)))

	cc.archive(ctx, logger, t)
	return true, nil
}

// archive uploads the final report. Failures are logged only; the tournament stays completed.
func (cc *completionChecker) archive(ctx context.Context, logger *slog.Logger, t *models.Tournament) {
	report, err := cc.reports.buildReport(ctx, t)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build tournament report for archive", slog.Any("error", err))
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode tournament report", slog.Any("error", err))
		return
	}

	key := storage.TournamentArchiveKey(t.ID)
	result, err := cc.archiver.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.ErrorContext(ctx, "failed to archive tournament report", slog.String("key", key), slog.Any("error", err))
		return
	}
	logger.InfoContext(ctx, "tournament report archived",
		slog.String("key", result.Key),
		slog.String("location", result.Location),
	)
}
