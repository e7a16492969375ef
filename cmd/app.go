package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/tournament-progression/config"
	"github.com/Dosada05/tournament-progression/db"
	"github.com/Dosada05/tournament-progression/handlers"
	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/Dosada05/tournament-progression/services"
	"github.com/Dosada05/tournament-progression/storage"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	logger *slog.Logger

	progressionService services.ProgressionService
	matchService       services.MatchService
	stageService       services.StageService
	fixtureService     services.FixtureService
	tournamentService  services.TournamentService
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("driver", cfg.DatabaseDriver))

	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	// The archive is optional; without R2 settings completed tournaments are not exported.
	archiver := storage.NewNoopArchiver()
	if cfg.R2.Enabled() {
		archiver, err = storage.NewCloudflareR2Archiver(ctx, cfg.R2)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		logger.Info("Cloudflare R2 archiver initialized")
	}

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	intakeRepo := repositories.NewPostgresIntakeMappingRepository(dbConn)
	standingRepo := repositories.NewPostgresStageStandingRepository(dbConn)
	progressRepo := repositories.NewPostgresMatchProgressRepository(dbConn)

	progressionService := services.NewProgressionService(
		dbConn,
		tournamentRepo,
		stageRepo,
		matchRepo,
		slotRepo,
		intakeRepo,
		standingRepo,
		progressRepo,
		archiver,
		logger,
	)

	return &app{
		cfg:                cfg,
		db:                 dbConn,
		logger:             logger,
		progressionService: progressionService,
		matchService:       services.NewMatchService(matchRepo, stageRepo, progressionService, logger),
		stageService:       services.NewStageService(stageRepo, matchRepo, slotRepo, intakeRepo, standingRepo, logger),
		fixtureService:     services.NewFixtureService(dbConn, stageRepo, matchRepo, logger),
		tournamentService:  services.NewTournamentService(tournamentRepo, stageRepo, matchRepo, standingRepo),
	}, nil
}

func (a *app) handlers() (*handlers.MatchHandler, *handlers.StageHandler, *handlers.TournamentHandler) {
	return handlers.NewMatchHandler(a.matchService, a.stageService, a.progressionService, a.logger),
		handlers.NewStageHandler(a.stageService, a.fixtureService, a.logger),
		handlers.NewTournamentHandler(a.tournamentService, a.logger)
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database connection", slog.Any("error", err))
	} else {
		a.logger.Info("database connection closed")
	}
}
