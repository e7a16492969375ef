package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-progression/db"
	"github.com/Dosada05/tournament-progression/routes"
	"github.com/Dosada05/tournament-progression/services"
	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

func main() {
	logger := newLogger()

	rootCmd := &cobra.Command{
		Use:   "tournament-progression",
		Short: "Tournament progression engine",
		Long: `Keeps multi-stage tournaments consistent after each finished match:
knockout propagation, intake slots, standings, knockout seeding and completion.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(migrateCmd(logger))
	rootCmd.AddCommand(progressCmd(logger))
	rootCmd.AddCommand(finishCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()

			// An embedded database starts empty.
			if a.cfg.DatabaseDriver == db.DriverSQLite {
				if err := db.Migrate(cmd.Context(), a.db, a.cfg.DatabaseDriver); err != nil {
					return err
				}
			}
			return serve(a)
		},
	}
}

func serve(a *app) error {
	logger := a.logger
	matchHandler, stageHandler, tournamentHandler := a.handlers()

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Options{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimitRPS:   a.cfg.RateLimitRPS,
		RateLimitBurst: a.cfg.RateLimitBurst,
	}, matchHandler, stageHandler, tournamentHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

func migrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()

			if err := db.Migrate(cmd.Context(), a.db, a.cfg.DatabaseDriver); err != nil {
				return err
			}
			fmt.Printf("%s schema is up to date (%s)\n", color.New(color.FgGreen).Sprint("OK"), a.cfg.DatabaseDriver)
			return nil
		},
	}
}

func progressCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <matchID>",
		Short: "Re-run the progression pipeline for a finished match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := parsePositive("matchID", args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.progressionService.ProgressAfterMatch(cmd.Context(), matchID)
			if err != nil {
				return err
			}
			printProgress(matchID, result)
			return nil
		},
	}
}

func finishCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "finish <matchID> <scoreA> <scoreB>",
		Short: "Record a final score and progress the tournament",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := parsePositive("matchID", args[0])
			if err != nil {
				return err
			}
			scoreA, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid scoreA %q", args[1])
			}
			scoreB, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid scoreB %q", args[2])
			}

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.matchService.FinishMatch(cmd.Context(), matchID, services.FinishMatchInput{ScoreA: &scoreA, ScoreB: &scoreB})
			if err != nil {
				return err
			}
			fmt.Printf("match %d finished %d-%d\n", matchID, scoreA, scoreB)
			printProgress(matchID, result.Progress)
			return nil
		},
	}
}

func printProgress(matchID int, result *services.ProgressResult) {
	if result.Skipped != "" {
		fmt.Printf("%s match %d: %s (run %s)\n", color.New(color.FgYellow).Sprint("SKIPPED"), matchID, result.Skipped, result.RunID)
		return
	}
	fmt.Printf("%s match %d progressed (run %s)\n", color.New(color.FgGreen).Sprint("OK"), matchID, result.RunID)
	fmt.Printf("  slots filled:      %d\n", result.SlotsFilled)
	fmt.Printf("  mappings created:  %d\n", result.MappingsCreated)
	fmt.Printf("  intake applied:    %d\n", result.IntakeApplied)
	fmt.Printf("  standing groups:   %d\n", result.StandingGroups)
	fmt.Printf("  seeded matches:    %d\n", result.SeededMatches)
	if result.TournamentCompleted {
		fmt.Printf("  %s\n", color.New(color.FgBlue).Sprint("tournament completed"))
	}
}

func parsePositive(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}
