package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-progression/handlers"
	"github.com/Dosada05/tournament-progression/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	matchHandler *handlers.MatchHandler,
	stageHandler *handlers.StageHandler,
	tournamentHandler *handlers.TournamentHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// One bucket for every mutating endpoint.
	limit := middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByIDHandler)
		})

		r.Route("/stages/{stageID}", func(r chi.Router) {
			r.Get("/", stageHandler.GetHandler)
			r.Get("/standings", stageHandler.StandingsHandler)
			r.Get("/slots", stageHandler.SlotsHandler)
			r.Get("/intake-mappings", stageHandler.IntakeMappingsHandler)
			r.Get("/validate", stageHandler.ValidateHandler)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/fixtures", stageHandler.ScheduleLeagueHandler)
				r.Post("/groups/{groupID}/fixtures", stageHandler.ScheduleGroupHandler)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", matchHandler.GetHandler)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/finish", matchHandler.FinishHandler)
				r.Post("/progress", matchHandler.ProgressHandler)
				r.Put("/sources/{side}", matchHandler.LinkSourceHandler)
			})
		})
	})
}
