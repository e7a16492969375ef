package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-progression/db"
	"github.com/Dosada05/tournament-progression/handlers"
	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/Dosada05/tournament-progression/services"
	"github.com/Dosada05/tournament-progression/storage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router     *chi.Mux
	stageRepo  repositories.StageRepository
	matchRepo  repositories.MatchRepository
	tournament *models.Tournament
	knockout   *models.Stage
}

func setupRouter(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DriverSQLite))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tournamentRepo := repositories.NewPostgresTournamentRepository(conn)
	stageRepo := repositories.NewPostgresStageRepository(conn)
	matchRepo := repositories.NewPostgresMatchRepository(conn)
	slotRepo := repositories.NewPostgresSlotRepository(conn)
	intakeRepo := repositories.NewPostgresIntakeMappingRepository(conn)
	standingRepo := repositories.NewPostgresStageStandingRepository(conn)
	progressRepo := repositories.NewPostgresMatchProgressRepository(conn)

	progression := services.NewProgressionService(conn, tournamentRepo, stageRepo, matchRepo, slotRepo,
		intakeRepo, standingRepo, progressRepo, storage.NewNoopArchiver(), logger)
	matchService := services.NewMatchService(matchRepo, stageRepo, progression, logger)
	stageService := services.NewStageService(stageRepo, matchRepo, slotRepo, intakeRepo, standingRepo, logger)
	fixtureService := services.NewFixtureService(conn, stageRepo, matchRepo, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, stageRepo, matchRepo, standingRepo)

	router := chi.NewRouter()
	SetupRoutes(router, opts,
		handlers.NewMatchHandler(matchService, stageService, progression, logger),
		handlers.NewStageHandler(stageService, fixtureService, logger),
		handlers.NewTournamentHandler(tournamentService, logger),
	)

	tr := &models.Tournament{Name: "Open"}
	require.NoError(t, tournamentRepo.Create(ctx, tr))
	ko := &models.Stage{TournamentID: tr.ID, Name: "Playoffs", Kind: models.StageKnockout, Ordering: 1}
	require.NoError(t, stageRepo.Create(ctx, ko))

	return &fixture{router: router, stageRepo: stageRepo, matchRepo: matchRepo, tournament: tr, knockout: ko}
}

func defaultOptions() Options {
	return Options{AllowedOrigins: []string{"*"}, RateLimitRPS: 100, RateLimitBurst: 100}
}

func (f *fixture) createMatch(t *testing.T, round, pos int, teamA, teamB *int) *models.Match {
	t.Helper()
	m := &models.Match{
		TournamentID: f.tournament.ID,
		StageID:      f.knockout.ID,
		Round:        &round,
		BracketPos:   &pos,
		TeamAID:      teamA,
		TeamBID:      teamB,
	}
	require.NoError(t, f.matchRepo.Create(context.Background(), nil, m))
	return m
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func intPtr(i int) *int { return &i }

func TestHealthz(t *testing.T) {
	f := setupRouter(t, defaultOptions())
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestFinishMatchEndpoint(t *testing.T) {
	f := setupRouter(t, defaultOptions())
	semi := f.createMatch(t, 1, 1, intPtr(5), intPtr(7))
	final := f.createMatch(t, 2, 1, nil, nil)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/sources/home", final.ID),
		fmt.Sprintf(`{"source_match_id": %d, "outcome": "W"}`, semi.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/finish", semi.ID), `{"score_a": 2, "score_b": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result services.FinishMatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Progress.OK)
	assert.Equal(t, 1, result.Progress.SlotsFilled)
	assert.Equal(t, models.MatchFinished, result.Match.Status)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d", final.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Match models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Match.TeamAID)
	assert.Equal(t, 5, *body.Match.TeamAID)

	t.Run("already finished", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/finish", semi.ID), `{"score_a": 2, "score_b": 1}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rerun progress", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/progress", semi.ID), "")
		require.Equal(t, http.StatusOK, rec.Code)
		var progress services.ProgressResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
		assert.True(t, progress.OK)
		assert.Zero(t, progress.SlotsFilled)
	})

	t.Run("not finishable", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/finish", final.ID), `{"score_a": 1, "score_b": 0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFinishMatchEndpointErrors(t *testing.T) {
	f := setupRouter(t, defaultOptions())
	m := f.createMatch(t, 1, 1, intPtr(5), intPtr(7))
	path := fmt.Sprintf("/api/matches/%d/finish", m.ID)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad id", "/api/matches/abc/finish", `{"score_a": 1, "score_b": 0}`, http.StatusBadRequest},
		{"unknown match", "/api/matches/999/finish", `{"score_a": 1, "score_b": 0}`, http.StatusNotFound},
		{"malformed body", path, `{"score_a": 1`, http.StatusBadRequest},
		{"unknown field", path, `{"score_a": 1, "score_b": 0, "winner": 5}`, http.StatusBadRequest},
		{"empty body", path, ``, http.StatusBadRequest},
		{"missing score", path, `{"score_a": 1}`, http.StatusBadRequest},
		{"knockout draw", path, `{"score_a": 1, "score_b": 1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestLinkSourceEndpointRejectsCycle(t *testing.T) {
	f := setupRouter(t, defaultOptions())
	a := f.createMatch(t, 1, 1, intPtr(1), intPtr(2))
	b := f.createMatch(t, 2, 1, nil, nil)

	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/sources/away", b.ID),
		fmt.Sprintf(`{"source_match_id": %d, "outcome": "L"}`, a.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/sources/home", a.ID),
		fmt.Sprintf(`{"source_match_id": %d, "outcome": "W"}`, b.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/matches/%d/sources/left", a.ID),
		fmt.Sprintf(`{"source_match_id": %d, "outcome": "W"}`, b.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/stages/%d/validate", f.knockout.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var v services.StageValidation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Valid)
}

func TestStageEndpoints(t *testing.T) {
	f := setupRouter(t, defaultOptions())
	ctx := context.Background()

	groups := &models.Stage{TournamentID: f.tournament.ID, Name: "Groups", Kind: models.StageGroups, Ordering: 2}
	require.NoError(t, f.stageRepo.Create(ctx, groups))
	g := &models.Group{StageID: groups.ID, Name: "A", Ordering: 1}
	require.NoError(t, f.stageRepo.CreateGroup(ctx, g))

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/stages/%d/groups/%d/fixtures", groups.ID, g.ID), `{"team_ids": [1, 2, 3, 4]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var scheduled struct {
		Matches []models.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scheduled))
	require.Len(t, scheduled.Matches, 6)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/stages/%d/fixtures", groups.ID), `{"team_ids": [1, 2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/finish", scheduled.Matches[0].ID), `{"score_a": 0, "score_b": 0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/stages/%d/standings", groups.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var standings struct {
		Standings []models.StageStanding `json:"standings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &standings))
	require.Len(t, standings.Standings, 2)
	assert.Equal(t, 1, standings.Standings[0].Points)

	for _, path := range []string{"slots", "intake-mappings"} {
		rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/stages/%d/%s", groups.ID, path), "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/stages/%d/validate", groups.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/stages/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/tournaments/%d", f.tournament.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		Tournament models.Tournament `json:"tournament"`
		Stages     []json.RawMessage `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, f.tournament.ID, report.Tournament.ID)
	assert.Len(t, report.Stages, 2)
}

func TestMutatingEndpointsAreRateLimited(t *testing.T) {
	f := setupRouter(t, Options{AllowedOrigins: []string{"*"}, RateLimitRPS: 0.001, RateLimitBurst: 1})
	m := f.createMatch(t, 1, 1, intPtr(5), intPtr(7))

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/progress", m.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/matches/%d/progress", m.ID), "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads share no bucket with writes.
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/matches/%d", m.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
