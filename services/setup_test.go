package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-progression/db"
	"github.com/Dosada05/tournament-progression/models"
	"github.com/Dosada05/tournament-progression/repositories"
	"github.com/Dosada05/tournament-progression/storage"
	"github.com/stretchr/testify/require"
)

// recordingArchiver keeps uploads in memory.
type recordingArchiver struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newRecordingArchiver() *recordingArchiver {
	return &recordingArchiver{uploads: make(map[string][]byte)}
}

func (a *recordingArchiver) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploads[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: a.GetPublicURL(key)}, nil
}

func (a *recordingArchiver) GetPublicURL(key string) string {
	return "memory://" + key
}

func (a *recordingArchiver) get(key string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.uploads[key]
	return b, ok
}

type testEnv struct {
	db       *sql.DB
	archiver *recordingArchiver

	tournamentRepo repositories.TournamentRepository
	stageRepo      repositories.StageRepository
	matchRepo      repositories.MatchRepository
	slotRepo       repositories.SlotRepository
	intakeRepo     repositories.IntakeMappingRepository
	standingRepo   repositories.StageStandingRepository
	progressRepo   repositories.MatchProgressRepository

	progression ProgressionService
	matches     MatchService
	stages      StageService
	fixtures    FixtureService
	tournaments TournamentService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		db:             conn,
		archiver:       newRecordingArchiver(),
		tournamentRepo: repositories.NewPostgresTournamentRepository(conn),
		stageRepo:      repositories.NewPostgresStageRepository(conn),
		matchRepo:      repositories.NewPostgresMatchRepository(conn),
		slotRepo:       repositories.NewPostgresSlotRepository(conn),
		intakeRepo:     repositories.NewPostgresIntakeMappingRepository(conn),
		standingRepo:   repositories.NewPostgresStageStandingRepository(conn),
		progressRepo:   repositories.NewPostgresMatchProgressRepository(conn),
	}
	env.progression = NewProgressionService(
		conn,
		env.tournamentRepo,
		env.stageRepo,
		env.matchRepo,
		env.slotRepo,
		env.intakeRepo,
		env.standingRepo,
		env.progressRepo,
		env.archiver,
		logger,
	)
	env.matches = NewMatchService(env.matchRepo, env.stageRepo, env.progression, logger)
	env.stages = NewStageService(env.stageRepo, env.matchRepo, env.slotRepo, env.intakeRepo, env.standingRepo, logger)
	env.fixtures = NewFixtureService(conn, env.stageRepo, env.matchRepo, logger)
	env.tournaments = NewTournamentService(env.tournamentRepo, env.stageRepo, env.matchRepo, env.standingRepo)
	return env
}

func intPtr(i int) *int { return &i }

func itoa(i int) string { return strconv.Itoa(i) }

func (env *testEnv) createTournament(t *testing.T) *models.Tournament {
	t.Helper()
	tr := &models.Tournament{Name: "Spring Cup"}
	require.NoError(t, env.tournamentRepo.Create(context.Background(), tr))
	return tr
}

func (env *testEnv) createStage(t *testing.T, tournamentID int, kind models.StageKind, ordering int, config string) *models.Stage {
	t.Helper()
	s := &models.Stage{TournamentID: tournamentID, Name: string(kind), Kind: kind, Ordering: ordering}
	if config != "" {
		s.ConfigJSON = &config
	}
	require.NoError(t, env.stageRepo.Create(context.Background(), s))
	return s
}

func (env *testEnv) createGroup(t *testing.T, stageID, ordering int, name string) *models.Group {
	t.Helper()
	g := &models.Group{StageID: stageID, Name: name, Ordering: ordering}
	require.NoError(t, env.stageRepo.CreateGroup(context.Background(), g))
	return g
}

// createKnockoutMatch inserts a scheduled bracket match. Zero team ids leave the side empty.
func (env *testEnv) createKnockoutMatch(t *testing.T, stage *models.Stage, round, pos, teamA, teamB int) *models.Match {
	t.Helper()
	m := &models.Match{
		TournamentID: stage.TournamentID,
		StageID:      stage.ID,
		Round:        intPtr(round),
		BracketPos:   intPtr(pos),
	}
	if teamA != 0 {
		m.TeamAID = intPtr(teamA)
	}
	if teamB != 0 {
		m.TeamBID = intPtr(teamB)
	}
	require.NoError(t, env.matchRepo.Create(context.Background(), nil, m))
	return m
}

func (env *testEnv) linkSource(t *testing.T, matchID int, side models.Side, sourceID int, outcome models.Outcome) {
	t.Helper()
	require.NoError(t, env.matchRepo.UpdateSource(context.Background(), matchID, side, &sourceID, &outcome))
}

func (env *testEnv) finish(t *testing.T, matchID, scoreA, scoreB int) *FinishMatchResult {
	t.Helper()
	res, err := env.matches.FinishMatch(context.Background(), matchID, FinishMatchInput{ScoreA: &scoreA, ScoreB: &scoreB})
	require.NoError(t, err)
	return res
}

func (env *testEnv) getMatch(t *testing.T, id int) *models.Match {
	t.Helper()
	m, err := env.matchRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}
