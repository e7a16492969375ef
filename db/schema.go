package db

import (
	"fmt"
	"strings"
)

// schemaTemplate is the single authoritative schema. Dialect specific column types are
// substituted by SchemaSQL so postgres and sqlite never drift apart.
var schemaTemplate = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id {{pk}},
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'completed'))
	)`,
	`CREATE TABLE IF NOT EXISTS stages (
		id {{pk}},
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL CHECK (kind IN ('league', 'groups', 'knockout')),
		ordering INTEGER NOT NULL,
		config {{json}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stages_tournament_ordering ON stages (tournament_id, ordering)`,
	`CREATE TABLE IF NOT EXISTS stage_groups (
		id {{pk}},
		stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		ordering INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stage_groups_stage ON stage_groups (stage_id, ordering)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id {{pk}},
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		group_id INTEGER REFERENCES stage_groups(id) ON DELETE SET NULL,
		matchday INTEGER,
		round INTEGER,
		bracket_pos INTEGER,
		team_a_id INTEGER,
		team_b_id INTEGER,
		score_a INTEGER,
		score_b INTEGER,
		winner_team_id INTEGER,
		status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'finished')),
		home_source_match_id INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		home_source_outcome TEXT CHECK (home_source_outcome IN ('W', 'L')),
		away_source_match_id INTEGER REFERENCES matches(id) ON DELETE SET NULL,
		away_source_outcome TEXT CHECK (away_source_outcome IN ('W', 'L'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_tournament ON matches (tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_stage ON matches (stage_id, status)`,
	`CREATE TABLE IF NOT EXISTS stage_slots (
		stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		group_id INTEGER NOT NULL,
		slot_id INTEGER NOT NULL,
		team_id INTEGER,
		source TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (stage_id, group_id, slot_id)
	)`,
	`CREATE TABLE IF NOT EXISTS intake_mappings (
		id {{pk}},
		target_stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		group_idx INTEGER NOT NULL,
		slot_idx INTEGER NOT NULL,
		from_stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		bracket_pos INTEGER NOT NULL,
		outcome TEXT NOT NULL CHECK (outcome IN ('W', 'L'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_intake_mappings_source ON intake_mappings (from_stage_id, round, bracket_pos, outcome)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_intake_mappings_target ON intake_mappings (target_stage_id, group_idx, slot_idx)`,
	`CREATE TABLE IF NOT EXISTS stage_standings (
		stage_id INTEGER NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		group_id INTEGER NOT NULL,
		team_id INTEGER NOT NULL,
		played INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0,
		drawn INTEGER NOT NULL DEFAULT 0,
		lost INTEGER NOT NULL DEFAULT 0,
		gf INTEGER NOT NULL DEFAULT 0,
		ga INTEGER NOT NULL DEFAULT 0,
		gd INTEGER NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		rank INTEGER NOT NULL,
		updated_at {{timestamp}},
		PRIMARY KEY (stage_id, group_id, team_id)
	)`,
	`CREATE TABLE IF NOT EXISTS match_progress (
		match_id INTEGER PRIMARY KEY REFERENCES matches(id) ON DELETE CASCADE,
		last_step TEXT NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		updated_at {{timestamp}}
	)`,
}

var dialects = map[string]*strings.Replacer{
	DriverPostgres: strings.NewReplacer(
		"{{pk}}", "SERIAL PRIMARY KEY",
		"{{json}}", "JSONB",
		"{{timestamp}}", "TIMESTAMPTZ NOT NULL DEFAULT NOW()",
	),
	DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{json}}", "TEXT",
		"{{timestamp}}", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP",
	),
}

// SchemaSQL returns the schema statements for the given driver.
func SchemaSQL(driver string) ([]string, error) {
	r, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no schema for database driver %q", driver)
	}
	stmts := make([]string, len(schemaTemplate))
	for i, s := range schemaTemplate {
		stmts[i] = r.Replace(s)
	}
	return stmts, nil
}
