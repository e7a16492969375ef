package models

import "time"

// Scoring rule used by every standings table.
const (
	PointsForWin  = 3
	PointsForDraw = 1
	PointsForLoss = 0
)

// StageStanding is a derived ranking row. It is never edited by hand; the whole
// table of a (stage, group) is replaced on every recompute.
type StageStanding struct {
	StageID        int       `json:"stage_id" db:"stage_id"`
	GroupID        int       `json:"group_id" db:"group_id"`
	TeamID         int       `json:"team_id" db:"team_id"`
	Played         int       `json:"played" db:"played"`
	Won            int       `json:"won" db:"won"`
	Drawn          int       `json:"drawn" db:"drawn"`
	Lost           int       `json:"lost" db:"lost"`
	GoalsFor       int       `json:"gf" db:"gf"`
	GoalsAgainst   int       `json:"ga" db:"ga"`
	GoalDifference int       `json:"gd" db:"gd"`
	Points         int       `json:"points" db:"points"`
	Rank           int       `json:"rank" db:"rank"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// MatchProgress records the last pipeline step that completed for a match.
type MatchProgress struct {
	MatchID   int       `json:"match_id" db:"match_id"`
	LastStep  string    `json:"last_step" db:"last_step"`
	RunID     string    `json:"run_id" db:"run_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
