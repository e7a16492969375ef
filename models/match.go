package models

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchFinished  MatchStatus = "finished"
)

// Outcome selects the winner (W) or the loser (L) of a match.
type Outcome string

const (
	OutcomeWinner Outcome = "W"
	OutcomeLoser  Outcome = "L"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWinner || o == OutcomeLoser
}

// Side is one of the two team slots of a match. Home maps to team A, away to team B.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// Match is a single fixture. Knockout matches carry Round/BracketPos and may declare
// per-side sources; league and group matches carry Matchday.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	StageID      int         `json:"stage_id" db:"stage_id"`
	GroupID      *int        `json:"group_id,omitempty" db:"group_id"`
	Matchday     *int        `json:"matchday,omitempty" db:"matchday"`
	Round        *int        `json:"round,omitempty" db:"round"`
	BracketPos   *int        `json:"bracket_pos,omitempty" db:"bracket_pos"`
	TeamAID      *int        `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID      *int        `json:"team_b_id,omitempty" db:"team_b_id"`
	ScoreA       *int        `json:"score_a,omitempty" db:"score_a"`
	ScoreB       *int        `json:"score_b,omitempty" db:"score_b"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	Status       MatchStatus `json:"status" db:"status"`

	HomeSourceMatchID *int     `json:"home_source_match_id,omitempty" db:"home_source_match_id"`
	HomeSourceOutcome *Outcome `json:"home_source_outcome,omitempty" db:"home_source_outcome"`
	AwaySourceMatchID *int     `json:"away_source_match_id,omitempty" db:"away_source_match_id"`
	AwaySourceOutcome *Outcome `json:"away_source_outcome,omitempty" db:"away_source_outcome"`
}

func (m *Match) IsFinished() bool { return m.Status == MatchFinished }

// Team returns the team currently assigned to the given side.
func (m *Match) Team(side Side) *int {
	if side == SideHome {
		return m.TeamAID
	}
	return m.TeamBID
}

// Source returns the declared source link of the given side.
func (m *Match) Source(side Side) (matchID *int, outcome *Outcome) {
	if side == SideHome {
		return m.HomeSourceMatchID, m.HomeSourceOutcome
	}
	return m.AwaySourceMatchID, m.AwaySourceOutcome
}

// GroupKey buckets a match for standings; a missing group is the implicit group 0.
func (m *Match) GroupKey() int {
	if m.GroupID == nil {
		return 0
	}
	return *m.GroupID
}

// HasBracketPosition reports whether the match is addressable as (round, bracket_pos).
func (m *Match) HasBracketPosition() bool {
	return m.Round != nil && m.BracketPos != nil
}
