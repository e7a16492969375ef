package services

import "github.com/Dosada05/tournament-progression/models"

// ResolveOutcome derives the winner and loser of a match from its scores. A draw, or a
// match without both scores and teams, yields two nil ids.
func ResolveOutcome(m *models.Match) (winnerTeamID, loserTeamID *int) {
	if m == nil || m.ScoreA == nil || m.ScoreB == nil || m.TeamAID == nil || m.TeamBID == nil {
		return nil, nil
	}
	switch {
	case *m.ScoreA > *m.ScoreB:
		return m.TeamAID, m.TeamBID
	case *m.ScoreB > *m.ScoreA:
		return m.TeamBID, m.TeamAID
	}
	return nil, nil
}

func teamForOutcome(outcome models.Outcome, winnerTeamID, loserTeamID *int) *int {
	switch outcome {
	case models.OutcomeWinner:
		return winnerTeamID
	case models.OutcomeLoser:
		return loserTeamID
	}
	return nil
}
