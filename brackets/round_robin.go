package brackets

import (
	"errors"
	"sort"
)

var ErrNotEnoughTeams = errors.New("not enough teams for a round robin (minimum 2)")

// Fixture is one pairing of a round robin schedule.
type Fixture struct {
	Matchday int
	TeamAID  int
	TeamBID  int
}

// RoundRobin creates the fixtures of a group or league in which every team plays every
// other team once per leg. Matchdays are built with the circle method: the first team
// stays fixed while the others rotate, and an odd field gets a rest slot each matchday.
// The second leg repeats the first with home and away swapped.
func RoundRobin(teamIDs []int, legs int) ([]Fixture, error) {
	if len(teamIDs) < 2 {
		return nil, ErrNotEnoughTeams
	}
	if legs < 1 || legs > 2 {
		legs = 1
	}

	const rest = -1
	teams := make([]int, len(teamIDs))
	copy(teams, teamIDs)
	if len(teams)%2 != 0 {
		teams = append(teams, rest)
	}
	n := len(teams)
	half := n / 2
	matchdays := n - 1

	fixtures := make([]Fixture, 0, legs*matchdays*half)
	for day := 1; day <= matchdays; day++ {
		for i := 0; i < half; i++ {
			home, away := teams[i], teams[n-1-i]
			if home == rest || away == rest {
				continue
			}
			// Alternate the fixed team's home games so nobody is always at home.
			if i == 0 && day%2 == 0 {
				home, away = away, home
			}
			fixtures = append(fixtures, Fixture{Matchday: day, TeamAID: home, TeamBID: away})
		}
		// Rotate everyone but the first team.
		last := teams[n-1]
		copy(teams[2:], teams[1:n-1])
		teams[1] = last
	}

	if legs == 2 {
		firstLeg := len(fixtures)
		for i := 0; i < firstLeg; i++ {
			f := fixtures[i]
			fixtures = append(fixtures, Fixture{Matchday: f.Matchday + matchdays, TeamAID: f.TeamBID, TeamBID: f.TeamAID})
		}
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Matchday < fixtures[j].Matchday
	})
	return fixtures, nil
}
