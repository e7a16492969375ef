package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairing struct{ a, b int }

func normalized(f Fixture) pairing {
	if f.TeamAID < f.TeamBID {
		return pairing{f.TeamAID, f.TeamBID}
	}
	return pairing{f.TeamBID, f.TeamAID}
}

func TestRoundRobinEvenField(t *testing.T) {
	fixtures, err := RoundRobin([]int{1, 2, 3, 4}, 1)
	require.NoError(t, err)
	require.Len(t, fixtures, 6)

	seen := map[pairing]bool{}
	perDay := map[int]map[int]bool{}
	for _, f := range fixtures {
		p := normalized(f)
		assert.False(t, seen[p], "pairing %v scheduled twice", p)
		seen[p] = true

		if perDay[f.Matchday] == nil {
			perDay[f.Matchday] = map[int]bool{}
		}
		assert.False(t, perDay[f.Matchday][f.TeamAID], "team %d plays twice on matchday %d", f.TeamAID, f.Matchday)
		assert.False(t, perDay[f.Matchday][f.TeamBID], "team %d plays twice on matchday %d", f.TeamBID, f.Matchday)
		perDay[f.Matchday][f.TeamAID] = true
		perDay[f.Matchday][f.TeamBID] = true
	}
	assert.Len(t, perDay, 3)
}

func TestRoundRobinOddField(t *testing.T) {
	fixtures, err := RoundRobin([]int{1, 2, 3, 4, 5}, 1)
	require.NoError(t, err)
	// 5 teams: 10 pairings over 5 matchdays with one team resting each day.
	require.Len(t, fixtures, 10)

	days := map[int]int{}
	for _, f := range fixtures {
		assert.NotEqual(t, -1, f.TeamAID)
		assert.NotEqual(t, -1, f.TeamBID)
		days[f.Matchday]++
	}
	assert.Len(t, days, 5)
	for day, n := range days {
		assert.Equal(t, 2, n, "matchday %d", day)
	}
}

func TestRoundRobinTwoLegs(t *testing.T) {
	fixtures, err := RoundRobin([]int{10, 20, 30}, 2)
	require.NoError(t, err)
	require.Len(t, fixtures, 6)

	home := map[[2]int]int{}
	for _, f := range fixtures {
		home[[2]int{f.TeamAID, f.TeamBID}]++
	}
	// Every ordered pairing appears exactly once: each team hosts each opponent once.
	assert.Len(t, home, 6)
	assert.Equal(t, 6, fixtures[len(fixtures)-1].Matchday)
}

func TestRoundRobinNotEnoughTeams(t *testing.T) {
	_, err := RoundRobin([]int{1}, 1)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}
