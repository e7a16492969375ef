package brackets

import (
	"testing"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teams(m *BracketMatch) (a, b int) {
	if m.TeamAID != nil {
		a = *m.TeamAID
	}
	if m.TeamBID != nil {
		b = *m.TeamBID
	}
	return a, b
}

func TestBuildSeededBracketFourAdvancers(t *testing.T) {
	// Seeds: A1, B1, A2, B2
	matches, err := BuildSeededBracket([]int{101, 201, 102, 202}, models.SeedingStandard)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	a, b := teams(matches[0])
	assert.Equal(t, BracketRef{Round: 1, BracketPos: 1}, matches[0].Ref())
	assert.Equal(t, []int{101, 202}, []int{a, b}, "A1 vs B2")

	a, b = teams(matches[1])
	assert.Equal(t, BracketRef{Round: 1, BracketPos: 2}, matches[1].Ref())
	assert.Equal(t, []int{201, 102}, []int{a, b}, "B1 vs A2")

	final := matches[2]
	assert.Equal(t, BracketRef{Round: 2, BracketPos: 1}, final.Ref())
	assert.Nil(t, final.TeamAID)
	assert.Nil(t, final.TeamBID)
	require.NotNil(t, final.HomeSource)
	require.NotNil(t, final.AwaySource)
	assert.Equal(t, BracketRef{Round: 1, BracketPos: 1}, *final.HomeSource)
	assert.Equal(t, BracketRef{Round: 1, BracketPos: 2}, *final.AwaySource)
}

func TestBuildSeededBracketEight(t *testing.T) {
	seeds := []int{1, 2, 3, 4, 5, 6, 7, 8}
	matches, err := BuildSeededBracket(seeds, models.SeedingStandard)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	var firstRound [][2]int
	for _, m := range matches {
		if m.Round == 1 {
			a, b := teams(m)
			firstRound = append(firstRound, [2]int{a, b})
		}
	}
	assert.Equal(t, [][2]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}, firstRound)

	last := matches[len(matches)-1]
	assert.Equal(t, 3, last.Round)
	assert.Equal(t, 1, last.BracketPos)
}

func TestBuildSeededBracketByes(t *testing.T) {
	matches, err := BuildSeededBracket([]int{1, 2, 3, 4, 5, 6}, models.SeedingStandard)
	require.NoError(t, err)

	var round1, round2 []*BracketMatch
	for _, m := range matches {
		switch m.Round {
		case 1:
			round1 = append(round1, m)
		case 2:
			round2 = append(round2, m)
		}
	}
	// Seeds 1 and 2 get byes, so only 4 v 5 and 3 v 6 are played in round one.
	require.Len(t, round1, 2)
	require.Len(t, round2, 2)

	a, b := teams(round1[0])
	assert.Equal(t, []int{4, 5}, []int{a, b})
	a, b = teams(round1[1])
	assert.Equal(t, []int{3, 6}, []int{a, b})

	require.NotNil(t, round2[0].TeamAID)
	assert.Equal(t, 1, *round2[0].TeamAID)
	assert.Nil(t, round2[0].TeamBID)
	assert.Equal(t, round1[0].Ref(), *round2[0].AwaySource)

	require.NotNil(t, round2[1].TeamAID)
	assert.Equal(t, 2, *round2[1].TeamAID)
	assert.Equal(t, round1[1].Ref(), *round2[1].AwaySource)
}

func TestBuildSeededBracketPaired(t *testing.T) {
	matches, err := BuildSeededBracket([]int{1, 2, 3, 4}, models.SeedingPaired)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	a, b := teams(matches[0])
	assert.Equal(t, []int{1, 2}, []int{a, b})
	a, b = teams(matches[1])
	assert.Equal(t, []int{3, 4}, []int{a, b})
}

func TestBuildSeededBracketErrors(t *testing.T) {
	_, err := BuildSeededBracket([]int{1}, models.SeedingStandard)
	assert.ErrorIs(t, err, ErrNotEnoughSeeds)

	_, err = BuildSeededBracket([]int{1, 2}, "random")
	assert.Error(t, err)
}

func TestBuildSeededBracketTwo(t *testing.T) {
	matches, err := BuildSeededBracket([]int{7, 9}, models.SeedingStandard)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	a, b := teams(matches[0])
	assert.Equal(t, []int{7, 9}, []int{a, b})
}

func TestStandardPairs(t *testing.T) {
	assert.Equal(t, []seedMatchup{{0, 1}}, standardPairs(2))
	assert.Equal(t, []seedMatchup{{0, 3}, {1, 2}}, standardPairs(4))
	assert.Equal(t, []seedMatchup{{0, 7}, {3, 4}, {1, 6}, {2, 5}}, standardPairs(8))

	// Every seed appears exactly once, and each pair sums to size-1.
	pairs := standardPairs(16)
	require.Len(t, pairs, 8)
	seen := map[int]bool{}
	for _, p := range pairs {
		assert.Equal(t, 15, p.seed1+p.seed2)
		seen[p.seed1], seen[p.seed2] = true, true
	}
	assert.Len(t, seen, 16)
}
