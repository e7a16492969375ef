package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-progression/models"
)

var ErrNotEnoughSeeds = errors.New("not enough seeds to build a bracket (minimum 2)")

// BracketRef addresses a match of a generated bracket before it has a database id.
type BracketRef struct {
	Round      int
	BracketPos int
}

// BracketMatch is one match of a generated single elimination bracket. A side is either
// a known team or the winner of a match in the previous round.
type BracketMatch struct {
	Round      int
	BracketPos int

	TeamAID *int
	TeamBID *int

	HomeSource *BracketRef
	AwaySource *BracketRef
}

func (bm *BracketMatch) Ref() BracketRef {
	return BracketRef{Round: bm.Round, BracketPos: bm.BracketPos}
}

// node is an entry of a bracket round: a team that is already known or the match it
// will come out of.
type node struct {
	teamID *int
	source *BracketRef
}

// BuildSeededBracket builds a single elimination bracket from team ids listed in seed
// order (best first). The field is padded to the next power of two; the missing
// entries are byes that go to the best seeds, whose teams are written straight into
// their second round match.
//
// Matches are returned ordered by (round, bracket position). Bracket positions are
// structural, so a first round match that is skipped for a bye leaves a gap.
func BuildSeededBracket(seeds []int, policy models.SeedingPolicy) ([]*BracketMatch, error) {
	n := len(seeds)
	if n < 2 {
		return nil, ErrNotEnoughSeeds
	}

	numRounds := getNumRounds(n)
	size := 1 << numRounds

	var matchups []seedMatchup
	switch policy {
	case models.SeedingStandard, "":
		matchups = standardPairs(size)
	case models.SeedingPaired:
		matchups = arrangePairs(n, size)
	default:
		return nil, fmt.Errorf("unsupported seeding policy %q", policy)
	}

	matches := make([]*BracketMatch, 0, size-1)
	currentRoundNodes := make([]*node, 0, size/2)

	for i, mu := range matchups {
		seed1, seed2 := seedTeam(seeds, mu.seed1), seedTeam(seeds, mu.seed2)
		switch {
		case seed1 != nil && seed2 != nil:
			bm := &BracketMatch{Round: 1, BracketPos: i + 1, TeamAID: seed1, TeamBID: seed2}
			matches = append(matches, bm)
			ref := bm.Ref()
			currentRoundNodes = append(currentRoundNodes, &node{source: &ref})
		case seed1 != nil:
			currentRoundNodes = append(currentRoundNodes, &node{teamID: seed1})
		case seed2 != nil:
			currentRoundNodes = append(currentRoundNodes, &node{teamID: seed2})
		default:
			return nil, fmt.Errorf("internal error: first round matchup %d has two byes", i+1)
		}
	}

	for r := 2; r <= numRounds; r++ {
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)
		for i := 0; i < len(currentRoundNodes); i += 2 {
			home, away := currentRoundNodes[i], currentRoundNodes[i+1]
			bm := &BracketMatch{
				Round:      r,
				BracketPos: i/2 + 1,
				TeamAID:    home.teamID,
				TeamBID:    away.teamID,
				HomeSource: home.source,
				AwaySource: away.source,
			}
			matches = append(matches, bm)
			ref := bm.Ref()
			nextRoundNodes = append(nextRoundNodes, &node{source: &ref})
		}
		currentRoundNodes = nextRoundNodes
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].BracketPos < matches[j].BracketPos
	})
	return matches, nil
}

func seedTeam(seeds []int, idx int) *int {
	if idx >= len(seeds) {
		return nil
	}
	id := seeds[idx]
	return &id
}

type seedMatchup struct {
	seed1 int
	seed2 int
}

// standardPairs lists the first round matchups of a field of size slots (a power of
// two) so that seeds 1 and 2 can only meet in the final, seeds 1 to 4 no earlier than
// the semi-finals, and so on. Each doubling of the field puts seed s next to its
// mirror size-1-s.
func standardPairs(size int) []seedMatchup {
	order := []int{0}
	for len(order) < size {
		width := len(order) * 2
		expanded := make([]int, 0, width)
		for _, s := range order {
			expanded = append(expanded, s, width-1-s)
		}
		order = expanded
	}

	matchups := make([]seedMatchup, 0, size/2)
	for i := 0; i < len(order); i += 2 {
		matchups = append(matchups, seedMatchup{order[i], order[i+1]})
	}
	return matchups
}

// arrangePairs pairs the seeds in listing order. The byes of an incomplete field go to
// the first seeds, each of which gets a matchup against a missing entry.
func arrangePairs(n, size int) []seedMatchup {
	byes := size - n
	matchups := make([]seedMatchup, 0, size/2)
	for i := 0; i < byes; i++ {
		matchups = append(matchups, seedMatchup{i, n + i})
	}
	for i := byes; i < n; i += 2 {
		matchups = append(matchups, seedMatchup{i, i + 1})
	}
	return matchups
}

func getNumRounds(numSlots int) int {
	rounds := 0
	for (1 << rounds) < numSlots {
		rounds++
	}
	return rounds
}
