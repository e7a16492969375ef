// This file wraps the graph module to model the source links between the matches
// of a knockout stage.
package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-progression/models"
	"github.com/dominikbraun/graph"
)

var (
	ErrSourceCycle   = errors.New("source link creates a cycle")
	ErrForeignSource = errors.New("source match is not part of the stage")
)

func matchHash(m *models.Match) int {
	return m.ID
}

// A KnockoutGraph has the matches of one knockout stage as its nodes. A directed edge
// runs from a source match to every match that declares it as the source of one of its
// sides, so the dependants of a match are the matches its result feeds.
//
// Links that point outside the stage or would close a cycle are not added; they are kept
// as issues and reported by Validate.
type KnockoutGraph struct {
	g            graph.Graph[int, *models.Match]
	adjacencyMap map[int]map[int]graph.Edge[int]
	issues       []error
}

func NewKnockoutGraph(matches []*models.Match) (*KnockoutGraph, error) {
	kg := &KnockoutGraph{
		g: graph.New(matchHash, graph.Directed(), graph.PreventCycles()),
	}
	for _, m := range matches {
		if err := kg.g.AddVertex(m); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}

	// Insert edges in id order so the reported issues are deterministic.
	sorted := make([]*models.Match, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, m := range sorted {
		for _, side := range []models.Side{models.SideHome, models.SideAway} {
			src, _ := m.Source(side)
			if src == nil {
				continue
			}
			err := kg.g.AddEdge(*src, m.ID)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrVertexNotFound):
				kg.issues = append(kg.issues, fmt.Errorf("%w: match %d %s side references match %d", ErrForeignSource, m.ID, side, *src))
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				kg.issues = append(kg.issues, fmt.Errorf("%w: match %d %s side references match %d", ErrSourceCycle, m.ID, side, *src))
			default:
				return nil, fmt.Errorf("failed to link match %d to source %d: %w", m.ID, *src, err)
			}
		}
	}
	return kg, nil
}

// Validate returns every rejected link, or nil if the stage forms a proper DAG.
func (kg *KnockoutGraph) Validate() error {
	return errors.Join(kg.issues...)
}

func (kg *KnockoutGraph) Issues() []error {
	return kg.issues
}

// Dependants returns the matches fed by the given match, ordered by id.
func (kg *KnockoutGraph) Dependants(matchID int) []*models.Match {
	if kg.adjacencyMap == nil {
		// The graph does not change after construction, so the map is computed once.
		kg.adjacencyMap, _ = kg.g.AdjacencyMap()
	}

	outEdges := kg.adjacencyMap[matchID]
	dependants := make([]*models.Match, 0, len(outEdges))
	for target := range outEdges {
		m, err := kg.g.Vertex(target)
		if err != nil {
			continue
		}
		dependants = append(dependants, m)
	}
	sort.Slice(dependants, func(i, j int) bool { return dependants[i].ID < dependants[j].ID })
	return dependants
}

// CheckLink reports whether targetID may take sourceID as the source of one of its sides.
func (kg *KnockoutGraph) CheckLink(sourceID, targetID int) error {
	if _, err := kg.g.Vertex(sourceID); err != nil {
		return fmt.Errorf("%w: match %d", ErrForeignSource, sourceID)
	}
	if _, err := kg.g.Vertex(targetID); err != nil {
		return fmt.Errorf("%w: match %d", ErrForeignSource, targetID)
	}
	createsCycle, err := graph.CreatesCycle(kg.g, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("failed to check link %d -> %d: %w", sourceID, targetID, err)
	}
	if createsCycle {
		return fmt.Errorf("%w: match %d -> match %d", ErrSourceCycle, sourceID, targetID)
	}
	return nil
}
