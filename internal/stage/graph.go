package stage

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

var ErrIncomplete = errors.New("scanning stage has no successor")

func stageHash(s Stage) Stage { return s }

// Graph loads the automatic successor map into a directed graph that refuses cycles.
// The manual summary -> home reset is not an edge.
func Graph() (graph.Graph[Stage, Stage], error) {
	g := graph.New(stageHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	for _, s := range All {
		if err := g.AddVertex(s); err != nil {
			return nil, fmt.Errorf("add stage %s: %w", s, err)
		}
	}
	for _, from := range All {
		to, ok := successors[from]
		if !ok {
			continue
		}
		if err := g.AddEdge(from, to); err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", from, to, err)
		}
	}
	return g, nil
}

// Validate checks that the successor map is acyclic and total over the scanning stages.
func Validate() error {
	if _, err := Graph(); err != nil {
		return err
	}
	for _, s := range All {
		if !s.Scanning() {
			continue
		}
		if _, ok := successors[s]; !ok {
			return fmt.Errorf("%s: %w", s, ErrIncomplete)
		}
	}
	return nil
}

// ScanPath returns the stages a full checkup walks through, from the first scan to summary.
func ScanPath() ([]Stage, error) {
	g, err := Graph()
	if err != nil {
		return nil, err
	}
	path, err := graph.ShortestPath(g, Breath, Summary)
	if err != nil {
		return nil, fmt.Errorf("no path from %s to %s: %w", Breath, Summary, err)
	}
	return path, nil
}
