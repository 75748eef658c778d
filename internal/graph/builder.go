package graph

import (
	"fmt"
	"strings"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// Queue is the layered build order produced by Build. Queue[len(Queue)-1]
// holds the deepest dependencies; walking from the last layer to the first
// yields a valid topological build order (spec §3).
type Queue [][]project.ID

// Loader parses one project's configuration, given its canonical ID.
type Loader func(project.ID) (*project.Config, error)

// CycleError is returned when the reference graph contains a cycle.
type CycleError struct {
	Chain []project.ID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, id := range e.Chain {
		parts[i] = string(id)
	}
	return fmt.Sprintf("project reference cycle: %s", strings.Join(parts, " -> "))
}

// Build discovers the full transitive set of projects reachable from roots
// and computes a layered, deduplicated topological build order (spec §4.3).
// It also returns the ReferenceMap populated during discovery.
//
// Cycles are rejected explicitly (the Open Question in spec §9 resolved in
// favor of detection over silent degeneration): a project found on the
// current DFS stack returns a *CycleError.
func Build(roots []project.ID, load Loader) (Queue, *ReferenceMap, error) {
	rm := NewReferenceMap()
	configs := map[project.ID]*project.Config{}
	var layers [][]project.ID
	onStack := map[project.ID]bool{}
	var chain []project.ID

	// deepestVisited records the deepest depth at which a project has
	// already been fully placed (itself and its whole reference subtree).
	// A later visit at a depth no deeper than that is redundant: compact()
	// keeps only the rightmost (deepest) occurrence of an id anyway, so
	// anything a shallower re-visit would produce is already subsumed.
	// Without this memo, diamond-shaped reference graphs (a project reached
	// through more than one path) cause the DFS to redescend into already-
	// explored subtrees once per incoming path, which is exponential in the
	// number of diamonds.
	deepestVisited := map[project.ID]int{}

	var visit func(id project.ID, depth int) error
	visit = func(id project.ID, depth int) error {
		if onStack[id] {
			return &CycleError{Chain: append(append([]project.ID{}, chain...), id)}
		}
		if d, ok := deepestVisited[id]; ok && depth <= d {
			return nil
		}

		cfg, ok := configs[id]
		if !ok {
			loaded, err := load(id)
			if err != nil {
				return fmt.Errorf("loading project %s: %w", id, err)
			}
			configs[id] = loaded
			cfg = loaded
		}

		for len(layers) <= depth {
			layers = append(layers, nil)
		}
		if !containsID(layers[depth], id) {
			layers[depth] = append(layers[depth], id)
		}
		deepestVisited[id] = depth

		onStack[id] = true
		chain = append(chain, id)
		for _, ref := range cfg.References {
			rm.AddReference(ref.Target, id)
			if err := visit(ref.Target, depth+1); err != nil {
				return err
			}
		}
		chain = chain[:len(chain)-1]
		onStack[id] = false
		return nil
	}

	for _, root := range roots {
		if err := visit(root, 0); err != nil {
			return nil, nil, err
		}
	}

	return compact(layers), rm, nil
}

func containsID(layer []project.ID, id project.ID) bool {
	for _, x := range layer {
		if x == id {
			return true
		}
	}
	return false
}

// compact removes a project from any layer but the rightmost (deepest-index)
// one it appears in, per the BuildQueue invariant in spec §3.
func compact(layers [][]project.ID) Queue {
	lastLayer := map[project.ID]int{}
	for i, layer := range layers {
		for _, id := range layer {
			lastLayer[id] = i
		}
	}

	result := make(Queue, len(layers))
	// Preserve discovery order within each layer for deterministic output.
	seen := map[project.ID]bool{}
	for i, layer := range layers {
		for _, id := range layer {
			if lastLayer[id] != i || seen[id] {
				continue
			}
			seen[id] = true
			result[i] = append(result[i], id)
		}
	}
	return result
}
