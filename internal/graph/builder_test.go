package graph

import (
	"fmt"
	"testing"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// fakeLoader builds a Loader from a plain adjacency map, for tests that
// don't need real tsconfig.json files on disk.
func fakeLoader(adj map[project.ID][]project.ID) Loader {
	return func(id project.ID) (*project.Config, error) {
		var refs []project.Reference
		for _, dep := range adj[id] {
			refs = append(refs, project.Reference{Target: dep})
		}
		return &project.Config{ID: id, References: refs}, nil
	}
}

func TestBuild_LinearChain(t *testing.T) {
	// a -> b -> c
	a, b, c := project.ID("a"), project.ID("b"), project.ID("c")
	adj := map[project.ID][]project.ID{a: {b}, b: {c}}

	queue, refs, err := Build([]project.ID{a}, fakeLoader(adj))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("expected 3 layers, got %d: %v", len(queue), queue)
	}
	if queue[0][0] != a || queue[1][0] != b || queue[2][0] != c {
		t.Errorf("unexpected layer order: %v", queue)
	}
	if len(refs.ChildrenOf(a)) != 1 || refs.ChildrenOf(a)[0] != b {
		t.Errorf("ChildrenOf(a) = %v, want [b]", refs.ChildrenOf(a))
	}
	if len(refs.ParentsOf(c)) != 1 || refs.ParentsOf(c)[0] != b {
		t.Errorf("ParentsOf(c) = %v, want [b]", refs.ParentsOf(c))
	}
}

func TestBuild_DiamondDedupesToDeepestLayer(t *testing.T) {
	// a -> b -> d
	// a -> c -> d
	a, b, c, d := project.ID("a"), project.ID("b"), project.ID("c"), project.ID("d")
	adj := map[project.ID][]project.ID{
		a: {b, c},
		b: {d},
		c: {d},
	}

	queue, _, err := Build([]project.ID{a}, fakeLoader(adj))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := map[project.ID]int{}
	for i, layer := range queue {
		for _, id := range layer {
			seen[id] = i
		}
	}
	if layer, ok := seen[d]; !ok || layer != len(queue)-1 {
		t.Errorf("d should only appear in the deepest layer, got layer %d of %d", layer, len(queue))
	}
	count := 0
	for _, layer := range queue {
		for _, id := range layer {
			if id == d {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("d should appear exactly once across all layers, appeared %d times", count)
	}
}

func TestBuild_NodeReachedAtDifferentDepthsEndsAtDeepestLayer(t *testing.T) {
	// a -> b -> d          (d at depth 2 via this path)
	// a -> c -> e -> d     (d at depth 3 via this longer path)
	// The deeper path must win: visiting d again at a shallower depth than
	// already recorded must not shrink its layer placement.
	a, b, c, d, e := project.ID("a"), project.ID("b"), project.ID("c"), project.ID("d"), project.ID("e")
	adj := map[project.ID][]project.ID{
		a: {b, c},
		b: {d},
		c: {e},
		e: {d},
	}

	queue, _, err := Build([]project.ID{a}, fakeLoader(adj))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seen := map[project.ID]int{}
	for i, layer := range queue {
		for _, id := range layer {
			seen[id] = i
		}
	}
	if seen[d] != len(queue)-1 {
		t.Errorf("d should sit at the deepest layer reachable (via a->c->e->d), got layer %d of %d layers", seen[d], len(queue))
	}
	count := 0
	for _, layer := range queue {
		for _, id := range layer {
			if id == d {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("d should appear exactly once across all layers, appeared %d times", count)
	}
}

func TestBuild_CascadedDiamondsStayDeduped(t *testing.T) {
	// A chain of reconverging diamonds: each level's two nodes both
	// reference both nodes of the next level, all the way down to a single
	// sink. Exercises the re-convergence memoization across many repeated
	// merges without each level's fan-out causing the lower levels to be
	// walked once per incoming path.
	const levels = 8
	adj := map[project.ID][]project.ID{}
	nodeAt := func(level, branch int) project.ID {
		return project.ID(fmt.Sprintf("l%d_%d", level, branch))
	}
	for level := 0; level < levels; level++ {
		for branch := 0; branch < 2; branch++ {
			id := nodeAt(level, branch)
			if level == levels-1 {
				adj[id] = []project.ID{"sink"}
				continue
			}
			adj[id] = []project.ID{nodeAt(level+1, 0), nodeAt(level+1, 1)}
		}
	}

	queue, _, err := Build([]project.ID{nodeAt(0, 0), nodeAt(0, 1)}, fakeLoader(adj))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantProjects := levels*2 + 1 // two nodes per level, plus the shared sink
	gotProjects := 0
	for _, layer := range queue {
		gotProjects += len(layer)
	}
	if gotProjects != wantProjects {
		t.Errorf("expected %d distinct projects across the queue, got %d", wantProjects, gotProjects)
	}
	if len(queue) != levels+1 {
		t.Fatalf("expected %d layers, got %d", levels+1, len(queue))
	}
	sinkCount := 0
	for _, id := range queue[len(queue)-1] {
		if id == "sink" {
			sinkCount++
		}
	}
	if sinkCount != 1 {
		t.Errorf("sink should appear exactly once in the deepest layer, got %d", sinkCount)
	}
}

func TestBuild_DetectsCycle(t *testing.T) {
	a, b := project.ID("a"), project.ID("b")
	adj := map[project.ID][]project.ID{
		a: {b},
		b: {a},
	}

	_, _, err := Build([]project.ID{a}, fakeLoader(adj))
	if err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
	var cycleErr *CycleError
	if !asCycleError(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Chain) < 2 {
		t.Errorf("expected a chain with at least 2 entries, got %v", cycleErr.Chain)
	}
}

func asCycleError(err error, target **CycleError) bool {
	ce, ok := err.(*CycleError)
	if ok {
		*target = ce
	}
	return ok
}

func TestReferenceMap_EmptyLookupsReturnNil(t *testing.T) {
	rm := NewReferenceMap()
	if got := rm.ChildrenOf("missing"); got != nil {
		t.Errorf("ChildrenOf on empty map = %v, want nil", got)
	}
	if got := rm.ParentsOf("missing"); got != nil {
		t.Errorf("ParentsOf on empty map = %v, want nil", got)
	}
}
