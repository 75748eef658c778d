// Package orchestrator walks a project build queue, dispatching each
// project to the up-to-date analyzer and then to either a no-op, a
// pseudo-build, or a full compile (spec §4.6).
package orchestrator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanCavanaugh/tsbuild/internal/compiler"
	"github.com/RyanCavanaugh/tsbuild/internal/diagnostic"
	"github.com/RyanCavanaugh/tsbuild/internal/graph"
	"github.com/RyanCavanaugh/tsbuild/internal/outputs"
	"github.com/RyanCavanaugh/tsbuild/internal/project"
	"github.com/RyanCavanaugh/tsbuild/internal/pseudobuild"
	"github.com/RyanCavanaugh/tsbuild/internal/uptodate"
)

// Action describes what the orchestrator did (or planned to do, under
// --dry) for one project.
type Action string

const (
	ActionSkip       Action = "skip"
	ActionCompile    Action = "compile"
	ActionPseudo     Action = "pseudo-build"
	ActionDryPlanned Action = "dry-run (no action taken)"
)

// ProjectResult is the per-project outcome of one walk.
type ProjectResult struct {
	ID          project.ID
	Status      uptodate.Status
	Action      Action
	Diagnostics []compiler.Diagnostic
	Err         error
}

// Result is the outcome of a full walk.
type Result struct {
	Projects []ProjectResult
	Aborted  bool
}

// Options configures one walk.
type Options struct {
	Force bool
	Dry   bool
	// Parallelism bounds how many projects in the same layer may be
	// processed concurrently. 0 or 1 means strictly sequential, matching
	// the worked examples in spec §8 exactly. Cross-layer parallelism is
	// never attempted (spec §1 Non-goals, §5).
	Parallelism int
	// Log, if non-nil, receives one line per project transition (spec §7
	// "every project transition prints a single-line reason").
	Log func(id project.ID, status uptodate.Status, action Action)
}

// Session owns the state of one build: the loaded configs, the reference
// graph, the layered queue, and the BuildContext memoized across the whole
// walk (design note in spec §9: "Carry them on a Session struct that the
// watch loop owns").
type Session struct {
	Cwd         string
	Configs     map[project.ID]*project.Config
	Queue       graph.Queue
	Refs        *graph.ReferenceMap
	Ctx         *uptodate.Context
	Diagnostics *diagnostic.Collector
}

// NewSession builds a Session from a set of root project IDs. A reference
// cycle surfaces both as the returned error and as a CategoryReferenceCycle
// diagnostic on the (otherwise empty) Session, so callers that print
// diagnostics uniformly don't need a separate code path for graph-build
// failures.
func NewSession(cwd string, roots []project.ID) (*Session, error) {
	return newSessionWithLoader(cwd, roots, project.Load)
}

// newSessionWithLoader is NewSession with the tsconfig loader parameterized,
// so tests can exercise graph construction (cycle detection in particular)
// against synthetic configs without parsing real tsconfig.json files.
func newSessionWithLoader(cwd string, roots []project.ID, load func(project.ID) (*project.Config, error)) (*Session, error) {
	diags := diagnostic.NewCollector(false, false)

	configs := map[project.ID]*project.Config{}
	loader := func(id project.ID) (*project.Config, error) {
		if cfg, ok := configs[id]; ok {
			return cfg, nil
		}
		cfg, err := load(id)
		if err != nil {
			return nil, err
		}
		configs[id] = cfg
		return cfg, nil
	}

	queue, refs, err := graph.Build(roots, loader)
	if err != nil {
		var cycleErr *graph.CycleError
		if errors.As(err, &cycleErr) {
			diags.Error(diagnostic.CategoryReferenceCycle, string(cycleErr.Chain[0]), 0, cycleErr.Error())
			return &Session{Cwd: cwd, Diagnostics: diags}, err
		}
		return nil, err
	}

	return &Session{
		Cwd:         cwd,
		Configs:     configs,
		Queue:       queue,
		Refs:        refs,
		Ctx:         uptodate.NewContext(),
		Diagnostics: diags,
	}, nil
}

func (s *Session) lookup(id project.ID) (*project.Config, error) {
	if cfg, ok := s.Configs[id]; ok {
		return cfg, nil
	}
	cfg, err := project.Load(id)
	if err != nil {
		return nil, err
	}
	s.Configs[id] = cfg
	return cfg, nil
}

// Walk runs one build pass over the session's queue (spec §4.6).
func (s *Session) Walk(opts Options) *Result {
	result := &Result{}
	var resultMu sync.Mutex
	var aborted atomic.Bool
	now := time.Now()

	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}

	for layerIdx := len(s.Queue) - 1; layerIdx >= 0; layerIdx-- {
		if aborted.Load() {
			break
		}
		layer := s.Queue[layerIdx]

		var g errgroup.Group
		g.SetLimit(limit)

		for _, id := range layer {
			id := id
			g.Go(func() error {
				if aborted.Load() {
					return nil
				}
				pr := s.processOne(id, opts, now)
				resultMu.Lock()
				result.Projects = append(result.Projects, pr)
				resultMu.Unlock()
				if pr.Err != nil {
					aborted.Store(true)
				}
				if opts.Log != nil {
					opts.Log(pr.ID, pr.Status, pr.Action)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	result.Aborted = aborted.Load()
	return result
}

func (s *Session) processOne(id project.ID, opts Options, now time.Time) ProjectResult {
	cfg := s.Configs[id]
	pr := ProjectResult{ID: id}

	status, err := uptodate.Analyze(cfg, s.lookup, s.Ctx)
	if err != nil {
		pr.Err = err
		return pr
	}
	pr.Status = status

	if uptodate.NeedsBuild(status) {
		s.Ctx.MarkNeedsBuild(id)
	}

	if unbuildable, ok := status.(uptodate.Unbuildable); ok {
		pr.Action = ActionSkip
		pr.Err = fmt.Errorf("%s: %s", id, status)
		s.Diagnostics.Error(diagnostic.CategoryInputMissing, string(id), 0, unbuildable.Reason)
		return pr
	}

	if opts.Dry {
		if _, upToDate := status.(uptodate.UpToDate); upToDate && !opts.Force {
			pr.Action = ActionSkip
		} else {
			pr.Action = ActionDryPlanned
		}
		return pr
	}

	switch st := status.(type) {
	case uptodate.UpToDate:
		if !opts.Force {
			pr.Action = ActionSkip
			return pr
		}
		pr.Action = ActionCompile
		diags, cerr := s.fullCompile(cfg)
		pr.Diagnostics = diags
		pr.Err = cerr
	case uptodate.PseudoUpToDate:
		pr.Action = ActionPseudo
		ok, perr := pseudobuild.Try(cfg, s.lookup, s.Ctx, now)
		if perr != nil {
			pr.Err = perr
			return pr
		}
		if !ok {
			s.Diagnostics.Info(diagnostic.CategoryPseudoBuildInconsistency, string(id), 0,
				"pseudo-build not possible, falling back to full compile")
			pr.Action = ActionCompile
			diags, cerr := s.fullCompile(cfg)
			pr.Diagnostics = diags
			pr.Err = cerr
		}
	case uptodate.Missing, uptodate.OutOfDate, uptodate.OlderThanDependency:
		pr.Action = ActionCompile
		diags, cerr := s.fullCompile(cfg)
		pr.Diagnostics = diags
		pr.Err = cerr
	}

	if pr.Err == nil {
		s.Ctx.MarkBuilt(id)
	}
	return pr
}

// fullCompile invokes the real compiler, snapshotting existing declaration
// outputs first so byte-identical re-emits can be recorded in the
// BuildContext (spec §4.6 "record the prior mtime ... and still write").
func (s *Session) fullCompile(cfg *project.Config) ([]compiler.Diagnostic, error) {
	expected, _ := outputs.Resolve(cfg)
	priorContent := map[string][]byte{}
	priorMtime := map[string]time.Time{}
	for _, out := range expected {
		if !strings.HasSuffix(out, ".d.ts") {
			continue
		}
		if data, err := os.ReadFile(out); err == nil {
			priorContent[out] = data
			if info, err := os.Stat(out); err == nil {
				priorMtime[out] = info.ModTime()
			}
		}
	}

	fs := compiler.CreateDefaultFS()
	host := compiler.CreateDefaultHost(s.Cwd, fs)

	created, diags, err := compiler.CreateProgram(true, fs, s.Cwd, string(cfg.ID), host)
	if err != nil {
		return diags, err
	}
	if len(diags) > 0 {
		return diags, fmt.Errorf("%s: compilation diagnostics", cfg.ID)
	}

	for _, out := range expected {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory for %s: %w", out, err)
		}
	}

	emitted, emitDiags, err := compiler.EmitProgram(created.Program)
	if err != nil {
		return emitDiags, err
	}

	for _, path := range emitted {
		if !strings.HasSuffix(path, ".d.ts") {
			continue
		}
		prior, ok := priorContent[path]
		if !ok {
			continue
		}
		newData, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if bytes.Equal(prior, newData) {
			s.Ctx.RecordUnchanged(path, priorMtime[path])
		}
	}

	return emitDiags, nil
}
