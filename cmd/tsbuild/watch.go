package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/RyanCavanaugh/tsbuild/internal/orchestrator"
	"github.com/RyanCavanaugh/tsbuild/internal/project"
	"github.com/RyanCavanaugh/tsbuild/internal/watcher"
)

// watchDebounce matches the teacher's dev-mode rebuild debounce window.
const watchDebounce = 300 * time.Millisecond

// runWatch builds once, then stays resident reacting to filesystem changes
// (spec §4.8, §6 --watch/-w). A tsconfig.json change triggers a full graph
// rebuild (a fresh Session, re-derived from the same roots); a
// wildcard-directory or explicit-input-file change triggers a targeted
// re-walk of the existing Session. Each watcher is torn down and rebuilt
// around a rebuild rather than mutated in place, keeping the watch loop a
// single sequential goroutine so rebuilds are never entered concurrently
// (spec §5 "a watcher-triggered rebuild ... must be serialized").
func runWatch(session *orchestrator.Session, flags cliFlags) int {
	cwd := session.Cwd
	roots := rootIDs(session)

	walkOnce(session, flags)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		targets := buildWatchTargets(session)
		if len(targets) == 0 {
			fmt.Fprintln(os.Stderr, "nothing to watch")
			return 0
		}

		changed := make(chan []watcher.Event, 1)
		w := watcher.New(targets, watchDebounce, func(events []watcher.Event) {
			changed <- events
		})

		done := make(chan error, 1)
		go func() { done <- w.Watch() }()

		select {
		case <-sig:
			w.Stop()
			return 0
		case err := <-done:
			if err != nil {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
				return 1
			}
			return 0
		case events := <-changed:
			w.Stop()

			if anyConfigEvent(events) {
				fmt.Fprintln(os.Stderr, "tsconfig.json changed, rebuilding project graph...")
				newSession, err := orchestrator.NewSession(cwd, roots)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				session = newSession
			} else {
				fmt.Fprintln(os.Stderr, "change detected, rebuilding...")
			}

			walkOnce(session, flags)
		}
	}
}

func anyConfigEvent(events []watcher.Event) bool {
	for _, e := range events {
		if e.Kind == watcher.KindConfig {
			return true
		}
	}
	return false
}

// rootIDs returns the projects in session with no dependents — the roots a
// fresh Session should be rebuilt from after a config change.
func rootIDs(session *orchestrator.Session) []project.ID {
	var roots []project.ID
	for id := range session.Configs {
		if session.Refs == nil || len(session.Refs.ParentsOf(id)) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// buildWatchTargets derives one watch Target per project's config file, one
// per declared wildcard directory, and one per explicit input file not
// already covered by a wildcard directory (spec §4.8).
func buildWatchTargets(session *orchestrator.Session) []watcher.Target {
	var targets []watcher.Target
	for id, cfg := range session.Configs {
		targets = append(targets, watcher.Target{Path: string(id), Kind: watcher.KindConfig})

		for dir, wd := range cfg.WildcardDirectories {
			targets = append(targets, watcher.Target{Path: dir, Recursive: wd.Recursive, Kind: watcher.KindWildcardDir})
		}

		for _, input := range cfg.InputFiles {
			if coveredByWildcard(input, cfg.WildcardDirectories) {
				continue
			}
			targets = append(targets, watcher.Target{Path: input, Kind: watcher.KindInputFile})
		}
	}
	return targets
}

func coveredByWildcard(input string, dirs map[string]project.WildcardDirectory) bool {
	for dir, wd := range dirs {
		rel, err := filepath.Rel(dir, input)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "") {
			// A flat wildcard directory only sees its direct children.
			if !wd.Recursive && filepath.Dir(input) != filepath.Clean(dir) {
				continue
			}
			return true
		}
	}
	return false
}
