package main

import (
	"fmt"
	"os"

	"github.com/RyanCavanaugh/tsbuild/internal/diagnostic"
	"github.com/RyanCavanaugh/tsbuild/internal/graph"
	"github.com/RyanCavanaugh/tsbuild/internal/orchestrator"
	"github.com/RyanCavanaugh/tsbuild/internal/project"
	"github.com/RyanCavanaugh/tsbuild/internal/uptodate"
	"github.com/RyanCavanaugh/tsbuild/internal/viz"
)

// resolveRoots turns the CLI's positional arguments and --project flags into
// a list of root project IDs, per spec §6.
func resolveRoots(cwd string, flags cliFlags) ([]project.ID, error) {
	var roots []project.ID
	for _, p := range flags.Projects {
		roots = append(roots, project.CanonicalID(cwd, p))
	}

	// The default ./tsconfig.json / recursive scan applies only when neither
	// positional arguments nor --project were given.
	if len(flags.Roots) > 0 || len(flags.Projects) == 0 {
		discovered, err := project.Discover(cwd, flags.Roots)
		if err != nil {
			return nil, err
		}
		roots = append(roots, discovered...)
	}

	return dedupeIDs(roots), nil
}

func dedupeIDs(ids []project.ID) []project.ID {
	seen := map[project.ID]bool{}
	var out []project.ID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func runBuild(cwd string, roots []project.ID, flags cliFlags) int {
	session, err := orchestrator.NewSession(cwd, roots)
	if err != nil {
		if session != nil {
			for _, d := range session.Diagnostics.Diagnostics() {
				fmt.Fprintln(os.Stderr, d.String())
			}
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if flags.Viz {
		return runViz(session, flags)
	}

	if flags.Watch {
		return runWatch(session, flags)
	}

	ok := walkOnce(session, flags)
	if !ok {
		return 1
	}
	return 0
}

// walkOnce runs a single build pass and reports its outcome, per the
// "every project transition prints a single-line reason" logging contract
// in spec §7.
func walkOnce(session *orchestrator.Session, flags cliFlags) bool {
	result := session.Walk(orchestrator.Options{
		Force: flags.Force,
		Dry:   flags.Dry,
		Log:   logTransition(flags),
	})

	for _, d := range session.Diagnostics.Diagnostics() {
		if flags.Quiet && d.Severity != diagnostic.SeverityError {
			continue
		}
		fmt.Fprintln(os.Stderr, d.String())
	}

	hadError := false
	for _, pr := range result.Projects {
		if pr.Err != nil {
			hadError = true
			fmt.Fprintf(os.Stderr, "%s: %v\n", pr.ID, pr.Err)
		}
		for _, diag := range pr.Diagnostics {
			hadError = true
			fmt.Fprintln(os.Stderr, diag.String())
		}
	}

	return !hadError && !result.Aborted
}

func logTransition(flags cliFlags) func(id project.ID, status uptodate.Status, action orchestrator.Action) {
	return func(id project.ID, status uptodate.Status, action orchestrator.Action) {
		if flags.Quiet {
			return
		}
		if flags.Verbose {
			fmt.Fprintf(os.Stderr, "%s: %v -> %s\n", id, status, action)
			return
		}
		if action == orchestrator.ActionSkip {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", id, action)
	}
}

func runViz(session *orchestrator.Session, flags cliFlags) int {
	ids := make([]project.ID, 0, len(session.Configs))
	for id := range session.Configs {
		ids = append(ids, id)
	}
	refs := session.Refs
	if refs == nil {
		refs = graph.NewReferenceMap()
	}

	dot := viz.WriteDOT(ids, refs, session.Configs, viz.Options{Deep: flags.VizDeep})
	if err := viz.Render(dot, viz.Options{OutputPath: viz.DefaultOutputPath}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", viz.DefaultOutputPath)
	return 0
}
