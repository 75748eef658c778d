// Package viz renders the project reference graph to a DOT file and shells
// out to an external renderer to produce project-graph.svg (spec §6
// --viz[=deep]).
package viz

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/RyanCavanaugh/tsbuild/internal/graph"
	"github.com/RyanCavanaugh/tsbuild/internal/outputs"
	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// Options controls what the graph shows.
type Options struct {
	// Deep includes each project's input file count and output paths as
	// node labels; without it, nodes show only the project ID.
	Deep bool
	// Renderer is the external program invoked to turn DOT into SVG,
	// normally "dot" from Graphviz.
	Renderer string
	// OutputPath is where the rendered SVG is written.
	OutputPath string
}

// DefaultOutputPath is the file --viz writes to when none is given.
const DefaultOutputPath = "project-graph.svg"

// WriteDOT renders the reference graph for the given projects as a DOT
// document. ids and refs typically come from an orchestrator.Session's
// Configs keys and Refs field. configs supplies the per-project detail
// used when opts.Deep is set; it may be nil when opts.Deep is false.
func WriteDOT(ids []project.ID, refs *graph.ReferenceMap, configs map[project.ID]*project.Config, opts Options) []byte {
	sorted := append([]project.ID{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "digraph tsbuild {")
	fmt.Fprintln(&buf, `  rankdir="BT";`)

	for _, id := range sorted {
		label := string(id)
		if opts.Deep {
			label = deepLabel(id, configs[id])
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, label)
	}

	for _, id := range sorted {
		for _, child := range refs.ChildrenOf(id) {
			// An edge points from the referencing project to the project it
			// depends on, matching build order: the arrow follows "needs".
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, child)
		}
	}

	fmt.Fprintln(&buf, "}")
	return buf.Bytes()
}

// deepLabel builds the --viz=deep node label: the project ID, its input
// file count, and its resolved output paths. cfg may be nil if the caller
// didn't load it (falls back to the plain ID).
func deepLabel(id project.ID, cfg *project.Config) string {
	if cfg == nil {
		return string(id)
	}
	lines := []string{string(id), fmt.Sprintf("%d inputs", len(cfg.InputFiles))}
	outs, err := outputs.Resolve(cfg)
	if err != nil {
		lines = append(lines, fmt.Sprintf("outputs: <error: %v>", err))
	} else if len(outs) > 0 {
		lines = append(lines, "outputs:")
		lines = append(lines, outs...)
	}
	return strings.Join(lines, "\n")
}

// Render writes dot to a temp .dot file and invokes the external renderer to
// produce an SVG at opts.OutputPath, mirroring the teacher's pattern of
// wrapping a single external process invocation (internal/runner) but
// trimmed to a one-shot call instead of a long-lived child.
func Render(dot []byte, opts Options) error {
	renderer := opts.Renderer
	if renderer == "" {
		renderer = "dot"
	}
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath
	}

	dotFile, err := os.CreateTemp("", "tsbuild-graph-*.dot")
	if err != nil {
		return fmt.Errorf("creating temp DOT file: %w", err)
	}
	defer os.Remove(dotFile.Name())

	if _, err := dotFile.Write(dot); err != nil {
		dotFile.Close()
		return fmt.Errorf("writing temp DOT file: %w", err)
	}
	if err := dotFile.Close(); err != nil {
		return fmt.Errorf("closing temp DOT file: %w", err)
	}

	cmd := exec.Command(renderer, "-Tsvg", dotFile.Name(), "-o", outputPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", renderer, err)
	}
	return nil
}
