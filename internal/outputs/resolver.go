// Package outputs enumerates the artifact paths a project is expected to
// emit, per spec §4.4.
package outputs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// Resolve returns the set of output files cfg is expected to produce.
// A project with no input files produces no outputs (the "solution
// aggregator" case from spec §9) and is never an error.
func Resolve(cfg *project.Config) ([]string, error) {
	if len(cfg.InputFiles) == 0 {
		return nil, nil
	}

	if cfg.OutFile != "" {
		outs := []string{cfg.OutFile}
		if cfg.Declaration {
			outs = append(outs, changeExtension(cfg.OutFile, ".d.ts"))
		}
		return outs, nil
	}

	if cfg.OutDir == "" {
		return nil, fmt.Errorf("project %s: outDir is required when outFile is not set", cfg.ID)
	}

	var outs []string
	for _, input := range cfg.InputFiles {
		if strings.HasSuffix(input, ".d.ts") {
			continue
		}
		rel, err := filepath.Rel(cfg.RootDir, input)
		if err != nil {
			return nil, fmt.Errorf("project %s: resolving output for %s: %w", cfg.ID, input, err)
		}
		base := filepath.Join(cfg.OutDir, rel)
		outs = append(outs, changeExtension(base, ".js"))
		if cfg.Declaration {
			outs = append(outs, changeExtension(base, ".d.ts"))
		}
	}
	return outs, nil
}

// changeExtension replaces the final extension of path with ext.
func changeExtension(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
