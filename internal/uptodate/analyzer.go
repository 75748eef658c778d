package uptodate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RyanCavanaugh/tsbuild/internal/outputs"
	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// ConfigLookup resolves a project ID to its already-loaded configuration.
type ConfigLookup func(project.ID) (*project.Config, error)

// Analyze classifies cfg's up-to-date status against its own inputs, its
// references' outputs, and ctx's pseudo-timestamp memory, following the
// six-step algorithm in spec §4.5.
func Analyze(cfg *project.Config, lookup ConfigLookup, ctx *Context) (Status, error) {
	// Zero-input "solution aggregator" projects are always up to date
	// (spec §9 Open Question).
	if len(cfg.InputFiles) == 0 {
		return UpToDate{}, nil
	}

	// Step 1: gather own inputs.
	var newestInput time.Time
	for _, in := range cfg.InputFiles {
		info, err := os.Stat(in)
		if err != nil {
			return Unbuildable{Reason: fmt.Sprintf("input file missing: %s", in)}, nil
		}
		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}

	// Step 2: enumerate expected outputs.
	expectedOutputs, err := outputs.Resolve(cfg)
	if err != nil {
		return Unbuildable{Reason: err.Error()}, nil
	}

	// Step 3: check output existence / baseline mtimes.
	var oldestOutput time.Time
	var oldestOutputPath string
	haveOldest := false
	for _, out := range expectedOutputs {
		info, err := os.Stat(out)
		if err != nil {
			return Missing{Path: out}, nil
		}
		if !haveOldest || info.ModTime().Before(oldestOutput) {
			oldestOutput = info.ModTime()
			oldestOutputPath = out
			haveOldest = true
		}
		if haveOldest && newestInput.After(oldestOutput) {
			return OutOfDate{
				NewerInput:      newestInputPath(cfg, newestInput),
				NewerInputTime:  newestInput,
				OlderOutput:     oldestOutputPath,
				OlderOutputTime: oldestOutput,
			}, nil
		}
	}

	// Step 3.5 (orchestrator-fed): any upstream project still awaiting a
	// build this walk makes this project stale regardless of on-disk state.
	for _, ref := range cfg.References {
		if ctx.NeedsBuild(ref.Target) {
			return OlderThanDependency{DepProjectID: ref.Target}, nil
		}
	}

	// Step 4/5: gather and reconcile upstream reference outputs.
	usedPseudoTimestamp := false
	var newestPseudoInput time.Time

	for _, ref := range cfg.References {
		refCfg, err := lookup(ref.Target)
		if err != nil {
			return Unbuildable{Reason: fmt.Sprintf("loading reference %s: %v", ref.Target, err)}, nil
		}
		refOutputs, err := outputs.Resolve(refCfg)
		if err != nil {
			return Unbuildable{Reason: err.Error()}, nil
		}

		var upstreamFiles []string
		for _, o := range refOutputs {
			if strings.HasSuffix(o, ".d.ts") {
				upstreamFiles = append(upstreamFiles, o)
			} else if cfg.OutFile != "" && strings.HasSuffix(o, ".js") {
				// Concatenated-output projects also depend on upstream .js,
				// because they get prepended into the bundle.
				upstreamFiles = append(upstreamFiles, o)
			}
		}

		for _, file := range upstreamFiles {
			info, err := os.Stat(file)
			if err != nil {
				return Missing{Path: file}, nil
			}
			currentMtime := info.ModTime()

			if priorMtime, ok := ctx.UnchangedPrior(file); ok && !oldestOutput.Before(priorMtime) {
				usedPseudoTimestamp = true
				if currentMtime.After(newestPseudoInput) {
					newestPseudoInput = currentMtime
				}
				continue
			}

			if currentMtime.After(newestInput) {
				newestInput = currentMtime
				if haveOldest && newestInput.After(oldestOutput) {
					return OutOfDate{
						NewerInput:      file,
						NewerInputTime:  newestInput,
						OlderOutput:     oldestOutputPath,
						OlderOutputTime: oldestOutput,
					}, nil
				}
			}
		}
	}

	// Step 6: classify.
	if usedPseudoTimestamp {
		result := newestInput
		if newestPseudoInput.After(result) {
			result = newestPseudoInput
		}
		return PseudoUpToDate{NewestInput: result}, nil
	}
	return UpToDate{NewestInput: newestInput}, nil
}

// newestInputPath returns cfg's own input file carrying time t, if any,
// falling back to a generic label — used only for OutOfDate's diagnostic.
func newestInputPath(cfg *project.Config, t time.Time) string {
	for _, in := range cfg.InputFiles {
		if info, err := os.Stat(in); err == nil && info.ModTime().Equal(t) {
			return in
		}
	}
	return "(input)"
}
