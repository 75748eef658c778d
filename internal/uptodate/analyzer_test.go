package uptodate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

func noRefsLookup(project.ID) (*project.Config, error) {
	return nil, nil
}

func TestAnalyze_ZeroInputsIsUpToDate(t *testing.T) {
	cfg := &project.Config{ID: "solution"}
	status, err := Analyze(cfg, noRefsLookup, NewContext())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(UpToDate); !ok {
		t.Errorf("status = %v, want UpToDate", status)
	}
}

func TestAnalyze_MissingInputIsUnbuildable(t *testing.T) {
	dir := t.TempDir()
	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{filepath.Join(dir, "missing.ts")},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
	}
	status, err := Analyze(cfg, noRefsLookup, NewContext())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(Unbuildable); !ok {
		t.Errorf("status = %v, want Unbuildable", status)
	}
}

func TestAnalyze_MissingOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.ts")
	os.WriteFile(input, []byte("export const a = 1;"), 0644)

	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{input},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
	}
	status, err := Analyze(cfg, noRefsLookup, NewContext())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(Missing); !ok {
		t.Errorf("status = %v, want Missing", status)
	}
}

func TestAnalyze_UpToDate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.ts")
	output := filepath.Join(dir, "dist", "a.js")
	os.MkdirAll(filepath.Dir(output), 0755)
	os.WriteFile(input, []byte("export const a = 1;"), 0644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(input, past, past)
	os.WriteFile(output, []byte("exports.a = 1;"), 0644)

	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{input},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
	}
	status, err := Analyze(cfg, noRefsLookup, NewContext())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(UpToDate); !ok {
		t.Errorf("status = %v, want UpToDate", status)
	}
}

func TestAnalyze_OutOfDate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.ts")
	output := filepath.Join(dir, "dist", "a.js")
	os.MkdirAll(filepath.Dir(output), 0755)
	os.WriteFile(output, []byte("exports.a = 1;"), 0644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(output, past, past)
	os.WriteFile(input, []byte("export const a = 2;"), 0644) // newer than output

	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{input},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
	}
	status, err := Analyze(cfg, noRefsLookup, NewContext())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(OutOfDate); !ok {
		t.Errorf("status = %v, want OutOfDate", status)
	}
}

func TestAnalyze_OlderThanDependencyWhenRefNeedsBuild(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "a.ts")
	output := filepath.Join(dir, "dist", "a.js")
	os.MkdirAll(filepath.Dir(output), 0755)
	os.WriteFile(input, []byte("export const a = 1;"), 0644)
	os.WriteFile(output, []byte("exports.a = 1;"), 0644)

	depID := project.ID(filepath.Join(dir, "dep", "tsconfig.json"))
	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{input},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
		References: []project.Reference{{Target: depID}},
	}

	ctx := NewContext()
	ctx.MarkNeedsBuild(depID)

	lookup := func(id project.ID) (*project.Config, error) {
		return &project.Config{ID: id}, nil
	}

	status, err := Analyze(cfg, lookup, ctx)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	dep, ok := status.(OlderThanDependency)
	if !ok {
		t.Fatalf("status = %v, want OlderThanDependency", status)
	}
	if dep.DepProjectID != depID {
		t.Errorf("DepProjectID = %q, want %q", dep.DepProjectID, depID)
	}
}

func TestAnalyze_PseudoUpToDateWhenUpstreamUnchanged(t *testing.T) {
	dir := t.TempDir()

	depDir := filepath.Join(dir, "dep")
	os.MkdirAll(depDir, 0755)
	depDTS := filepath.Join(depDir, "a.d.ts")
	os.WriteFile(depDTS, []byte("export declare const a: number;"), 0644)

	input := filepath.Join(dir, "a.ts")
	output := filepath.Join(dir, "dist", "a.js")
	os.MkdirAll(filepath.Dir(output), 0755)
	os.WriteFile(input, []byte("export const a = 1;"), 0644)
	past := time.Now().Add(-time.Hour)
	os.Chtimes(input, past, past)
	os.WriteFile(output, []byte("exports.a = 1;"), 0644)
	os.Chtimes(output, past, past)

	depID := project.ID(filepath.Join(depDir, "tsconfig.json"))
	cfg := &project.Config{
		ID:         project.ID(filepath.Join(dir, "tsconfig.json")),
		InputFiles: []string{input},
		OutDir:     filepath.Join(dir, "dist"),
		RootDir:    dir,
		References: []project.Reference{{Target: depID}},
	}
	depCfg := &project.Config{
		ID:          depID,
		InputFiles:  []string{filepath.Join(depDir, "a.ts")},
		OutDir:      depDir,
		RootDir:     depDir,
		Declaration: true,
	}

	lookup := func(id project.ID) (*project.Config, error) {
		if id == depID {
			return depCfg, nil
		}
		return nil, os.ErrNotExist
	}

	ctx := NewContext()
	// Touch-forward semantics: dep's .d.ts mtime advanced but content
	// recorded unchanged from before `past`.
	ctx.RecordUnchanged(depDTS, past.Add(-time.Hour))
	os.Chtimes(depDTS, time.Now(), time.Now())

	status, err := Analyze(cfg, lookup, ctx)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, ok := status.(PseudoUpToDate); !ok {
		t.Errorf("status = %v, want PseudoUpToDate", status)
	}
}
