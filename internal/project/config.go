package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/microsoft/typescript-go/shim/core"
	"github.com/RyanCavanaugh/tsbuild/internal/compiler"
)

// Reference is a declared dependency edge from one project to another.
type Reference struct {
	Target  ID
	Prepend bool
}

// WildcardDirectory describes one directory tsbuild should watch for a
// project, derived from its "include" patterns.
type WildcardDirectory struct {
	Recursive bool
}

// Config is the structured description of one project, as consumed by the
// rest of tsbuild. Parsing a tsconfig.json is split between the real tsgo
// parser (compiler options, resolved input files) and a small hand-rolled
// reader for the "references" array, which the shim does not expose in a
// form this repository depends on (see SPEC_FULL.md §1).
type Config struct {
	ID          ID
	InputFiles  []string
	References  []Reference
	OutDir      string
	OutFile     string
	RootDir     string
	Declaration bool

	// StripInternal mirrors the compiler option of the same name; used only
	// to conservatively refuse pseudo-builds of prepend+stripInternal
	// projects (spec §9 Open Question).
	StripInternal bool

	WildcardDirectories map[string]WildcardDirectory

	// dir is the directory containing the tsconfig file, used to resolve
	// reference paths that are themselves relative.
	dir string
}

// Dir returns the directory containing the project's configuration file.
func (c *Config) Dir() string { return c.dir }

// Load parses the tsconfig.json named by id using the real tsgo config
// parser for compiler options and source file names, and a small
// JSONC-tolerant pass for "references".
func Load(id ID) (*Config, error) {
	path := string(id)
	dir := filepath.Dir(path)

	fs := compiler.CreateDefaultFS()
	host := compiler.CreateDefaultHost(dir, fs)

	parsed, diags, err := compiler.ParseTSConfig(fs, dir, path, host)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(diags) > 0 {
		return nil, fmt.Errorf("parsing %s: %s", path, compiler.FormatDiagnostics(diags))
	}

	opts := parsed.CompilerOptions()

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = inferRootDir(parsed.FileNames())
	}

	cfg := &Config{
		ID:          id,
		InputFiles:  append([]string(nil), parsed.FileNames()...),
		OutDir:      opts.OutDir,
		OutFile:     opts.OutFile,
		RootDir:     rootDir,
		Declaration: opts.Declaration == core.TSTrue,

		StripInternal:       opts.StripInternal == core.TSTrue,
		WildcardDirectories: map[string]WildcardDirectory{},
		dir:                 dir,
	}

	refs, wildcards, err := readRawTSConfig(path)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		target := r.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		cfg.References = append(cfg.References, Reference{
			Target:  CanonicalID(dir, target),
			Prepend: r.Prepend,
		})
	}
	for pattern, recursive := range wildcards {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(dir, abs)
		}
		cfg.WildcardDirectories[abs] = WildcardDirectory{Recursive: recursive}
	}

	return cfg, nil
}

type rawReference struct {
	Path    string `json:"path"`
	Prepend bool   `json:"prepend,omitempty"`
}

type rawTSConfig struct {
	References []rawReference `json:"references,omitempty"`
	Include    []string       `json:"include,omitempty"`
	Files      []string       `json:"files,omitempty"`
}

// readRawTSConfig reads the top-level "references" and "include" arrays
// directly from disk, tolerating JSONC comments and trailing commas.
// Everything else in the file is left to the real parser called from Load.
func readRawTSConfig(path string) ([]rawReference, map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	sanitized := stripJSONC(data)
	if trimJSON(sanitized) == "" {
		return nil, nil, nil
	}

	var raw rawTSConfig
	if err := json.Unmarshal(sanitized, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing references in %s: %w", path, err)
	}

	wildcards := map[string]bool{}
	for _, inc := range raw.Include {
		dir, recursive := wildcardDirFromPattern(inc)
		if dir != "" {
			wildcards[dir] = wildcards[dir] || recursive
		}
	}

	return raw.References, wildcards, nil
}

// wildcardDirFromPattern extracts the directory portion of a glob include
// pattern and whether it should be watched recursively (a "**" segment).
func wildcardDirFromPattern(pattern string) (dir string, recursive bool) {
	recursive = strings.Contains(pattern, "**")
	segments := strings.Split(pattern, "/")
	var kept []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			break
		}
		kept = append(kept, seg)
	}
	dir = strings.Join(kept, "/")
	if dir == "" {
		dir = "."
	}
	return dir, recursive
}
