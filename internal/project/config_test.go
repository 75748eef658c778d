package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadRawTSConfig_ReferencesAndIncludes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	content := `{
  // a build project
  "compilerOptions": { "outDir": "dist" },
  "include": ["src/**/*.ts"],
  "references": [
    { "path": "../core" },
    { "path": "../bundle", "prepend": true },
  ],
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	refs, wildcards, err := readRawTSConfig(path)
	if err != nil {
		t.Fatalf("readRawTSConfig failed: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %v", len(refs), refs)
	}
	if refs[0].Path != "../core" || refs[0].Prepend {
		t.Errorf("refs[0] = %+v, want {../core false}", refs[0])
	}
	if refs[1].Path != "../bundle" || !refs[1].Prepend {
		t.Errorf("refs[1] = %+v, want {../bundle true}", refs[1])
	}

	if wd, ok := wildcards["src"]; !ok || !wd {
		t.Errorf("wildcards[\"src\"] = %v, %v, want true, true", wd, ok)
	}
}

func TestReadRawTSConfig_NoReferencesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	os.WriteFile(path, []byte(`{"compilerOptions": {}}`), 0644)

	refs, wildcards, err := readRawTSConfig(path)
	if err != nil {
		t.Fatalf("readRawTSConfig failed: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no references, got %v", refs)
	}
	if len(wildcards) != 0 {
		t.Errorf("expected no wildcard directories, got %v", wildcards)
	}
}

func TestWildcardDirFromPattern(t *testing.T) {
	tests := []struct {
		pattern       string
		wantDir       string
		wantRecursive bool
	}{
		{"src/**/*.ts", "src", true},
		{"src/*.ts", "src", false},
		{"lib/sub/*.ts", "lib/sub", false},
		{"*.ts", ".", false},
	}
	for _, tt := range tests {
		dir, recursive := wildcardDirFromPattern(tt.pattern)
		if dir != tt.wantDir || recursive != tt.wantRecursive {
			t.Errorf("wildcardDirFromPattern(%q) = (%q, %v), want (%q, %v)",
				tt.pattern, dir, recursive, tt.wantDir, tt.wantRecursive)
		}
	}
}

func TestConfig_Dir(t *testing.T) {
	c := &Config{dir: "/projects/lib"}
	if got := c.Dir(); got != "/projects/lib" {
		t.Errorf("Dir() = %q, want /projects/lib", got)
	}
}
