package project

import (
	"os"
	"path/filepath"
)

// Discover resolves the CLI's positional arguments into a list of
// root project IDs, per spec §6:
//   - an argument naming a file is used directly;
//   - an argument naming a directory is scanned recursively for tsconfig.json;
//   - with no arguments at all, "./tsconfig.json" is used if present,
//     otherwise the current directory is scanned recursively.
func Discover(cwd string, args []string) ([]ID, error) {
	if len(args) == 0 {
		def := filepath.Join(cwd, "tsconfig.json")
		if _, err := os.Stat(def); err == nil {
			return []ID{CanonicalID(cwd, def)}, nil
		}
		return scanDir(cwd, cwd)
	}

	var roots []ID
	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(cwd, abs)
		}
		info, err := os.Stat(abs)
		if err != nil {
			// Not a file/directory on disk (bare config name or glob) — let the
			// caller's subsequent parse attempt surface a clear error.
			roots = append(roots, CanonicalID(cwd, abs))
			continue
		}
		if info.IsDir() {
			found, err := scanDir(cwd, abs)
			if err != nil {
				return nil, err
			}
			roots = append(roots, found...)
			continue
		}
		roots = append(roots, CanonicalID(cwd, abs))
	}
	return roots, nil
}

// scanDir recursively finds every tsconfig.json under root.
func scanDir(cwd, root string) ([]ID, error) {
	var found []ID
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "node_modules" || (info.Name() != "." && len(info.Name()) > 0 && info.Name()[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() == "tsconfig.json" {
			found = append(found, CanonicalID(cwd, path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
