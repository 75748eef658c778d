package project

import (
	"path/filepath"
	"strings"
)

// inferRootDir computes the common ancestor directory of a set of input
// files, the same fallback tsc itself applies when rootDir is left unset
// (spec §3: "rootDir (may be unset)"). Returns "" if no common ancestor
// exists (e.g. files on different drives on Windows).
func inferRootDir(fileNames []string) string {
	if len(fileNames) == 0 {
		return ""
	}

	common := filepath.Dir(fileNames[0])
	if common == "." {
		return ""
	}

	for _, f := range fileNames[1:] {
		dir := filepath.Dir(f)
		for !isWithinDir(dir, common) && common != "." && common != "/" {
			common = filepath.Dir(common)
		}
		if common == "." || common == "/" {
			return ""
		}
	}

	return common
}

// isWithinDir reports whether dir is ancestor equal to or a descendant of
// base, respecting path segment boundaries (so "/work/foobar" is not
// considered within "/work/foo").
func isWithinDir(dir, base string) bool {
	if dir == base {
		return true
	}
	return strings.HasPrefix(dir, base+string(filepath.Separator))
}
