// Package project canonicalizes project identifiers and loads per-project
// configuration from tsconfig.json files.
package project

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/microsoft/typescript-go/shim/tspath"
)

// ID is the canonical absolute path to a project's configuration file.
// Two IDs are equal iff their normalized absolute paths are byte-equal.
type ID string

// CanonicalID resolves p (relative to cwd if needed) to a canonical ID.
// If p names a directory, "tsconfig.json" is appended before resolution,
// matching the implicit-config rule for directory references (spec §4.3).
func CanonicalID(cwd, p string) ID {
	if isDirLike(p) {
		p = filepath.Join(p, "tsconfig.json")
	}
	resolved := tspath.ResolvePath(cwd, p)
	return ID(uppercaseDriveLetter(resolved))
}

// isDirLike reports whether p looks like it names a directory rather than
// a specific config file — anything that doesn't end in ".json".
func isDirLike(p string) bool {
	return !strings.HasSuffix(p, ".json")
}

// uppercaseDriveLetter uppercases a leading single-letter drive prefix
// (e.g. "c:\foo" -> "C:\foo") so paths compare equal on case-insensitive
// filesystems regardless of how the drive letter was typed. tspath's
// normalization already handles separators; it does not document this
// guarantee, so it is applied here explicitly.
func uppercaseDriveLetter(p string) string {
	if len(p) >= 2 && p[1] == ':' && unicode.IsLetter(rune(p[0])) {
		return strings.ToUpper(p[:1]) + p[1:]
	}
	return p
}
