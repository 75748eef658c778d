// Package uptodate classifies a project's up-to-date state relative to its
// inputs, its upstream references' outputs, and the current build's
// pseudo-timestamp memory (spec §4.5).
package uptodate

import (
	"fmt"
	"time"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// Status is the sealed sum type described in spec §3. Callers are expected
// to exhaustively switch on the concrete type.
type Status interface {
	isStatus()
}

// Unbuildable means an input file is missing or the project failed to parse.
type Unbuildable struct {
	Reason string
}

// UpToDate means no rebuild is needed.
type UpToDate struct {
	NewestInput time.Time
}

// PseudoUpToDate means upstream outputs changed mtimes but not semantic
// content; a touch-forward pseudo-build suffices.
type PseudoUpToDate struct {
	NewestInput time.Time
}

// Missing means an expected output file does not exist.
type Missing struct {
	Path string
}

// OutOfDate means some input (own or upstream) is newer than some output.
type OutOfDate struct {
	NewerInput      string
	NewerInputTime  time.Time
	OlderOutput     string
	OlderOutputTime time.Time
}

// OlderThanDependency means an upstream project still needs to be built this
// walk (dry-run or otherwise not yet rebuilt), so this project must be
// considered stale regardless of what its own on-disk mtimes currently say.
type OlderThanDependency struct {
	DepProjectID project.ID
}

func (Unbuildable) isStatus()         {}
func (UpToDate) isStatus()            {}
func (PseudoUpToDate) isStatus()      {}
func (Missing) isStatus()             {}
func (OutOfDate) isStatus()           {}
func (OlderThanDependency) isStatus() {}

// NeedsBuild reports whether s is anything other than UpToDate — the
// "projectsNeedingBuild" marker from spec §4.6 step 3.
func NeedsBuild(s Status) bool {
	_, ok := s.(UpToDate)
	return !ok
}

func (s Unbuildable) String() string { return fmt.Sprintf("unbuildable: %s", s.Reason) }
func (s UpToDate) String() string    { return "up to date" }
func (s PseudoUpToDate) String() string {
	return "pseudo up to date (upstream declaration output unchanged)"
}
func (s Missing) String() string { return fmt.Sprintf("output %s is missing", s.Path) }
func (s OutOfDate) String() string {
	return fmt.Sprintf("%s (%s) is newer than output %s (%s)",
		s.NewerInput, s.NewerInputTime.Format(time.RFC3339), s.OlderOutput, s.OlderOutputTime.Format(time.RFC3339))
}
func (s OlderThanDependency) String() string {
	return fmt.Sprintf("dependency %s needs to be built first", s.DepProjectID)
}
