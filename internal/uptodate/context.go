package uptodate

import (
	"sync"
	"time"

	"github.com/RyanCavanaugh/tsbuild/internal/project"
)

// Context is the per-invocation memory threaded explicitly through a single
// build walk (spec §3 BuildContext, §9 "do not hide it in ambient state").
type Context struct {
	mu sync.Mutex

	// unchangedOutputs records, for every output file that was written or
	// touched but found byte-identical to its prior on-disk content, the
	// mtime the file had *before* the touch.
	unchangedOutputs map[string]time.Time

	// needsBuild records every project classified as anything but UpToDate
	// earlier in the same walk, so downstream analysis can report
	// OlderThanDependency even when --dry left on-disk mtimes untouched.
	needsBuild map[project.ID]bool
}

// NewContext returns an empty build context.
func NewContext() *Context {
	return &Context{
		unchangedOutputs: map[string]time.Time{},
		needsBuild:       map[project.ID]bool{},
	}
}

// RecordUnchanged records that path was rewritten/touched but its content
// did not change, preserving its prior mtime for downstream reconciliation.
func (c *Context) RecordUnchanged(path string, priorMtime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unchangedOutputs[path] = priorMtime
}

// UnchangedPrior returns the prior mtime recorded for path, if any.
func (c *Context) UnchangedPrior(path string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.unchangedOutputs[path]
	return t, ok
}

// MarkNeedsBuild records that id was classified as needing a build (any
// status but UpToDate) during this walk.
func (c *Context) MarkNeedsBuild(id project.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.needsBuild[id] = true
}

// MarkBuilt clears the needs-build marker for id, used once a real (not
// dry-run) build or pseudo-build has actually completed for it, so
// downstream dependents see its fresh outputs rather than
// OlderThanDependency forever within the same walk.
func (c *Context) MarkBuilt(id project.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.needsBuild, id)
}

// NeedsBuild reports whether id was marked as still needing a build.
func (c *Context) NeedsBuild(id project.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsBuild[id]
}
