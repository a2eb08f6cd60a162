package xslt

// GroundedExecutor buffers a streamed subtree and replays it into a
// fully navigable tree so a template needing reverse axes, last(), or
// sorting can execute against it (spec §4.8). Nested grounded regions
// (e.g. one grounded template invoking another) share the same buffer
// via a depth counter: only the outermost Enter/Exit pair allocates and
// finalizes it.
type GroundedExecutor struct {
	buf   *EventBuffer
	depth int
}

// NewGroundedExecutor returns an executor with no active region.
func NewGroundedExecutor() *GroundedExecutor { return &GroundedExecutor{} }

// Enter begins, or joins an already-active, grounded region.
func (g *GroundedExecutor) Enter() {
	if g.depth == 0 {
		g.buf = NewEventBuffer()
	}
	g.depth++
}

// Exit ends one level of grounding and reports whether this was the
// outermost Exit: the region is now complete and ready for Build.
func (g *GroundedExecutor) Exit() bool {
	if g.depth == 0 {
		return false
	}
	g.depth--
	return g.depth == 0
}

// Active reports whether a grounded region currently surrounds the
// caller, i.e. subtree events should be recorded rather than executed
// directly against streaming nodes.
func (g *GroundedExecutor) Active() bool { return g.depth > 0 }

// Record forwards one subtree event into the shared buffer. Callers
// should guard with Active(); Record silently no-ops otherwise so a
// stray call outside a region cannot panic.
func (g *GroundedExecutor) Record(e Event) {
	if g.Active() {
		g.buf.Record(e)
	}
}

// Build replays every event recorded since the outermost Enter into a
// fresh, fully navigable tree and returns its root. Call only after the
// matching outermost Exit returned true.
func (g *GroundedExecutor) Build() (Node, error) {
	root, err := BuildTreeFromBuffer(g.buf)
	g.buf = nil
	return root, err
}
