package xslt

// varFrame is one lexical binding frame. Frames are always accessed
// through a pointer so that Push can share unchanged frames with its
// parent scope instead of copying them (Design Note 9.2).
type varFrame struct {
	vars map[QName]Value
}

// VariableScope is a chain of frames, innermost last, shared structurally
// between derivations: Push appends a fresh frame without touching the
// frames the receiver already holds, so two scopes derived from the same
// parent via Push never observe each other's bindings (spec §4.3, §8).
type VariableScope struct {
	frames []*varFrame
}

// NewGlobalScope returns a scope anchored at a single root frame.
func NewGlobalScope() VariableScope {
	return VariableScope{frames: []*varFrame{{vars: make(map[QName]Value)}}}
}

// Push returns a new scope with an appended empty frame. The receiver is
// unchanged: this allocates a new backing slice so that later appends to
// either scope cannot clobber the other's frame list.
func (s VariableScope) Push() VariableScope {
	frames := make([]*varFrame, len(s.frames)+1)
	copy(frames, s.frames)
	frames[len(frames)-1] = &varFrame{vars: make(map[QName]Value)}
	return VariableScope{frames: frames}
}

// Bind mutates the top frame only. Binding on a pushed scope never
// affects the scope it was pushed from, because Push gave it its own
// top frame.
func (s VariableScope) Bind(name QName, v Value) {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1].vars[name] = v
}

// Lookup walks frames from innermost to the root frame.
func (s VariableScope) Lookup(name QName) (Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// GlobalOnly returns a scope anchored at the root frame, discarding any
// frames pushed since. Used when evaluating default-content for a global
// variable, which must not see local bindings from its caller.
func (s VariableScope) GlobalOnly() VariableScope {
	if len(s.frames) == 0 {
		return s
	}
	return VariableScope{frames: s.frames[:1:1]}
}

// Depth reports the number of frames, mostly useful in tests and tracing.
func (s VariableScope) Depth() int {
	return len(s.frames)
}
