package xslt

import (
	"sync/atomic"
	"time"
)

// Context is the immutable evaluation context threaded through every
// instruction (spec §4.4). Fluent With* builders derive a new value
// sharing every field except the one named; only a handful of fields
// (the circular-reference set and the cancellation flag) are reference
// types shared across every derivation of one transformation on purpose.
type Context struct {
	XPathContextNode Node
	CurrentNode      Node
	Position         int
	Size             int

	Vars             VariableScope
	TunnelParams     map[QName]Value
	Mode             string
	CurrentRule      *TemplateRule
	ImportPrecedence int

	BaseURI               string
	StaticBaseURIOverride string

	ErrorMode      ErrorMode
	ErrorSink      ErrorSink
	ValidationMode ValidationMode

	StripSpacePatterns    []string
	PreserveSpacePatterns []string

	inProgress  map[string]bool
	cancelled   *atomic.Bool
	currentTime time.Time
}

// NewContext builds the root context for one transformation run.
func NewContext(root Node, sink ErrorSink) Context {
	if sink == nil {
		sink = discardErrorSink{}
	}
	return Context{
		XPathContextNode: root,
		CurrentNode:      root,
		Position:         1,
		Size:             1,
		Vars:             NewGlobalScope(),
		ErrorMode:        ErrorModeStrict,
		ErrorSink:        sink,
		ValidationMode:   ValidationStrip,
		inProgress:       make(map[string]bool),
		cancelled:        new(atomic.Bool),
		currentTime:      time.Now(),
	}
}

// WithXPathContextNode changes the node predicates and relative paths
// are evaluated against, leaving the XSLT current() node untouched.
func (c Context) WithXPathContextNode(n Node) Context {
	c.XPathContextNode = n
	return c
}

// WithCurrentNode changes both the XPath context node and the XSLT
// current() node together, as happens on template entry or a for-each
// iteration step.
func (c Context) WithCurrentNode(n Node) Context {
	c.XPathContextNode = n
	c.CurrentNode = n
	return c
}

// WithPosition sets the context position/size pair used by position()
// and last() during a node-set iteration.
func (c Context) WithPosition(position, size int) Context {
	c.Position = position
	c.Size = size
	return c
}

// WithVars replaces the variable scope, typically with the result of
// scope.Push() followed by binds on the caller's copy.
func (c Context) WithVars(scope VariableScope) Context {
	c.Vars = scope
	return c
}

// WithTunnelParameters merges params into the existing tunnel parameter
// map (new keys win on conflict), per spec §4.4's "merge when a call
// site passes new ones".
func (c Context) WithTunnelParameters(params map[QName]Value) Context {
	if len(params) == 0 {
		return c
	}
	merged := make(map[QName]Value, len(c.TunnelParams)+len(params))
	for k, v := range c.TunnelParams {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	c.TunnelParams = merged
	return c
}

// WithNoTunnelParameters clears tunnel parameters, used when a
// call-template/apply-templates instruction does not propagate them.
func (c Context) WithNoTunnelParameters() Context {
	c.TunnelParams = nil
	return c
}

// WithMode changes the active template mode.
func (c Context) WithMode(mode string) Context {
	c.Mode = mode
	return c
}

// WithCurrentRule records the rule currently executing, consulted by
// apply-imports and next-match.
func (c Context) WithCurrentRule(r *TemplateRule) Context {
	c.CurrentRule = r
	if r != nil {
		c.ImportPrecedence = r.ImportPrecedence
	}
	return c
}

// WithBaseURI sets the stylesheet base URI, which GetStaticBaseURI
// returns when no per-instruction override is set.
func (c Context) WithBaseURI(uri string) Context {
	c.BaseURI = uri
	return c
}

// GetStaticBaseURI returns the per-instruction override if set,
// otherwise the stylesheet base URI.
func (c Context) GetStaticBaseURI() string {
	if c.StaticBaseURIOverride != "" {
		return c.StaticBaseURIOverride
	}
	return c.BaseURI
}

// BeginEvaluation records key as in-progress in the shared circular-
// reference set. It returns CodeCircularReference if key is already
// being evaluated by an enclosing frame of the same derivation chain.
func (c Context) BeginEvaluation(key string) error {
	if c.inProgress[key] {
		return NewEvalError(CodeCircularReference, "circular reference evaluating "+key)
	}
	c.inProgress[key] = true
	return nil
}

// EndEvaluation releases key from the in-progress set once its
// expression has finished evaluating (successfully or not).
func (c Context) EndEvaluation(key string) {
	delete(c.inProgress, key)
}

// Cancel requests cooperative cancellation; every context derived from
// the same root observes it since the flag is a shared pointer.
func (c Context) Cancel() { c.cancelled.Store(true) }

// Cancelled reports whether Cancel was called anywhere on this
// transformation's context lineage.
func (c Context) Cancelled() bool { return c.cancelled.Load() }

// CurrentDateTime returns the cached current-dateTime() value for this
// transformation, stable across the whole run as required by XSLT.
func (c Context) CurrentDateTime() time.Time { return c.currentTime }
