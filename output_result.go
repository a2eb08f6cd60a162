package xslt

import "fmt"

// ResultDestination opens an OutputHandler for a secondary result
// document addressed by href (spec §4.5's xsl:result-document). The
// transformer supplies the concrete factory (typically writing a file or
// an in-memory buffer); this package only enforces the claiming rule.
type ResultDestination func(href string) (OutputHandler, error)

// MultiOutputHandler dispatches between the principal output and any
// number of secondary result documents opened by href, enforcing that
// each href is claimed at most once (spec §7 kind 8, error
// CodeClaimedOutput/XTDE1490).
type MultiOutputHandler struct {
	principal OutputHandler
	open      ResultDestination
	claimed   map[string]OutputHandler
}

// NewMultiOutputHandler wraps principal as the default destination and
// open as the factory for secondary destinations.
func NewMultiOutputHandler(principal OutputHandler, open ResultDestination) *MultiOutputHandler {
	return &MultiOutputHandler{principal: principal, open: open, claimed: make(map[string]OutputHandler)}
}

// Principal returns the unclaimed, default output handler.
func (m *MultiOutputHandler) Principal() OutputHandler { return m.principal }

// Claim returns the principal handler for an empty href and otherwise
// opens a new handler for href. A second Claim of the same non-empty href
// is an error: a result document may be written to exactly once per
// transformation (spec invariant on output claiming).
func (m *MultiOutputHandler) Claim(href string) (OutputHandler, error) {
	if href == "" {
		return m.principal, nil
	}
	if _, ok := m.claimed[href]; ok {
		return nil, NewEvalError(CodeClaimedOutput, fmt.Sprintf("result document %q already claimed", href))
	}
	h, err := m.open(href)
	if err != nil {
		return nil, err
	}
	m.claimed[href] = h
	return h, nil
}

// CloseAll flushes and finalizes every claimed secondary destination.
// The principal handler is the caller's responsibility since it was
// supplied, not opened, by this handler.
func (m *MultiOutputHandler) CloseAll() error {
	for _, h := range m.claimed {
		if err := h.EndDocument(); err != nil {
			return err
		}
	}
	return nil
}
