package xslt

import (
	"sync/atomic"

	"github.com/wilkmaciej/xpath"
)

// AccumulatorPhase distinguishes a rule fired before descending into an
// element's children from one fired after (spec §4.6).
type AccumulatorPhase int

const (
	PhasePreDescent AccumulatorPhase = iota
	PhasePostDescent
)

// AccumulatorRule is one matchable step of an accumulator's state
// machine: when Pattern matches the current element, NewValue computes
// the updated accumulator value from the prior one.
type AccumulatorRule struct {
	Pattern       *xpath.Expr
	PatternSource string
	Phase         AccumulatorPhase
	NewValue      func(ctx Context, node Node, current Value) (Value, error)
}

// AccumulatorDef is one xsl:accumulator declaration: a name, an initial
// value, and an ordered list of rules evaluated in registration order.
type AccumulatorDef struct {
	Name         QName
	InitialValue func(ctx Context) (Value, error)
	Rules        []*AccumulatorRule
}

type accumulatorState struct {
	def     *AccumulatorDef
	current Value
	stack   []Value
}

func (s *accumulatorState) clone() *accumulatorState {
	return &accumulatorState{def: s.def, current: s.current, stack: append([]Value(nil), s.stack...)}
}

// AccumulatorManager owns one state per declared accumulator and drives
// every rule as the streaming handler reports element start/end events
// (spec §4.6).
type AccumulatorManager struct {
	states map[QName]*accumulatorState
	order  []QName
}

// NewAccumulatorManager builds a manager over defs, preserving
// declaration order for deterministic Fork/debugging output.
func NewAccumulatorManager(defs []*AccumulatorDef) *AccumulatorManager {
	m := &AccumulatorManager{states: make(map[QName]*accumulatorState, len(defs))}
	for _, d := range defs {
		m.states[d.Name] = &accumulatorState{def: d}
		m.order = append(m.order, d.Name)
	}
	return m
}

// StartDocument evaluates every accumulator's initial-value expression.
func (m *AccumulatorManager) StartDocument(ctx Context) error {
	for _, name := range m.order {
		st := m.states[name]
		v, err := st.def.InitialValue(ctx)
		if err != nil {
			return err
		}
		st.current = v
	}
	return nil
}

// PreDescent pushes each accumulator's current value and applies any
// pre-descent rule matching node, in registration order within the
// accumulator's rule list.
func (m *AccumulatorManager) PreDescent(ctx Context, node Node) error {
	for _, name := range m.order {
		st := m.states[name]
		st.stack = append(st.stack, st.current)
		for _, r := range st.def.Rules {
			if r.Phase != PhasePreDescent || !matches(r.Pattern, node) {
				continue
			}
			next, err := r.NewValue(ctx, node, st.current)
			if err != nil {
				return err
			}
			st.current = next
		}
	}
	return nil
}

// PostDescent applies any post-descent rule matching node, then pops the
// value saved by the matching PreDescent call without restoring it: the
// post-descent rules have already folded in everything the descent did.
func (m *AccumulatorManager) PostDescent(ctx Context, node Node) error {
	for _, name := range m.order {
		st := m.states[name]
		for _, r := range st.def.Rules {
			if r.Phase != PhasePostDescent || !matches(r.Pattern, node) {
				continue
			}
			next, err := r.NewValue(ctx, node, st.current)
			if err != nil {
				return err
			}
			st.current = next
		}
		if len(st.stack) > 0 {
			st.stack = st.stack[:len(st.stack)-1]
		}
	}
	return nil
}

// Before returns the accumulator's current value, meant to be called by
// an instruction positioned before the node's descent in document order.
func (m *AccumulatorManager) Before(name QName) (Value, bool) {
	st, ok := m.states[name]
	if !ok {
		return Value{}, false
	}
	return st.current, true
}

// After returns the accumulator's current value, meant to be called by
// an instruction positioned after the node's descent in document order.
// The underlying state is identical to Before: only call-site timing
// relative to start/end notifications distinguishes the two readings.
func (m *AccumulatorManager) After(name QName) (Value, bool) {
	return m.Before(name)
}

// Fork deep-clones every accumulator state so the returned manager can
// evolve independently, used by xsl:for-each-group to run each group
// against its own accumulator snapshot (spec §5).
func (m *AccumulatorManager) Fork() *AccumulatorManager {
	clone := &AccumulatorManager{states: make(map[QName]*accumulatorState, len(m.states)), order: append([]QName(nil), m.order...)}
	for k, v := range m.states {
		clone.states[k] = v.clone()
	}
	return clone
}

// SyntheticAccumulatorPrefix tags every synthetic accumulator name so
// callers can distinguish generated state from author-declared state.
const SyntheticAccumulatorPrefix = "urn:internal:synthetic-accumulator:"

var syntheticIDCounter int64

func nextSyntheticID() int64 { return atomic.AddInt64(&syntheticIDCounter, 1) }

func syntheticName(kind string) QName {
	return QName{URI: SyntheticAccumulatorPrefix, Local: kind}
}

// SyntheticPositionAccumulator builds an accumulator that counts
// elements matching pattern in document order, giving position()-like
// behavior to a stylesheet that never declared an explicit accumulator
// (spec §4.6's "common streamable idioms").
func SyntheticPositionAccumulator(pattern *xpath.Expr, patternSource string) *AccumulatorDef {
	return &AccumulatorDef{
		Name:         syntheticName("position"),
		InitialValue: func(Context) (Value, error) { return NumberValue(0), nil },
		Rules: []*AccumulatorRule{{
			Pattern:       pattern,
			PatternSource: patternSource,
			Phase:         PhasePreDescent,
			NewValue: func(_ Context, _ Node, cur Value) (Value, error) {
				return NumberValue(cur.AsNumber() + 1), nil
			},
		}},
	}
}

// SyntheticCountPrecedingSiblingAccumulator builds an accumulator
// equivalent to count(preceding-sibling::pattern) at any streamed point,
// incrementing on every pre-descent match.
func SyntheticCountPrecedingSiblingAccumulator(pattern *xpath.Expr, patternSource string) *AccumulatorDef {
	return &AccumulatorDef{
		Name:         syntheticName("count-preceding-sibling"),
		InitialValue: func(Context) (Value, error) { return NumberValue(0), nil },
		Rules: []*AccumulatorRule{{
			Pattern:       pattern,
			PatternSource: patternSource,
			Phase:         PhasePreDescent,
			NewValue: func(_ Context, _ Node, cur Value) (Value, error) {
				return NumberValue(cur.AsNumber() + 1), nil
			},
		}},
	}
}

// SyntheticSumPrecedingSiblingAttrAccumulator builds an accumulator
// equivalent to sum(preceding-sibling::pattern/@attrLocal), accumulating
// the numeric value of attrLocal from every matching sibling seen so far.
func SyntheticSumPrecedingSiblingAttrAccumulator(pattern *xpath.Expr, patternSource, attrLocal string) *AccumulatorDef {
	return &AccumulatorDef{
		Name:         syntheticName("sum-preceding-sibling-attr"),
		InitialValue: func(Context) (Value, error) { return NumberValue(0), nil },
		Rules: []*AccumulatorRule{{
			Pattern:       pattern,
			PatternSource: patternSource,
			Phase:         PhasePreDescent,
			NewValue: func(_ Context, node Node, cur Value) (Value, error) {
				for _, a := range node.AttributeNodes() {
					if a.LocalName() == attrLocal {
						return NumberValue(cur.AsNumber() + StringValue(a.StringValue()).AsNumber()), nil
					}
				}
				return cur, nil
			},
		}},
	}
}
