package xslt

import (
	"strings"

	"github.com/wilkmaciej/xpath"
)

// BuiltinRuleKind names the built-in template behaviors a mode falls
// back to on a match miss (spec §4.7).
type BuiltinRuleKind int

const (
	BuiltinTextOnlyCopy BuiltinRuleKind = iota
	BuiltinShallowCopy
	BuiltinDeepCopy
	BuiltinShallowSkip
	BuiltinDeepSkip
	BuiltinFail
)

func ParseBuiltinRuleKind(onNoMatch string) BuiltinRuleKind {
	switch onNoMatch {
	case "shallow-copy":
		return BuiltinShallowCopy
	case "deep-copy":
		return BuiltinDeepCopy
	case "shallow-skip":
		return BuiltinShallowSkip
	case "deep-skip":
		return BuiltinDeepSkip
	case "fail":
		return BuiltinFail
	default:
		return BuiltinTextOnlyCopy
	}
}

// TemplateBody executes a compiled template's instructions against node,
// writing result events to out.
type TemplateBody func(ctx Context, node Node, out OutputHandler) error

// TemplateRule is one compiled xsl:template with a match pattern. Rules
// without a Name are anonymous; rules without a Pattern are named
// templates invoked only by xsl:call-template.
type TemplateRule struct {
	ID                  int
	Name                QName
	Mode                string
	PatternSource       string
	Pattern             *xpath.Expr
	Priority            float64
	HasExplicitPriority bool
	ImportPrecedence    int
	DeclIndex           int
	Body                TemplateBody
}

func (r *TemplateRule) effectivePriority() float64 {
	if r.HasExplicitPriority {
		return r.Priority
	}
	return defaultPriority(r.PatternSource)
}

// defaultPriority implements the XSLT default-priority heuristic for a
// pattern the author didn't explicitly prioritize: the more specific the
// node test, the higher the default (spec §4.7's "computed by the
// compiler if not supplied").
func defaultPriority(pattern string) float64 {
	p := strings.TrimSpace(pattern)
	if strings.ContainsAny(p, "/[") {
		return 0.5
	}
	last := p
	if i := strings.LastIndexByte(p, ':'); i >= 0 {
		last = p[i+1:]
	}
	switch {
	case p == "*" || p == "node()" || p == "text()" || p == "comment()" ||
		p == "processing-instruction()" || p == "@*":
		return -0.5
	case strings.HasSuffix(p, ":*"):
		return -0.25
	case last == p && !strings.ContainsAny(p, "()*"):
		return 0
	default:
		return 0.5
	}
}

// matches reports whether pattern matches node, walking up the ancestor
// chain and evaluating the pattern as a relative path at each level
// until a candidate set is produced, then testing for node's membership
// in it. This is the common technique for running a generic XPath
// evaluator as a pattern matcher without a dedicated pattern compiler.
// The walk starts at node's parent, not node itself: a relative-path
// pattern like "*" or "node()" denotes node's children when evaluated at
// node, never node itself, so starting there would reject every pattern
// against any node with children of its own.
func matches(pattern *xpath.Expr, node Node) bool {
	if pattern == nil {
		return false
	}
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		candidates := EvalNodeSet(pattern, cur)
		if len(candidates) == 0 {
			continue
		}
		for _, c := range candidates {
			if c.SameNode(node) {
				return true
			}
		}
		return false
	}
	return false
}

// modeTable holds every rule registered for one mode, sorted once by
// conflict-resolution order.
type modeTable struct {
	rules     []*TemplateRule
	onNoMatch map[NodeKind]BuiltinRuleKind
	defaultNM BuiltinRuleKind
}

// TemplateMatcher indexes compiled rules by mode and resolves conflicts
// per spec §3: higher import precedence wins; then higher priority; then
// later declaration order.
type TemplateMatcher struct {
	modes map[string]*modeTable
	named map[QName]*TemplateRule
}

// NewTemplateMatcher builds a matcher from a flat list of compiled
// rules (both pattern-matched and named templates).
func NewTemplateMatcher(rules []*TemplateRule) *TemplateMatcher {
	m := &TemplateMatcher{modes: make(map[string]*modeTable), named: make(map[QName]*TemplateRule)}
	for _, r := range rules {
		if r.Name.Local != "" {
			m.named[r.Name] = r
		}
		if r.Pattern == nil {
			continue
		}
		mt, ok := m.modes[r.Mode]
		if !ok {
			mt = &modeTable{onNoMatch: make(map[NodeKind]BuiltinRuleKind), defaultNM: BuiltinTextOnlyCopy}
			m.modes[r.Mode] = mt
		}
		mt.rules = append(mt.rules, r)
	}
	for _, mt := range m.modes {
		sortRulesByConflictOrder(mt.rules)
	}
	return m
}

// SetOnNoMatch overrides the mode's default built-in fallback. The
// per-node-kind fallback entries are not set by it.
func (m *TemplateMatcher) SetOnNoMatch(mode string, kind BuiltinRuleKind) {
	mt, ok := m.modes[mode]
	if !ok {
		mt = &modeTable{onNoMatch: make(map[NodeKind]BuiltinRuleKind)}
		m.modes[mode] = mt
	}
	mt.defaultNM = kind
}

func sortRulesByConflictOrder(rules []*TemplateRule) {
	// Insertion sort: the rule count per mode is small and this keeps
	// the comparison logic (three-way tiebreak) easy to read inline.
	for i := 1; i < len(rules); i++ {
		j := i
		for j > 0 && ruleRanksAfter(rules[j-1], rules[j]) {
			rules[j-1], rules[j] = rules[j], rules[j-1]
			j--
		}
	}
}

// ruleRanksAfter reports whether a should sort after b: lower import
// precedence first is wrong — we want highest-ranked first, so a ranks
// after b when b is strictly preferred over a.
func ruleRanksAfter(a, b *TemplateRule) bool {
	if a.ImportPrecedence != b.ImportPrecedence {
		return a.ImportPrecedence < b.ImportPrecedence
	}
	pa, pb := a.effectivePriority(), b.effectivePriority()
	if pa != pb {
		return pa < pb
	}
	return a.DeclIndex < b.DeclIndex
}

// FindMatch returns the highest-ranked rule matching node in mode, or
// nil with a builtin kind when no rule matches. mt.rules is sorted
// highest-ranked first, so the first pattern match found scanning
// forward is the one to return.
func (m *TemplateMatcher) FindMatch(node Node, mode string) (*TemplateRule, BuiltinRuleKind) {
	mt, ok := m.modes[mode]
	if !ok {
		return nil, BuiltinTextOnlyCopy
	}
	for i := 0; i < len(mt.rules); i++ {
		if matches(mt.rules[i].Pattern, node) {
			return mt.rules[i], 0
		}
	}
	if k, ok := mt.onNoMatch[node.Kind()]; ok {
		return nil, k
	}
	return nil, mt.defaultNM
}

// FindNextMatch implements xsl:next-match: scan past current in the
// sorted order and return the next pattern match, or the mode's builtin
// rule if current was the last match.
func (m *TemplateMatcher) FindNextMatch(node Node, mode string, current *TemplateRule) (*TemplateRule, BuiltinRuleKind) {
	mt, ok := m.modes[mode]
	if !ok {
		return nil, BuiltinTextOnlyCopy
	}
	start := -1
	for i, r := range mt.rules {
		if r == current {
			start = i
			break
		}
	}
	for i := start + 1; i < len(mt.rules); i++ {
		if matches(mt.rules[i].Pattern, node) {
			return mt.rules[i], 0
		}
	}
	if k, ok := mt.onNoMatch[node.Kind()]; ok {
		return nil, k
	}
	return nil, mt.defaultNM
}

// FindImportMatch implements xsl:apply-imports: the highest-ranked rule
// matching node whose import precedence is strictly lower than current's.
func (m *TemplateMatcher) FindImportMatch(node Node, mode string, current *TemplateRule) (*TemplateRule, BuiltinRuleKind) {
	mt, ok := m.modes[mode]
	if !ok {
		return nil, BuiltinTextOnlyCopy
	}
	for i := 0; i < len(mt.rules); i++ {
		r := mt.rules[i]
		if r.ImportPrecedence >= current.ImportPrecedence {
			continue
		}
		if matches(r.Pattern, node) {
			return r, 0
		}
	}
	if k, ok := mt.onNoMatch[node.Kind()]; ok {
		return nil, k
	}
	return nil, mt.defaultNM
}

// Named looks up a template by its xsl:call-template name.
func (m *TemplateMatcher) Named(name QName) (*TemplateRule, bool) {
	r, ok := m.named[name]
	return r, ok
}

// builtinNamespace tags the reserved namespace used by FindMatch callers
// to recognize built-in rule identity when logging or testing.
const builtinNamespace = "urn:internal:builtin-template"
