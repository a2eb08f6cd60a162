package xslt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingGlobalDependency is the sentinel a GlobalVariable's Select
// function returns when it references another global variable that
// hasn't been bound yet, letting the forward-reference resolution loop
// (spec §4.11) tell "still pending" apart from a genuine evaluation
// failure.
var ErrMissingGlobalDependency = errors.New("global variable dependency not yet resolved")

// GlobalVariable is one top-level xsl:variable/xsl:param binding whose
// Select expression may reference other globals declared later in
// document order.
type GlobalVariable struct {
	Name   QName
	Select func(ctx Context) (Value, error)
}

// Transformer is the top-level orchestrator (spec §4.11): it resolves
// global variables, opens the principal output, invokes either a named
// initial template or applies templates to the document root, then
// closes output.
type Transformer struct {
	matcher *TemplateMatcher
	globals []*GlobalVariable
	sink    ErrorSink
}

// NewTransformer builds a transformer over a compiled matcher and the
// stylesheet's global variable declarations.
func NewTransformer(matcher *TemplateMatcher, globals []*GlobalVariable, sink ErrorSink) *Transformer {
	if sink == nil {
		sink = discardErrorSink{}
	}
	return &Transformer{matcher: matcher, globals: globals, sink: sink}
}

// Transform runs one transformation of root to out. If initialTemplate
// is non-empty it must name a template registered with the matcher;
// otherwise templates are applied to root in the default mode.
func (t *Transformer) Transform(root Node, out OutputHandler, initialTemplate string) error {
	ctx := NewContext(root, t.sink)
	ctx, err := t.resolveGlobals(ctx)
	if err != nil {
		return err
	}

	if err := out.StartDocument(); err != nil {
		return err
	}

	if initialTemplate != "" {
		rule, ok := t.matcher.Named(QName{Local: initialTemplate})
		if !ok {
			return NewEvalError(CodeMissingInitialTemplate, "no template named "+initialTemplate)
		}
		err = rule.Body(ctx.WithCurrentRule(rule), root, out)
	} else {
		err = t.ApplyTemplates(ctx, root, "", out)
	}
	if err != nil {
		_ = out.EndDocument()
		return err
	}

	return out.EndDocument()
}

// resolveGlobals evaluates every global variable, tolerating forward
// references: it keeps sweeping the still-unresolved set until a full
// pass makes no progress, at which point the remaining names form a
// genuine cycle (spec §4.11/§4.13, CodeCircularReference).
func (t *Transformer) resolveGlobals(ctx Context) (Context, error) {
	pending := append([]*GlobalVariable(nil), t.globals...)
	for len(pending) > 0 {
		var next []*GlobalVariable
		progressed := false
		for _, g := range pending {
			v, err := g.Select(ctx)
			if err != nil {
				if errors.Is(err, ErrMissingGlobalDependency) {
					next = append(next, g)
					continue
				}
				return ctx, err
			}
			ctx.Vars.Bind(g.Name, v)
			progressed = true
		}
		if !progressed {
			names := make([]string, len(next))
			for i, g := range next {
				names[i] = g.Name.String()
			}
			return ctx, NewEvalError(CodeCircularReference, "circular reference among global variables: "+strings.Join(names, ", "))
		}
		pending = next
	}
	return ctx, nil
}

// ApplyTemplates finds the rule matching node in mode and executes it,
// falling back to the mode's built-in rule on a miss.
func (t *Transformer) ApplyTemplates(ctx Context, node Node, mode string, out OutputHandler) error {
	rule, builtin := t.matcher.FindMatch(node, mode)
	if rule == nil {
		return t.runBuiltin(builtin, ctx, node, mode, out)
	}
	return rule.Body(ctx.WithMode(mode).WithCurrentRule(rule), node, out)
}

// ApplyTemplatesToNodeSet applies templates to every node in nodes,
// deriving a child context with position/size computed over the
// complete set (spec §4.11).
func (t *Transformer) ApplyTemplatesToNodeSet(ctx Context, nodes []Node, mode string, out OutputHandler) error {
	size := len(nodes)
	for i, n := range nodes {
		if err := t.ApplyTemplates(ctx.WithPosition(i+1, size), n, mode, out); err != nil {
			return err
		}
	}
	return nil
}

// ApplyImports implements xsl:apply-imports: re-dispatch node in the
// current mode against the highest-ranked rule with strictly lower
// import precedence than the currently executing rule.
func (t *Transformer) ApplyImports(ctx Context, node Node, out OutputHandler) error {
	if ctx.CurrentRule == nil {
		return NewEvalError(CodeNoTemplateMatch, "apply-imports outside a template rule")
	}
	rule, builtin := t.matcher.FindImportMatch(node, ctx.Mode, ctx.CurrentRule)
	if rule == nil {
		return t.runBuiltin(builtin, ctx, node, ctx.Mode, out)
	}
	return rule.Body(ctx.WithCurrentRule(rule), node, out)
}

// NextMatch implements xsl:next-match: scan past the currently executing
// rule for the next pattern match in the same mode.
func (t *Transformer) NextMatch(ctx Context, node Node, out OutputHandler) error {
	rule, builtin := t.matcher.FindNextMatch(node, ctx.Mode, ctx.CurrentRule)
	if rule == nil {
		return t.runBuiltin(builtin, ctx, node, ctx.Mode, out)
	}
	return rule.Body(ctx.WithCurrentRule(rule), node, out)
}

// CallTemplate implements xsl:call-template: looks up a named template
// and executes it without changing the current node or mode.
func (t *Transformer) CallTemplate(ctx Context, name QName, node Node, out OutputHandler) error {
	rule, ok := t.matcher.Named(name)
	if !ok {
		return NewEvalError(CodeMissingInitialTemplate, "no template named "+name.String())
	}
	return rule.Body(ctx.WithCurrentRule(rule), node, out)
}

func (t *Transformer) runBuiltin(kind BuiltinRuleKind, ctx Context, node Node, mode string, out OutputHandler) error {
	switch kind {
	case BuiltinTextOnlyCopy:
		return t.builtinTextOnlyCopy(ctx, node, mode, out)
	case BuiltinShallowCopy:
		return t.builtinShallowCopy(ctx, node, mode, out)
	case BuiltinDeepCopy:
		return copySubtreeDeep(node, out)
	case BuiltinShallowSkip:
		return t.builtinShallowSkip(ctx, node, mode, out)
	case BuiltinDeepSkip:
		return nil
	case BuiltinFail:
		return NewEvalError(CodeNoTemplateMatch, fmt.Sprintf("no template matches %s node", node.Kind()))
	default:
		return nil
	}
}

func (t *Transformer) builtinTextOnlyCopy(ctx Context, node Node, mode string, out OutputHandler) error {
	switch node.Kind() {
	case KindRootNode, KindElementNode:
		return t.ApplyTemplatesToNodeSet(ctx, node.Children(), mode, out)
	case KindTextNode, KindAttributeNode:
		return out.Characters(node.StringValue())
	default:
		return nil
	}
}

func (t *Transformer) builtinShallowSkip(ctx Context, node Node, mode string, out OutputHandler) error {
	switch node.Kind() {
	case KindRootNode, KindElementNode:
		return t.ApplyTemplatesToNodeSet(ctx, node.Children(), mode, out)
	default:
		return nil
	}
}

func (t *Transformer) builtinShallowCopy(ctx Context, node Node, mode string, out OutputHandler) error {
	if node.Kind() != KindElementNode {
		return copySubtreeDeep(node, out)
	}
	if err := out.StartElement(node.NamespaceURI(), node.LocalName(), node.QName()); err != nil {
		return err
	}
	for _, a := range node.AttributeNodes() {
		if err := out.Attribute(a.NamespaceURI(), a.LocalName(), a.QName(), a.StringValue()); err != nil {
			return err
		}
	}
	for _, ns := range node.NamespaceNodes() {
		if err := out.Namespace(ns.Prefix(), ns.StringValue()); err != nil {
			return err
		}
	}
	if err := t.ApplyTemplatesToNodeSet(ctx, node.Children(), mode, out); err != nil {
		return err
	}
	return out.EndElement(node.NamespaceURI(), node.LocalName(), node.QName())
}

// copySubtreeDeep replays node and every descendant verbatim, the way
// the deep-copy built-in rule and xsl:copy-of do.
func copySubtreeDeep(node Node, out OutputHandler) error {
	switch node.Kind() {
	case KindRootNode:
		for _, c := range node.Children() {
			if err := copySubtreeDeep(c, out); err != nil {
				return err
			}
		}
		return nil
	case KindElementNode:
		if err := out.StartElement(node.NamespaceURI(), node.LocalName(), node.QName()); err != nil {
			return err
		}
		for _, ns := range node.NamespaceNodes() {
			if err := out.Namespace(ns.Prefix(), ns.StringValue()); err != nil {
				return err
			}
		}
		for _, a := range node.AttributeNodes() {
			if err := out.Attribute(a.NamespaceURI(), a.LocalName(), a.QName(), a.StringValue()); err != nil {
				return err
			}
		}
		for _, c := range node.Children() {
			if err := copySubtreeDeep(c, out); err != nil {
				return err
			}
		}
		return out.EndElement(node.NamespaceURI(), node.LocalName(), node.QName())
	case KindTextNode:
		return out.Characters(node.StringValue())
	case KindCommentNode:
		return out.Comment(node.StringValue())
	case KindPINode:
		return out.ProcessingInstruction(node.QName(), node.StringValue())
	default:
		return nil
	}
}

// matchesClarkPattern tests uri/local against one strip-space or
// preserve-space pattern written in Clark notation with wildcards:
// "{uri}local", "{*}local", "{uri}*", or bare "*" (spec §4.11).
func matchesClarkPattern(pattern, uri, local string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.HasPrefix(pattern, "{") {
		return pattern == local && uri == ""
	}
	end := strings.IndexByte(pattern, '}')
	if end < 0 {
		return false
	}
	patURI := pattern[1:end]
	patLocal := pattern[end+1:]
	if patURI != "*" && patURI != uri {
		return false
	}
	return patLocal == "*" || patLocal == local
}

// ShouldStripWhitespace decides whether a whitespace-only text node
// under an element named uri/local should be stripped: preserve wins
// when both a strip and a preserve pattern match (spec §4.11).
func ShouldStripWhitespace(uri, local string, strip, preserve []string) bool {
	stripMatch, preserveMatch := false, false
	for _, p := range strip {
		if matchesClarkPattern(p, uri, local) {
			stripMatch = true
			break
		}
	}
	if !stripMatch {
		return false
	}
	for _, p := range preserve {
		if matchesClarkPattern(p, uri, local) {
			preserveMatch = true
			break
		}
	}
	return !preserveMatch
}

func isWhitespaceOnly(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// StripWhitespaceText removes whitespace-only text node children from
// element according to strip/preserve name patterns, recursing through
// the whole subtree. Used on a freshly loaded/grounded document, before
// any template ever sees it.
func StripWhitespaceText(root Node, strip, preserve []string) {
	stripWhitespaceRec(root, strip, preserve)
}

func stripWhitespaceRec(node Node, strip, preserve []string) {
	tn, ok := node.(*treeNode)
	if !ok {
		return
	}
	if tn.kind != KindElementNode && tn.kind != KindRootNode {
		return
	}
	kept := tn.children[:0]
	for _, c := range tn.children {
		if c.kind == KindTextNode && isWhitespaceOnly(c.strVal) && tn.kind == KindElementNode &&
			ShouldStripWhitespace(tn.uri, tn.local, strip, preserve) {
			continue
		}
		kept = append(kept, c)
	}
	tn.children = kept
	for i, c := range tn.children {
		c.siblingIndex = i
		stripWhitespaceRec(c, strip, preserve)
	}
}
