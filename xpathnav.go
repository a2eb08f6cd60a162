package xslt

import (
	"github.com/wilkmaciej/xpath"
)

// treeNavigator adapts the Node interface to xpath.NodeNavigator so that
// match patterns and select expressions (spec §4.4) evaluate directly
// over the runtime's own node model instead of a parser-specific tree.
// Attribute and namespace axes are modeled the same way the teacher's
// elementNavigator models attributes: an index into the owning element's
// slice, with -1 meaning "not currently positioned on one".
type treeNavigator struct {
	root    Node
	cur     Node
	attrIdx int
	nsIdx   int
}

func newTreeNavigator(root Node) *treeNavigator {
	return &treeNavigator{root: root, cur: root, attrIdx: -1, nsIdx: -1}
}

func (n *treeNavigator) onAttribute() bool { return n.attrIdx != -1 }
func (n *treeNavigator) onNamespace() bool { return n.nsIdx != -1 }

func (n *treeNavigator) NodeType() xpath.NodeType {
	if n.onAttribute() {
		return xpath.AttributeNode
	}
	if n.onNamespace() {
		return xpath.AttributeNode // the library has no dedicated namespace kind; treat as attribute-like
	}
	switch n.cur.Kind() {
	case KindRootNode:
		return xpath.RootNode
	case KindElementNode:
		return xpath.ElementNode
	case KindTextNode:
		return xpath.TextNode
	case KindCommentNode:
		return xpath.CommentNode
	case KindPINode:
		return xpath.TextNode
	default:
		return xpath.ElementNode
	}
}

func (n *treeNavigator) LocalName() string {
	if n.onAttribute() {
		return n.cur.AttributeNodes()[n.attrIdx].LocalName()
	}
	if n.onNamespace() {
		return n.cur.NamespaceNodes()[n.nsIdx].Prefix()
	}
	if n.cur.Kind() == KindPINode {
		return n.cur.QName()
	}
	return n.cur.LocalName()
}

func (n *treeNavigator) Prefix() string {
	if n.onAttribute() {
		return n.cur.AttributeNodes()[n.attrIdx].Prefix()
	}
	if n.onNamespace() {
		return ""
	}
	return n.cur.Prefix()
}

func (n *treeNavigator) NamespaceURL() string {
	if n.onAttribute() {
		return n.cur.AttributeNodes()[n.attrIdx].NamespaceURI()
	}
	if n.onNamespace() {
		return n.cur.NamespaceNodes()[n.nsIdx].StringValue()
	}
	return n.cur.NamespaceURI()
}

func (n *treeNavigator) Value() string {
	if n.onAttribute() {
		return n.cur.AttributeNodes()[n.attrIdx].StringValue()
	}
	if n.onNamespace() {
		return n.cur.NamespaceNodes()[n.nsIdx].StringValue()
	}
	return n.cur.StringValue()
}

func (n *treeNavigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *treeNavigator) MoveToRoot() {
	n.cur = n.root
	n.attrIdx = -1
	n.nsIdx = -1
}

func (n *treeNavigator) MoveToParent() bool {
	if n.onAttribute() {
		n.attrIdx = -1
		return true
	}
	if n.onNamespace() {
		n.nsIdx = -1
		return true
	}
	p := n.cur.Parent()
	if p == nil {
		return false
	}
	n.cur = p
	return true
}

func (n *treeNavigator) MoveToNextAttribute() bool {
	if n.onNamespace() {
		return false
	}
	attrs := n.cur.AttributeNodes()
	if n.attrIdx+1 >= len(attrs) {
		return false
	}
	n.attrIdx++
	return true
}

// MoveToNextNamespace advances to the next namespace node, mirroring
// MoveToNextAttribute. Not part of xpath.NodeNavigator in the linked
// library version, kept for future namespace-axis support.
func (n *treeNavigator) MoveToNextNamespace() bool {
	if n.onAttribute() {
		return false
	}
	nsNodes := n.cur.NamespaceNodes()
	if n.nsIdx+1 >= len(nsNodes) {
		return false
	}
	n.nsIdx++
	return true
}

func (n *treeNavigator) MoveToChild() bool {
	if n.onAttribute() || n.onNamespace() {
		return false
	}
	children := n.cur.Children()
	if len(children) == 0 {
		return false
	}
	n.cur = children[0]
	return true
}

func (n *treeNavigator) MoveToFirst() bool {
	if n.onAttribute() || n.onNamespace() {
		return false
	}
	p := n.cur.Parent()
	if p == nil {
		return false
	}
	children := p.Children()
	if len(children) == 0 || children[0].SameNode(n.cur) {
		return false
	}
	n.cur = children[0]
	return true
}

func (n *treeNavigator) MoveToNext() bool {
	if n.onAttribute() || n.onNamespace() {
		return false
	}
	next := n.cur.NextSibling()
	if next == nil {
		return false
	}
	n.cur = next
	return true
}

func (n *treeNavigator) MoveToPrevious() bool {
	if n.onAttribute() || n.onNamespace() {
		return false
	}
	prev := n.cur.PrevSibling()
	if prev == nil {
		return false
	}
	n.cur = prev
	return true
}

func (n *treeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*treeNavigator)
	if !ok || !o.root.SameNode(n.root) {
		return false
	}
	n.cur = o.cur
	n.attrIdx = o.attrIdx
	n.nsIdx = o.nsIdx
	return true
}

func (n *treeNavigator) String() string { return n.Value() }

// positionNode points a fresh navigator directly at node, used when a
// context node other than the document root needs to seed an expression
// evaluation (spec §4.4's context-item argument).
func positionNode(node Node) *treeNavigator {
	nav := newTreeNavigator(node.Root())
	nav.cur = node
	return nav
}

// CompilePattern compiles a match pattern string (spec §4.7's patterns
// are an XPath subset) via the same expression compiler used for select
// expressions; the runtime's conflict-resolution machinery (matcher.go)
// evaluates the compiled expression from each ancestor of the candidate
// node and checks whether the candidate is in the resulting node-set,
// rather than relying on a separate pattern grammar.
func CompilePattern(pattern string) (*xpath.Expr, error) {
	return xpath.Compile(pattern)
}

// EvalBoolean evaluates expr with node as context and coerces the result
// to a boolean the way an XPath predicate would.
func EvalBoolean(expr *xpath.Expr, node Node) bool {
	nav := positionNode(node)
	result := expr.Evaluate(nav)
	switch v := result.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case *xpath.NodeIterator:
		return v.MoveNext()
	default:
		return false
	}
}

// EvalString evaluates expr with node as context and stringifies the
// result the way the string() function would.
func EvalString(expr *xpath.Expr, node Node) string {
	nav := positionNode(node)
	result := expr.Evaluate(nav)
	return stringifyXPathResult(result)
}

func stringifyXPathResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(v)
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value()
		}
		return ""
	default:
		return ""
	}
}

// EvalNodeSet evaluates expr with node as context and collects every
// matched node, preserving document order (spec §4.1 invariant (i)).
func EvalNodeSet(expr *xpath.Expr, node Node) []Node {
	nav := positionNode(node)
	result := expr.Evaluate(nav)
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		return nil
	}
	var out []Node
	for iter.MoveNext() {
		tn, ok := iter.Current().(*treeNavigator)
		if !ok {
			continue
		}
		out = append(out, tn.cur)
	}
	return out
}

// qnameEquals compares a QName against a prefix-qualified name resolved
// through a prefix-to-URI lookup function. Nothing in this package calls
// it.
func qnameEquals(q QName, qname string, resolve func(prefix string) string) bool {
	prefix, local, has := splitQName(qname)
	if local != q.Local {
		return false
	}
	if !has {
		return q.URI == ""
	}
	return resolve(prefix) == q.URI
}
