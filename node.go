package xslt

import "strings"

// NodeKind is the closed set of source/result node variants (spec §3).
type NodeKind uint8

const (
	KindRootNode NodeKind = iota
	KindElementNode
	KindAttributeNode
	KindNamespaceNode
	KindTextNode
	KindCommentNode
	KindPINode
)

func (k NodeKind) String() string {
	switch k {
	case KindRootNode:
		return "root"
	case KindElementNode:
		return "element"
	case KindAttributeNode:
		return "attribute"
	case KindNamespaceNode:
		return "namespace"
	case KindTextNode:
		return "text"
	case KindCommentNode:
		return "comment"
	case KindPINode:
		return "pi"
	default:
		return "unknown"
	}
}

// Node is the uniform view over source and result nodes used for
// navigation throughout the runtime (spec §4.1). One concrete
// implementation, treeNode, backs every kind: the teacher keeps a single
// XMLElement type for both pooled-streaming and fully retained nodes, and
// this model follows the same choice instead of introducing parallel
// "streaming" and "buffered" struct hierarchies for what is, at the field
// level, identical data.
type Node interface {
	Kind() NodeKind
	NamespaceURI() string
	LocalName() string
	Prefix() string
	QName() string
	StringValue() string
	Parent() Node
	Children() []Node
	AttributeNodes() []Node
	NamespaceNodes() []Node
	NextSibling() Node
	PrevSibling() Node
	DocumentOrder() int
	SameNode(other Node) bool
	Root() Node
	FullyNavigable() bool
	TypeAnnotation() (uri, local string, ok bool)
	DTDType() string
}

// treeNode is the single concrete Node implementation. Streaming mode
// limits navigation by never building the parts of the tree that haven't
// arrived yet rather than by a different type: FullyNavigable reports
// false while the node is still being streamed and true once it is not.
type treeNode struct {
	kind     NodeKind
	uri      string
	local    string
	prefix   string
	strVal   string // text/comment content, attribute value, or PI data
	piTarget string

	parent       *treeNode
	children     []*treeNode
	attrs        []*treeNode
	nsNodes      []*treeNode
	siblingIndex int
	docOrder     int

	typeURI   string
	typeLocal string
	hasType   bool
	dtdType   string

	rootRef   *treeNode
	streaming bool
}

// docOrderCounter hands out strictly increasing document-order values for
// one document's worth of node construction (spec §3 invariant (i)).
type docOrderCounter struct{ next int }

func (c *docOrderCounter) allocate() int {
	v := c.next
	c.next++
	return v
}

// NewRootNode creates a fresh root for a document under construction.
func NewRootNode(streaming bool) *treeNode {
	r := &treeNode{kind: KindRootNode, streaming: streaming}
	r.rootRef = r
	return r
}

// NewElementNode appends a new element child to parent (or stands alone
// if parent is nil, becoming its own root) and returns it.
func NewElementNode(parent *treeNode, uri, local, prefix string, order *docOrderCounter) *treeNode {
	e := &treeNode{kind: KindElementNode, uri: uri, local: local, prefix: prefix}
	if parent != nil {
		e.streaming = parent.streaming
	}
	attachChild(parent, e, order)
	return e
}

// NewTextNode appends a text child carrying value.
func NewTextNode(parent *treeNode, value string, order *docOrderCounter) *treeNode {
	t := &treeNode{kind: KindTextNode, strVal: value}
	attachChild(parent, t, order)
	return t
}

// NewCommentNode appends a comment child carrying value.
func NewCommentNode(parent *treeNode, value string, order *docOrderCounter) *treeNode {
	c := &treeNode{kind: KindCommentNode, strVal: value}
	attachChild(parent, c, order)
	return c
}

// NewPINode appends a processing-instruction child.
func NewPINode(parent *treeNode, target, data string, order *docOrderCounter) *treeNode {
	p := &treeNode{kind: KindPINode, piTarget: target, strVal: data}
	attachChild(parent, p, order)
	return p
}

// AddAttribute attaches an attribute node to an element (spec invariant
// (ii): attribute nodes are owned by exactly one element).
func AddAttribute(elem *treeNode, uri, local, prefix, value string, order *docOrderCounter) *treeNode {
	a := &treeNode{kind: KindAttributeNode, uri: uri, local: local, prefix: prefix, strVal: value, parent: elem}
	a.docOrder = order.allocate()
	a.rootRef = elem.rootRef
	elem.attrs = append(elem.attrs, a)
	return a
}

// AddNamespaceNode attaches an in-scope namespace binding to an element.
func AddNamespaceNode(elem *treeNode, prefix, uri string, order *docOrderCounter) *treeNode {
	n := &treeNode{kind: KindNamespaceNode, prefix: prefix, uri: uri, parent: elem}
	n.docOrder = order.allocate()
	n.rootRef = elem.rootRef
	elem.nsNodes = append(elem.nsNodes, n)
	return n
}

func attachChild(parent, child *treeNode, order *docOrderCounter) {
	child.docOrder = order.allocate()
	if parent != nil {
		child.parent = parent
		child.rootRef = parent.rootRef
		child.siblingIndex = len(parent.children)
		parent.children = append(parent.children, child)
	} else {
		child.rootRef = child
	}
}

// SetTypeAnnotation records the schema type assigned to this node by the
// runtime validator (spec §4.9).
func (n *treeNode) SetTypeAnnotation(uri, local string) {
	n.typeURI, n.typeLocal, n.hasType = uri, local, true
}

// SetDTDType records a DTD-declared attribute type tag (e.g. "ID"),
// consumed by the id() function (spec §4.1).
func (n *treeNode) SetDTDType(tag string) { n.dtdType = tag }

// MarkStreamed flips this node from "still streaming" to fully
// materialized, e.g. once the streaming handler reaches the matching
// endElement and the subtree will not grow any further. Only this node's
// flag changes; descendants keep their own.
func (n *treeNode) MarkStreamed() { n.streaming = false }

func (n *treeNode) Kind() NodeKind       { return n.kind }
func (n *treeNode) NamespaceURI() string { return n.uri }
func (n *treeNode) LocalName() string    { return n.local }
func (n *treeNode) Prefix() string       { return n.prefix }

func (n *treeNode) QName() string {
	if n.kind == KindPINode {
		return n.piTarget
	}
	if n.prefix == "" {
		return n.local
	}
	return n.prefix + ":" + n.local
}

func (n *treeNode) StringValue() string {
	switch n.kind {
	case KindTextNode, KindCommentNode, KindPINode, KindAttributeNode:
		return n.strVal
	case KindNamespaceNode:
		return n.uri
	default:
		var sb strings.Builder
		collectDescendantText(n, &sb)
		return sb.String()
	}
}

func collectDescendantText(n *treeNode, sb *strings.Builder) {
	for _, c := range n.children {
		switch c.kind {
		case KindTextNode:
			sb.WriteString(c.strVal)
		case KindElementNode, KindRootNode:
			collectDescendantText(c, sb)
		default:
			// comments and PIs do not contribute to string-value
		}
	}
}

func (n *treeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *treeNode) Children() []Node { return toNodes(n.children) }

func (n *treeNode) AttributeNodes() []Node { return toNodes(n.attrs) }

func (n *treeNode) NamespaceNodes() []Node { return toNodes(n.nsNodes) }

func (n *treeNode) NextSibling() Node {
	if n.parent == nil {
		return nil
	}
	idx := n.siblingIndex + 1
	if idx >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[idx]
}

func (n *treeNode) PrevSibling() Node {
	if n.parent == nil || n.siblingIndex == 0 {
		return nil
	}
	return n.parent.children[n.siblingIndex-1]
}

func (n *treeNode) DocumentOrder() int { return n.docOrder }

func (n *treeNode) SameNode(other Node) bool {
	o, ok := other.(*treeNode)
	return ok && o == n
}

func (n *treeNode) Root() Node {
	if n.rootRef == nil {
		return n
	}
	return n.rootRef
}

func (n *treeNode) FullyNavigable() bool { return !n.streaming }

func (n *treeNode) TypeAnnotation() (string, string, bool) {
	return n.typeURI, n.typeLocal, n.hasType
}

func (n *treeNode) DTDType() string { return n.dtdType }

func toNodes(ts []*treeNode) []Node {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Node, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// Dump renders a subtree as an indented outline for diagnostics and tests
// only — never consulted by transformation control flow. Grounded in
// antchfx/xmlquery's OutputXML-style debug rendering.
func Dump(n Node, sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	switch n.Kind() {
	case KindElementNode:
		sb.WriteString("<" + n.QName() + ">\n")
		for _, a := range n.AttributeNodes() {
			sb.WriteString(strings.Repeat("  ", depth+1))
			sb.WriteString("@" + a.QName() + "=" + a.StringValue() + "\n")
		}
		for _, c := range n.Children() {
			Dump(c, sb, depth+1)
		}
	case KindTextNode:
		sb.WriteString("#text " + n.StringValue() + "\n")
	case KindCommentNode:
		sb.WriteString("#comment " + n.StringValue() + "\n")
	case KindPINode:
		sb.WriteString("#pi " + n.QName() + "\n")
	default:
		sb.WriteString("#root\n")
		for _, c := range n.Children() {
			Dump(c, sb, depth+1)
		}
	}
}
