package xslt

import "fmt"

// TreeBuilder is an OutputHandler that materializes a fully navigable
// node tree instead of serializing bytes, used by the grounded executor
// to turn a recorded event stream (spec §4.2)
// into something the XPath navigator (spec §4.1) can walk in every
// direction.
type TreeBuilder struct {
	order     docOrderCounter
	root      *treeNode
	stack     []*treeNode
	pending   pendingElement
	streaming bool
	nsScope   []map[string]string
}

// NewTreeBuilder starts a fresh builder. streaming marks every node it
// creates as not-yet-fully-navigable until MarkStreamed promotes them;
// pass false for the grounded/loaded case, which is fully navigable from
// the moment construction finishes.
func NewTreeBuilder(streaming bool) *TreeBuilder {
	root := NewRootNode(streaming)
	return &TreeBuilder{root: root, stack: []*treeNode{root}, streaming: streaming, nsScope: []map[string]string{{}}}
}

// Root returns the constructed root node. Valid once EndDocument (or the
// final EndElement, for a fragment without document boundaries) has run.
func (b *TreeBuilder) Root() Node { return b.root }

func (b *TreeBuilder) top() *treeNode { return b.stack[len(b.stack)-1] }

func (b *TreeBuilder) StartDocument() error { return nil }
func (b *TreeBuilder) EndDocument() error {
	if b.pending.active {
		b.flush()
	}
	return nil
}

func (b *TreeBuilder) StartElement(uri, local, qname string) error {
	if b.pending.active {
		b.flush()
	}
	b.pending.start(uri, local, qname)
	return nil
}

func (b *TreeBuilder) Attribute(uri, local, qname, value string) error {
	return b.pending.addAttribute(uri, local, qname, value)
}

func (b *TreeBuilder) Namespace(prefix, uri string) error {
	return b.pending.addNamespace(prefix, uri)
}

func (b *TreeBuilder) Characters(text string) error {
	if b.pending.active {
		b.flush()
	}
	NewTextNode(b.top(), text, &b.order)
	return nil
}

func (b *TreeBuilder) CharactersRaw(text string) error { return b.Characters(text) }

func (b *TreeBuilder) Comment(text string) error {
	if b.pending.active {
		b.flush()
	}
	NewCommentNode(b.top(), text, &b.order)
	return nil
}

func (b *TreeBuilder) ProcessingInstruction(target, data string) error {
	if b.pending.active {
		b.flush()
	}
	NewPINode(b.top(), target, data, &b.order)
	return nil
}

func (b *TreeBuilder) EndElement(uri, local, qname string) error {
	if b.pending.active {
		b.flush()
	}
	if len(b.stack) <= 1 {
		return errSerializerMisuse("tree builder endElement() with no matching open element")
	}
	finished := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.nsScope = b.nsScope[:len(b.nsScope)-1]
	finished.MarkStreamed()
	return nil
}

func (b *TreeBuilder) Flush() error { return nil }

func (b *TreeBuilder) SetTypeAnnotation(uri, local string) {
	if len(b.stack) > 1 {
		b.top().SetTypeAnnotation(uri, local)
	}
}
func (b *TreeBuilder) SetValidationMode(ValidationMode) {}
func (b *TreeBuilder) AtomicValue(v Value) error        { return b.Characters(v.AsString()) }

func (b *TreeBuilder) flush() {
	prefix, local, _ := splitQName(b.pending.qname)
	parent := b.top()
	elem := NewElementNode(parent, b.pending.uri, local, prefix, &b.order)

	scope := make(map[string]string, len(b.nsScope[len(b.nsScope)-1])+len(b.pending.nsDecl))
	for k, v := range b.nsScope[len(b.nsScope)-1] {
		scope[k] = v
	}
	for _, d := range b.pending.nsDecl {
		scope[d.Prefix] = d.URI
		AddNamespaceNode(elem, d.Prefix, d.URI, &b.order)
	}
	for _, a := range b.pending.attrs {
		ap, al, _ := splitQName(a.QName)
		AddAttribute(elem, a.URI, al, ap, a.Value, &b.order)
	}

	b.pending.clear()
	b.stack = append(b.stack, elem)
	b.nsScope = append(b.nsScope, scope)
}

// BuildTreeFromBuffer is a convenience wrapper for the common case of
// replaying a whole recorded buffer into a brand-new, fully navigable
// tree (spec §4.8's grounded path).
func BuildTreeFromBuffer(buf *EventBuffer) (Node, error) {
	b := NewTreeBuilder(false)
	if err := buf.ReplayContent(b); err != nil {
		return nil, fmt.Errorf("building grounded tree: %w", err)
	}
	return b.Root(), nil
}
