package xslt

// StreamingHandler implements SourceEventSink directly over the node
// model (spec §4.10): it materializes each element as its startElement
// event arrives, drives the accumulator manager's pre/post-descent
// notifications in lockstep with document order, and invokes the
// compiled body exactly once, with the document's root element as the
// XSLT current node, the moment that element starts.
//
// Interleaving the body's own descendant traversal with further
// incoming events (true single-pass push streaming) is the stylesheet
// compiler's responsibility — it is handed the same mutable root node
// this handler keeps extending, and a compiler emitting coroutine-style
// template bodies can read children as they arrive. This handler's own
// contract is the timing and bookkeeping spec §4.10 describes, not the
// body's internal execution strategy.
type StreamingHandler struct {
	order docOrderCounter
	root  *treeNode
	stack []*treeNode

	nsScope   []map[string]string
	pendingNS []NamespaceDecl

	depth       int
	accum       *AccumulatorManager
	ctx         Context
	executeBody func(ctx Context, root Node) error
}

// NewStreamingHandler builds a handler that drives accum and, once the
// root element starts, calls executeBody(ctx-with-root-as-current, root).
func NewStreamingHandler(ctx Context, accum *AccumulatorManager, executeBody func(ctx Context, root Node) error) *StreamingHandler {
	root := NewRootNode(true)
	return &StreamingHandler{
		root: root, stack: []*treeNode{root}, nsScope: []map[string]string{{}},
		accum: accum, ctx: ctx, executeBody: executeBody,
	}
}

// Root returns the streaming document's root node.
func (h *StreamingHandler) Root() Node { return h.root }

func (h *StreamingHandler) top() *treeNode { return h.stack[len(h.stack)-1] }

func (h *StreamingHandler) StartDocument() error {
	if h.accum != nil {
		return h.accum.StartDocument(h.ctx)
	}
	return nil
}

func (h *StreamingHandler) EndDocument() error { return nil }

func (h *StreamingHandler) StartPrefixMapping(prefix, uri string) error {
	h.pendingNS = append(h.pendingNS, NamespaceDecl{Prefix: prefix, URI: uri})
	return nil
}

func (h *StreamingHandler) EndPrefixMapping(prefix string) error { return nil }

func (h *StreamingHandler) StartElement(uri, local, qname string, attrs []Attribute) error {
	prefix, _, _ := splitQName(qname)
	parent := h.top()
	elem := NewElementNode(parent, uri, local, prefix, &h.order)

	scope := make(map[string]string, len(h.nsScope[len(h.nsScope)-1])+len(h.pendingNS))
	for k, v := range h.nsScope[len(h.nsScope)-1] {
		scope[k] = v
	}
	for _, d := range h.pendingNS {
		scope[d.Prefix] = d.URI
		AddNamespaceNode(elem, d.Prefix, d.URI, &h.order)
	}
	h.pendingNS = h.pendingNS[:0]

	for _, a := range attrs {
		ap, al, _ := splitQName(a.QName)
		AddAttribute(elem, a.URI, al, ap, a.Value, &h.order)
	}

	h.stack = append(h.stack, elem)
	h.nsScope = append(h.nsScope, scope)
	h.depth++

	if h.accum != nil {
		if err := h.accum.PreDescent(h.ctx, elem); err != nil {
			return err
		}
	}
	if h.depth == 1 && h.executeBody != nil {
		return h.executeBody(h.ctx.WithCurrentNode(elem), elem)
	}
	return nil
}

func (h *StreamingHandler) EndElement(uri, local, qname string) error {
	if len(h.stack) <= 1 {
		return errSerializerMisuse("streaming handler endElement() with no matching open element")
	}
	node := h.top()
	if h.accum != nil {
		if err := h.accum.PostDescent(h.ctx, node); err != nil {
			return err
		}
	}
	h.stack = h.stack[:len(h.stack)-1]
	h.nsScope = h.nsScope[:len(h.nsScope)-1]
	node.MarkStreamed()
	h.depth--
	return nil
}

func (h *StreamingHandler) Characters(text string) error {
	NewTextNode(h.top(), text, &h.order)
	return nil
}

func (h *StreamingHandler) Comment(text string) error {
	NewCommentNode(h.top(), text, &h.order)
	return nil
}

func (h *StreamingHandler) ProcessingInstruction(target, data string) error {
	NewPINode(h.top(), target, data, &h.order)
	return nil
}
