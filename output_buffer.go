package xslt

// BufferOutputHandler is an OutputHandler that records onto an
// EventBuffer instead of serializing bytes, used wherever a result tree
// fragment, a variable's buffered content, or an accumulator's grounded
// subtree needs to be constructed (spec §4.2/§4.8).
type BufferOutputHandler struct {
	buf          *EventBuffer
	pending      pendingElement
	validateMode ValidationMode
}

// NewBufferOutputHandler records into buf.
func NewBufferOutputHandler(buf *EventBuffer) *BufferOutputHandler {
	return &BufferOutputHandler{buf: buf}
}

func (h *BufferOutputHandler) StartDocument() error {
	h.buf.Record(Event{Kind: EvStartDocument})
	return nil
}

func (h *BufferOutputHandler) EndDocument() error {
	if h.pending.active {
		h.flush()
	}
	h.buf.Record(Event{Kind: EvEndDocument})
	return nil
}

func (h *BufferOutputHandler) StartElement(uri, local, qname string) error {
	if h.pending.active {
		h.flush()
	}
	h.pending.start(uri, local, qname)
	return nil
}

func (h *BufferOutputHandler) Attribute(uri, local, qname, value string) error {
	return h.pending.addAttribute(uri, local, qname, value)
}

func (h *BufferOutputHandler) Namespace(prefix, uri string) error {
	return h.pending.addNamespace(prefix, uri)
}

func (h *BufferOutputHandler) Characters(text string) error {
	if h.pending.active {
		h.flush()
	}
	h.buf.Record(Event{Kind: EvCharacters, Text: text})
	return nil
}

func (h *BufferOutputHandler) CharactersRaw(text string) error {
	return h.Characters(text)
}

func (h *BufferOutputHandler) Comment(text string) error {
	if h.pending.active {
		h.flush()
	}
	h.buf.Record(Event{Kind: EvComment, Text: text})
	return nil
}

func (h *BufferOutputHandler) ProcessingInstruction(target, data string) error {
	if h.pending.active {
		h.flush()
	}
	h.buf.Record(Event{Kind: EvProcessingInstruction, Target: target, Data: data})
	return nil
}

func (h *BufferOutputHandler) EndElement(uri, local, qname string) error {
	if h.pending.active {
		h.flush()
	}
	h.buf.Record(Event{Kind: EvEndElement, URI: uri, Local: local, QName: qname})
	return nil
}

func (h *BufferOutputHandler) Flush() error { return nil }

func (h *BufferOutputHandler) SetTypeAnnotation(string, string)      {}
func (h *BufferOutputHandler) SetValidationMode(mode ValidationMode) { h.validateMode = mode }
func (h *BufferOutputHandler) AtomicValue(v Value) error             { return h.Characters(v.AsString()) }

func (h *BufferOutputHandler) flush() {
	h.buf.Record(Event{
		Kind:   EvStartElement,
		URI:    h.pending.uri,
		Local:  h.pending.local,
		QName:  h.pending.qname,
		Attrs:  h.pending.attrs,
		NSDecl: h.pending.nsDecl,
	})
	h.pending.clear()
}
