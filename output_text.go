package xslt

import "io"

// TextOutputHandler is the text serializer (spec §4.5): it discards all
// markup and emits only character content, including atomic values.
type TextOutputHandler struct {
	w             io.Writer
	validateMode  ValidationMode
	lastWasAtomic bool
}

// NewTextOutputHandler builds a text serializer writing to w.
func NewTextOutputHandler(w io.Writer) *TextOutputHandler {
	return &TextOutputHandler{w: w}
}

func (h *TextOutputHandler) StartDocument() error { return nil }
func (h *TextOutputHandler) EndDocument() error   { return h.Flush() }

func (h *TextOutputHandler) StartElement(uri, local, qname string) error {
	h.lastWasAtomic = false
	return nil
}
func (h *TextOutputHandler) EndElement(uri, local, qname string) error {
	h.lastWasAtomic = false
	return nil
}
func (h *TextOutputHandler) Attribute(uri, local, qname, value string) error {
	return nil
}
func (h *TextOutputHandler) Namespace(prefix, uri string) error { return nil }

func (h *TextOutputHandler) Characters(text string) error {
	h.lastWasAtomic = false
	_, err := io.WriteString(h.w, text)
	return err
}

func (h *TextOutputHandler) CharactersRaw(text string) error {
	h.lastWasAtomic = false
	_, err := io.WriteString(h.w, text)
	return err
}

func (h *TextOutputHandler) Comment(text string) error                       { return nil }
func (h *TextOutputHandler) ProcessingInstruction(target, data string) error { return nil }

func (h *TextOutputHandler) Flush() error {
	if f, ok := h.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (h *TextOutputHandler) SetTypeAnnotation(string, string)      {}
func (h *TextOutputHandler) SetValidationMode(mode ValidationMode) { h.validateMode = mode }

// AtomicValue writes v's string value, preceded by a single space when
// the previous item written was also an atomic value.
func (h *TextOutputHandler) AtomicValue(v Value) error {
	if h.lastWasAtomic {
		if _, err := io.WriteString(h.w, " "); err != nil {
			return err
		}
	}
	if err := h.Characters(v.AsString()); err != nil {
		return err
	}
	h.lastWasAtomic = true
	return nil
}
