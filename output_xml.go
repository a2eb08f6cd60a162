package xslt

import (
	"fmt"
	"io"
	"strings"
)

// openElement tracks an element that has already been flushed to the
// stream and is still waiting for its matching EndElement.
type openElement struct {
	qname string
}

// XMLOutputHandler is the XML serializer (spec §4.5). It writes an XML
// declaration unless suppressed, implements the deferred-start-tag
// protocol, escapes text/attribute content, and tracks an in-scope
// namespace stack to avoid redundant declarations and resolve conflicts.
type XMLOutputHandler struct {
	w             io.Writer
	version       string
	encoding      string
	omitDecl      bool
	standalone    string
	pending       pendingElement
	scope         *namespaceScope
	open          []openElement
	wroteDecl     bool
	typeURI       string
	typeLocal     string
	validateMode  ValidationMode
	lastWasAtomic bool
}

// NewXMLOutputHandler builds an XML serializer writing to w. version and
// encoding feed the XML declaration; pass omitDecl=true to suppress it.
func NewXMLOutputHandler(w io.Writer, version, encoding string, omitDecl bool) *XMLOutputHandler {
	if version == "" {
		version = "1.0"
	}
	if encoding == "" {
		encoding = "UTF-8"
	}
	return &XMLOutputHandler{
		w: w, version: version, encoding: encoding, omitDecl: omitDecl,
		scope: newNamespaceScopeRoot(),
	}
}

func (h *XMLOutputHandler) StartDocument() error {
	if !h.omitDecl && !h.wroteDecl {
		h.wroteDecl = true
		if _, err := fmt.Fprintf(h.w, `<?xml version="%s" encoding="%s"?>`, h.version, h.encoding); err != nil {
			return err
		}
	}
	return nil
}

func (h *XMLOutputHandler) EndDocument() error {
	if h.pending.active {
		if err := h.selfClose(); err != nil {
			return err
		}
	}
	return h.Flush()
}

func (h *XMLOutputHandler) StartElement(uri, local, qname string) error {
	if h.pending.active {
		if err := h.flushOpenTag(); err != nil {
			return err
		}
	}
	h.pending.start(uri, local, qname)
	return nil
}

func (h *XMLOutputHandler) Attribute(uri, local, qname, value string) error {
	return h.pending.addAttribute(uri, local, qname, value)
}

func (h *XMLOutputHandler) Namespace(prefix, uri string) error {
	return h.pending.addNamespace(prefix, uri)
}

func (h *XMLOutputHandler) Characters(text string) error {
	if h.pending.active {
		if err := h.flushOpenTag(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(h.w, escapeXMLText(text))
	return err
}

func (h *XMLOutputHandler) CharactersRaw(text string) error {
	if h.pending.active {
		if err := h.flushOpenTag(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(h.w, text)
	return err
}

func (h *XMLOutputHandler) Comment(text string) error {
	if h.pending.active {
		if err := h.flushOpenTag(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(h.w, "<!--%s-->", text)
	return err
}

func (h *XMLOutputHandler) ProcessingInstruction(target, data string) error {
	if h.pending.active {
		if err := h.flushOpenTag(); err != nil {
			return err
		}
	}
	if data == "" {
		_, err := fmt.Fprintf(h.w, "<?%s?>", target)
		return err
	}
	_, err := fmt.Fprintf(h.w, "<?%s %s?>", target, data)
	return err
}

func (h *XMLOutputHandler) EndElement(uri, local, qname string) error {
	if h.pending.active {
		return h.selfClose()
	}
	if len(h.open) == 0 {
		return errSerializerMisuse("endElement() with no matching open element")
	}
	top := h.open[len(h.open)-1]
	h.open = h.open[:len(h.open)-1]
	h.scope = h.scope.parent
	_, err := fmt.Fprintf(h.w, "</%s>", top.qname)
	return err
}

func (h *XMLOutputHandler) Flush() error {
	if f, ok := h.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (h *XMLOutputHandler) SetTypeAnnotation(uri, local string)   { h.typeURI, h.typeLocal = uri, local }
func (h *XMLOutputHandler) SetValidationMode(mode ValidationMode) { h.validateMode = mode }

func (h *XMLOutputHandler) AtomicValue(v Value) error {
	return h.Characters(v.AsString())
}

// flushOpenTag emits the pending element's start tag (non-empty: a
// matching EndElement will arrive later) and pushes a fresh namespace
// scope for its children.
func (h *XMLOutputHandler) flushOpenTag() error {
	qname, attrs, nsDecl := fixupNamespaces(h.scope, h.pending.uri, h.pending.local, h.pending.qname, h.pending.attrs, h.pending.nsDecl)
	if err := writeStartTag(h.w, qname, attrs, nsDecl, false); err != nil {
		return err
	}
	child := h.scope.push()
	for _, d := range nsDecl {
		child.declare(d.Prefix, d.URI)
	}
	h.scope = child
	h.open = append(h.open, openElement{qname: qname})
	h.pending.clear()
	return nil
}

// selfClose emits the pending element as a self-closing tag: nothing
// arrived between its StartElement and this EndElement (spec §8's
// testable property).
func (h *XMLOutputHandler) selfClose() error {
	qname, attrs, nsDecl := fixupNamespaces(h.scope, h.pending.uri, h.pending.local, h.pending.qname, h.pending.attrs, h.pending.nsDecl)
	h.pending.clear()
	return writeStartTag(h.w, qname, attrs, nsDecl, true)
}

func writeStartTag(w io.Writer, qname string, attrs []Attribute, nsDecl []NamespaceDecl, selfClosing bool) error {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(qname)
	for _, d := range nsDecl {
		sb.WriteByte(' ')
		if d.Prefix == "" {
			sb.WriteString("xmlns")
		} else {
			sb.WriteString("xmlns:")
			sb.WriteString(d.Prefix)
		}
		sb.WriteString(`="`)
		sb.WriteString(escapeXMLAttr(d.URI))
		sb.WriteByte('"')
	}
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.QName)
		sb.WriteString(`="`)
		sb.WriteString(escapeXMLAttr(a.Value))
		sb.WriteByte('"')
	}
	if selfClosing {
		sb.WriteString("/>")
	} else {
		sb.WriteByte('>')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func escapeXMLText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeXMLAttr(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '"':
			sb.WriteString("&quot;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
