package xslt

import (
	"fmt"
	"io"
	"strings"
)

var htmlVoidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "link": true,
	"meta": true, "col": true, "area": true, "base": true, "embed": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var htmlBooleanAttrs = map[string]bool{
	"checked": true, "selected": true, "disabled": true, "readonly": true,
	"multiple": true, "ismap": true, "defer": true, "declare": true,
	"noresize": true, "nowrap": true, "noshade": true, "compact": true,
	"autofocus": true, "required": true, "autoplay": true, "controls": true,
	"loop": true, "default": true, "hidden": true, "open": true,
	"reversed": true, "formnovalidate": true, "novalidate": true,
	"itemscope": true, "async": true,
}

var htmlRawTextElements = map[string]bool{"script": true, "style": true}

type htmlOpen struct {
	local  string
	qname  string
	isHead bool
	isRaw  bool
}

type headTracker struct {
	charsetInserted bool
}

// HTMLOutputHandler is the HTML serializer (spec §4.5): no XML
// declaration, void elements never get an end tag, boolean attributes
// collapse to their bare name, script/style content is left unescaped,
// and a meta charset element is inserted into <head> if none was
// written explicitly.
type HTMLOutputHandler struct {
	w        io.Writer
	pending  pendingElement
	scope    *namespaceScope
	open     []htmlOpen
	heads    []*headTracker
	encoding string
}

// NewHTMLOutputHandler builds an HTML serializer writing to w.
func NewHTMLOutputHandler(w io.Writer, encoding string) *HTMLOutputHandler {
	if encoding == "" {
		encoding = "UTF-8"
	}
	return &HTMLOutputHandler{w: w, scope: newNamespaceScopeRoot(), encoding: encoding}
}

func (h *HTMLOutputHandler) StartDocument() error { return nil }

func (h *HTMLOutputHandler) EndDocument() error {
	if h.pending.active {
		if err := h.flushEmptyAware(true); err != nil {
			return err
		}
	}
	return h.Flush()
}

func (h *HTMLOutputHandler) StartElement(uri, local, qname string) error {
	if h.pending.active {
		if err := h.flushEmptyAware(false); err != nil {
			return err
		}
	}
	h.pending.start(uri, local, qname)
	return nil
}

func (h *HTMLOutputHandler) Attribute(uri, local, qname, value string) error {
	return h.pending.addAttribute(uri, local, qname, value)
}

func (h *HTMLOutputHandler) Namespace(prefix, uri string) error {
	return h.pending.addNamespace(prefix, uri)
}

func (h *HTMLOutputHandler) inRawText() bool {
	return len(h.open) > 0 && h.open[len(h.open)-1].isRaw
}

func (h *HTMLOutputHandler) Characters(text string) error {
	if h.pending.active {
		if err := h.flushEmptyAware(false); err != nil {
			return err
		}
	}
	if h.inRawText() {
		_, err := io.WriteString(h.w, text)
		return err
	}
	_, err := io.WriteString(h.w, escapeXMLText(text))
	return err
}

func (h *HTMLOutputHandler) CharactersRaw(text string) error {
	if h.pending.active {
		if err := h.flushEmptyAware(false); err != nil {
			return err
		}
	}
	_, err := io.WriteString(h.w, text)
	return err
}

func (h *HTMLOutputHandler) Comment(text string) error {
	if h.pending.active {
		if err := h.flushEmptyAware(false); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(h.w, "<!--%s-->", text)
	return err
}

func (h *HTMLOutputHandler) ProcessingInstruction(target, data string) error {
	if h.pending.active {
		if err := h.flushEmptyAware(false); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(h.w, "<?%s %s>", target, data)
	return err
}

func (h *HTMLOutputHandler) EndElement(uri, local, qname string) error {
	if h.pending.active {
		return h.flushEmptyAware(true)
	}
	if len(h.open) == 0 {
		return errSerializerMisuse("endElement() with no matching open element")
	}
	top := h.open[len(h.open)-1]
	h.open = h.open[:len(h.open)-1]
	h.scope = h.scope.parent
	if top.isHead {
		tracker := h.heads[len(h.heads)-1]
		h.heads = h.heads[:len(h.heads)-1]
		if !tracker.charsetInserted {
			if _, err := fmt.Fprintf(h.w, `<meta charset="%s">`, h.encoding); err != nil {
				return err
			}
		}
	}
	if htmlVoidElements[strings.ToLower(top.local)] {
		return nil
	}
	_, err := fmt.Fprintf(h.w, "</%s>", top.qname)
	return err
}

func (h *HTMLOutputHandler) Flush() error {
	if f, ok := h.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (h *HTMLOutputHandler) SetTypeAnnotation(string, string)      {}
func (h *HTMLOutputHandler) SetValidationMode(mode ValidationMode) {}
func (h *HTMLOutputHandler) AtomicValue(v Value) error             { return h.Characters(v.AsString()) }

// flushEmptyAware flushes the pending element. atEnd reports whether this
// flush was triggered by EndElement (i.e. the element has no content):
// void elements never get an end tag regardless, non-void HTML elements
// still always get one (HTML has no self-closing shorthand).
func (h *HTMLOutputHandler) flushEmptyAware(atEnd bool) error {
	local := strings.ToLower(h.pending.local)
	isVoid := htmlVoidElements[local]
	isHead := local == "head"
	isRaw := htmlRawTextElements[local]

	qname, attrs, nsDecl := fixupNamespaces(h.scope, h.pending.uri, h.pending.local, h.pending.qname, h.pending.attrs, h.pending.nsDecl)
	if err := writeHTMLStartTag(h.w, qname, attrs, nsDecl); err != nil {
		return err
	}
	h.pending.clear()

	if len(h.heads) > 0 && local == "meta" {
		for _, a := range attrs {
			if strings.EqualFold(a.Local, "charset") {
				h.heads[len(h.heads)-1].charsetInserted = true
			}
		}
	}
	if isVoid {
		return nil
	}
	if atEnd {
		if isHead {
			if _, err := fmt.Fprintf(h.w, `<meta charset="%s">`, h.encoding); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(h.w, "</%s>", qname)
		return err
	}

	child := h.scope.push()
	for _, d := range nsDecl {
		child.declare(d.Prefix, d.URI)
	}
	h.scope = child
	h.open = append(h.open, htmlOpen{local: local, qname: qname, isHead: isHead, isRaw: isRaw})
	if isHead {
		h.heads = append(h.heads, &headTracker{})
	}
	return nil
}

func writeHTMLStartTag(w io.Writer, qname string, attrs []Attribute, nsDecl []NamespaceDecl) error {
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
		name := strings.ToLower(a.Local)
		if htmlBooleanAttrs[name] && (a.Value == "" || strings.EqualFold(a.Value, a.QName)) {
			sb.WriteByte(' ')
			sb.WriteString(a.QName)
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(a.QName)
		sb.WriteString(`="`)
		sb.WriteString(escapeXMLAttr(a.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	_, err := io.WriteString(w, sb.String())
	return err
}
