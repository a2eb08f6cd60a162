package xslt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/orisano/gosax"
)

// SourceEventSink is the contract a source producer drives (spec §6):
// startDocument; (startPrefixMapping*; startElement; children;
// endElement; endPrefixMapping*)*; endDocument, plus the parallel
// lexical event comment.
type SourceEventSink interface {
	StartDocument() error
	EndDocument() error
	StartPrefixMapping(prefix, uri string) error
	EndPrefixMapping(prefix string) error
	StartElement(uri, local, qname string, attrs []Attribute) error
	EndElement(uri, local, qname string) error
	Characters(text string) error
	Comment(text string) error
	ProcessingInstruction(target, data string) error
}

// SourceReader drives a SourceEventSink from a byte stream using a gosax
// tokenizer, the way the teacher's Parser drives its channel of
// XMLElements: one forward pass over the input, a stack for the
// currently-open elements, and hand-rolled attribute/namespace scanning
// over the tokenizer's raw attribute bytes.
type SourceReader struct {
	ctx    context.Context
	r      io.Reader
	bufCap int
}

// NewSourceReader builds a reader over r. bufCap sizes the gosax token
// buffer; 0 selects the teacher's default of 64MiB.
func NewSourceReader(ctx context.Context, r io.Reader, bufCap int) *SourceReader {
	if bufCap <= 0 {
		bufCap = 1024 * 1024 * 64
	}
	return &SourceReader{ctx: ctx, r: r, bufCap: bufCap}
}

type nsFrame struct {
	bindings map[string]string // prefix -> uri, "" key is the default namespace
}

// Run pushes the entire document through sink and returns the first
// error either the tokenizer or the sink produces.
func (p *SourceReader) Run(sink SourceEventSink) error {
	if err := sink.StartDocument(); err != nil {
		return err
	}
	r := gosax.NewReaderSize(p.r, p.bufCap)
	var nsStack []nsFrame
	var declStack [][]NamespaceDecl

	for {
		if p.ctx != nil && p.ctx.Err() != nil {
			return p.ctx.Err()
		}
		e, err := r.Event()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("source event stream: %w", err)
		}
		switch e.Type() {
		case gosax.EventEOF:
			return sink.EndDocument()

		case gosax.EventStart:
			name, rawAttrs := gosax.Name(e.Bytes)
			nameStr := string(name)
			prefix, local, hasPrefix := splitQName(nameStr)

			decls := scanNamespaceDecls(rawAttrs)
			frame := nsFrame{bindings: make(map[string]string, len(decls))}
			if len(nsStack) > 0 {
				for k, v := range nsStack[len(nsStack)-1].bindings {
					frame.bindings[k] = v
				}
			}
			for _, d := range decls {
				frame.bindings[d.Prefix] = d.URI
				if err := sink.StartPrefixMapping(d.Prefix, d.URI); err != nil {
					return err
				}
			}
			nsStack = append(nsStack, frame)
			declStack = append(declStack, decls)

			uri := ""
			if hasPrefix {
				uri = frame.bindings[prefix]
			} else {
				uri = frame.bindings[""]
			}

			attrs := scanAttributes(rawAttrs, frame.bindings)
			if err := sink.StartElement(uri, local, nameStr, attrs); err != nil {
				return err
			}

			if isSelfClosing(e.Bytes) {
				if err := sink.EndElement(uri, local, nameStr); err != nil {
					return err
				}
				for _, d := range decls {
					if err := sink.EndPrefixMapping(d.Prefix); err != nil {
						return err
					}
				}
				nsStack = nsStack[:len(nsStack)-1]
				declStack = declStack[:len(declStack)-1]
			}

		case gosax.EventEnd:
			name, _ := gosax.Name(e.Bytes)
			nameStr := string(name)
			prefix, local, hasPrefix := splitQName(nameStr)
			var uri string
			if len(nsStack) > 0 {
				frame := nsStack[len(nsStack)-1]
				if hasPrefix {
					uri = frame.bindings[prefix]
				} else {
					uri = frame.bindings[""]
				}
			}
			if err := sink.EndElement(uri, local, nameStr); err != nil {
				return err
			}
			if len(declStack) > 0 {
				for _, d := range declStack[len(declStack)-1] {
					if err := sink.EndPrefixMapping(d.Prefix); err != nil {
						return err
					}
				}
				declStack = declStack[:len(declStack)-1]
			}
			if len(nsStack) > 0 {
				nsStack = nsStack[:len(nsStack)-1]
			}

		case gosax.EventText:
			if len(e.Bytes) > 0 {
				if err := sink.Characters(string(e.Bytes)); err != nil {
					return err
				}
			}

		case gosax.EventCData:
			content := stripDelims(e.Bytes, "<![CDATA[", "]]>")
			if len(content) > 0 {
				if err := sink.Characters(string(content)); err != nil {
					return err
				}
			}

		case gosax.EventComment:
			content := stripDelims(e.Bytes, "<!--", "-->")
			if err := sink.Comment(string(content)); err != nil {
				return err
			}
		}
	}
	return sink.EndDocument()
}

func isSelfClosing(tag []byte) bool {
	return len(tag) >= 2 && tag[len(tag)-2] == '/' && tag[len(tag)-1] == '>'
}

func stripDelims(b []byte, open, close string) []byte {
	if len(b) < len(open)+len(close) {
		return nil
	}
	return b[len(open) : len(b)-len(close)]
}

// scanNamespaceDecls extracts xmlns / xmlns:prefix declarations from a
// raw attribute byte span, mirroring the teacher's extractNamespaces but
// returning structured NamespaceDecl values instead of a map, since the
// sink needs ordered startPrefixMapping calls.
func scanNamespaceDecls(raw []byte) []NamespaceDecl {
	var decls []NamespaceDecl
	forEachAttr(raw, func(name, value []byte) {
		n := string(name)
		switch {
		case n == "xmlns":
			decls = append(decls, NamespaceDecl{Prefix: "", URI: string(value)})
		case bytes.HasPrefix(name, []byte("xmlns:")):
			decls = append(decls, NamespaceDecl{Prefix: n[len("xmlns:"):], URI: string(value)})
		}
	})
	return decls
}

// scanAttributes extracts ordinary (non-namespace-declaration)
// attributes, resolving each one's namespace URI against bindings.
func scanAttributes(raw []byte, bindings map[string]string) []Attribute {
	var attrs []Attribute
	forEachAttr(raw, func(name, value []byte) {
		n := string(name)
		if n == "xmlns" || bytes.HasPrefix(name, []byte("xmlns:")) {
			return
		}
		prefix, local, hasPrefix := splitQName(n)
		uri := ""
		if hasPrefix {
			uri = bindings[prefix]
		}
		attrs = append(attrs, Attribute{URI: uri, Local: local, QName: n, Value: string(value)})
	})
	return attrs
}

// forEachAttr is a byte-level attribute scanner in the same style as the
// teacher's parseAttributes: skip whitespace, read a name up to '=', skip
// the quote, read the value up to the matching quote.
func forEachAttr(raw []byte, fn func(name, value []byte)) {
	i := 0
	for i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			return
		}
		nameStart := i
		for i < len(raw) && raw[i] != '=' {
			i++
		}
		if i >= len(raw) {
			return
		}
		name := bytes.TrimSpace(raw[nameStart:i])
		i++ // skip '='
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || (raw[i] != '"' && raw[i] != '\'') {
			continue
		}
		quote := raw[i]
		i++
		valStart := i
		for i < len(raw) && raw[i] != quote {
			i++
		}
		value := raw[valStart:i]
		if i < len(raw) {
			i++ // skip closing quote
		}
		if len(name) > 0 {
			fn(name, unescapeEntities(value))
		}
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// unescapeEntities resolves the five predefined XML entities in an
// attribute value. Numeric character references and DTD-defined general
// entities are out of scope for the streaming fast path.
func unescapeEntities(b []byte) []byte {
	if !bytes.ContainsRune(b, '&') {
		return b
	}
	s := string(b)
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&apos;", "'")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return []byte(s)
}
