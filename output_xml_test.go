package xslt

import (
	"strings"
	"testing"
)

func TestXMLOutputHandlerWritesDeclarationOnce(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "", "", false)
	if err := h.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if err := h.StartDocument(); err != nil {
		t.Fatalf("StartDocument (second): %v", err)
	}
	if got, want := sb.String(), `<?xml version="1.0" encoding="UTF-8"?>`; got != want {
		t.Fatalf("declaration = %q, want %q", got, want)
	}
}

func TestXMLOutputHandlerOmitsDeclaration(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	if err := h.StartDocument(); err != nil {
		t.Fatalf("StartDocument: %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("expected no declaration, got %q", sb.String())
	}
}

func TestXMLOutputHandlerSelfClosesEmptyElement(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	if err := h.StartElement("", "book", "book"); err != nil {
		t.Fatalf("StartElement: %v", err)
	}
	if err := h.Attribute("", "id", "id", "1"); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if err := h.EndElement("", "book", "book"); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	if got, want := sb.String(), `<book id="1"/>`; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestXMLOutputHandlerWritesPairedTagWithContent(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	if err := h.StartElement("", "title", "title"); err != nil {
		t.Fatalf("StartElement: %v", err)
	}
	if err := h.Characters("Go in Practice"); err != nil {
		t.Fatalf("Characters: %v", err)
	}
	if err := h.EndElement("", "title", "title"); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	if got, want := sb.String(), `<title>Go in Practice</title>`; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestXMLOutputHandlerEscapesTextAndAttributes(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	if err := h.StartElement("", "note", "note"); err != nil {
		t.Fatalf("StartElement: %v", err)
	}
	if err := h.Attribute("", "text", "text", `a "quoted" & <tagged>`); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if err := h.Characters("1 < 2 & 3 > 0"); err != nil {
		t.Fatalf("Characters: %v", err)
	}
	if err := h.EndElement("", "note", "note"); err != nil {
		t.Fatalf("EndElement: %v", err)
	}
	want := `<note text="a &quot;quoted&quot; &amp; &lt;tagged>">1 &lt; 2 &amp; 3 &gt; 0</note>`
	if got := sb.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestXMLOutputHandlerNestedElementsCloseInOrder(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	for _, name := range []string{"catalog", "book"} {
		if err := h.StartElement("", name, name); err != nil {
			t.Fatalf("StartElement(%s): %v", name, err)
		}
	}
	if err := h.Characters("x"); err != nil {
		t.Fatalf("Characters: %v", err)
	}
	for _, name := range []string{"book", "catalog"} {
		if err := h.EndElement("", name, name); err != nil {
			t.Fatalf("EndElement(%s): %v", name, err)
		}
	}
	if got, want := sb.String(), `<catalog><book>x</book></catalog>`; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestXMLOutputHandlerEndElementWithoutMatchingStartErrors(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	err := h.EndElement("", "book", "book")
	if err == nil {
		t.Fatalf("expected an error for an unmatched EndElement")
	}
}

func TestXMLOutputHandlerNamespaceFixupOnConflict(t *testing.T) {
	var sb strings.Builder
	h := NewXMLOutputHandler(&sb, "1.0", "UTF-8", true)
	if err := h.StartElement("urn:outer", "outer", "x:outer"); err != nil {
		t.Fatalf("StartElement(outer): %v", err)
	}
	if err := h.Namespace("x", "urn:outer"); err != nil {
		t.Fatalf("Namespace: %v", err)
	}
	// inner reuses prefix "x" but for a different namespace URI, and does
	// not redeclare it itself: the ambient scope's binding for "x" now
	// conflicts with what this element needs, forcing a fresh prefix.
	if err := h.StartElement("urn:inner", "inner", "x:inner"); err != nil {
		t.Fatalf("StartElement(inner): %v", err)
	}
	if err := h.EndElement("urn:inner", "inner", "x:inner"); err != nil {
		t.Fatalf("EndElement(inner): %v", err)
	}
	if err := h.EndElement("urn:outer", "outer", "x:outer"); err != nil {
		t.Fatalf("EndElement(outer): %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, `<x:outer xmlns:x="urn:outer">`) {
		t.Fatalf("expected the outer element's own prefix binding, got %q", out)
	}
	if strings.Contains(out, `<x:inner`) {
		t.Fatalf("expected the inner element's conflicting prefix to be reallocated, got %q", out)
	}
	if !strings.Contains(out, `xmlns:ns1="urn:inner"`) {
		t.Fatalf("expected a freshly allocated prefix declaring urn:inner, got %q", out)
	}
}
