package xslt

import "testing"

func TestTreeBuilderBuildsNestedElementsWithAttributesAndText(t *testing.T) {
	b := NewTreeBuilder(false)
	b.StartDocument()
	b.StartElement("", "catalog", "catalog")
	b.StartElement("", "book", "book")
	b.Attribute("", "id", "id", "1")
	b.Characters("Go in Action")
	b.EndElement("", "book", "book")
	b.EndElement("", "catalog", "catalog")
	b.EndDocument()

	root := b.Root()
	catalog := root.Children()[0]
	if catalog.LocalName() != "catalog" {
		t.Fatalf("expected catalog, got %q", catalog.LocalName())
	}
	book := catalog.Children()[0]
	if book.LocalName() != "book" || book.StringValue() != "Go in Action" {
		t.Fatalf("unexpected book node: local=%q value=%q", book.LocalName(), book.StringValue())
	}
	attrs := book.AttributeNodes()
	if len(attrs) != 1 || attrs[0].LocalName() != "id" || attrs[0].StringValue() != "1" {
		t.Fatalf("unexpected attribute nodes: %#v", attrs)
	}
	if !root.FullyNavigable() {
		t.Fatalf("expected a non-streaming builder's root to be fully navigable immediately")
	}
}

func TestTreeBuilderNamespaceScopeAppliesToElementAndAttributes(t *testing.T) {
	b := NewTreeBuilder(false)
	b.StartElement("urn:x", "root", "x:root")
	b.Namespace("x", "urn:x")
	b.StartElement("urn:x", "item", "x:item")
	b.EndElement("urn:x", "item", "x:item")
	b.EndElement("urn:x", "root", "x:root")

	root := b.Root().Children()[0]
	if root.NamespaceURI() != "urn:x" {
		t.Fatalf("expected root element namespace urn:x, got %q", root.NamespaceURI())
	}
	item := root.Children()[0]
	if item.NamespaceURI() != "urn:x" {
		t.Fatalf("expected item to inherit namespace urn:x, got %q", item.NamespaceURI())
	}
}

func TestTreeBuilderEndElementWithoutMatchingStartErrors(t *testing.T) {
	b := NewTreeBuilder(false)
	if err := b.EndElement("", "book", "book"); err == nil {
		t.Fatalf("expected an error ending an element with nothing open")
	}
}

func TestTreeBuilderSetTypeAnnotationOnCurrentElement(t *testing.T) {
	b := NewTreeBuilder(false)
	b.StartElement("", "price", "price")
	b.StartElement("", "amount", "amount")
	// price is flushed onto the stack now that amount has started; its
	// type annotation can be set while amount is still pending.
	b.SetTypeAnnotation("urn:types", "decimal")
	b.EndElement("", "amount", "amount")
	b.EndElement("", "price", "price")
	uri, local, ok := b.Root().Children()[0].TypeAnnotation()
	if !ok || uri != "urn:types" || local != "decimal" {
		t.Fatalf("expected the type annotation to be recorded, got (%q, %q, %v)", uri, local, ok)
	}
}

func TestBuildTreeFromBufferReplaysRecordedEventsIntoATree(t *testing.T) {
	buf := NewEventBuffer()
	h := NewBufferOutputHandler(buf)
	h.StartElement("", "book", "book")
	h.Attribute("", "genre", "genre", "fiction")
	h.Characters("Title")
	h.EndElement("", "book", "book")

	root, err := BuildTreeFromBuffer(buf)
	if err != nil {
		t.Fatalf("BuildTreeFromBuffer: %v", err)
	}
	book := root.Children()[0]
	if book.LocalName() != "book" || book.StringValue() != "Title" {
		t.Fatalf("unexpected grounded tree: local=%q value=%q", book.LocalName(), book.StringValue())
	}
	if !root.FullyNavigable() {
		t.Fatalf("expected a grounded tree to be fully navigable")
	}
}
