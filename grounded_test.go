package xslt

import "testing"

func TestGroundedExecutorRecordsOnlyWhileActive(t *testing.T) {
	g := NewGroundedExecutor()
	g.Record(Event{Kind: EvStartDocument})
	if g.Active() {
		t.Fatalf("expected no active region before Enter")
	}

	g.Enter()
	if !g.Active() {
		t.Fatalf("expected an active region after Enter")
	}
	g.Record(Event{Kind: EvStartDocument})
	g.Record(Event{Kind: EvStartElement, Local: "book"})
	g.Record(Event{Kind: EvCharacters, Text: "Go"})
	g.Record(Event{Kind: EvEndElement, Local: "book"})
	g.Record(Event{Kind: EvEndDocument})

	if !g.Exit() {
		t.Fatalf("expected the outermost Exit to report completion")
	}
	root, err := g.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	book := root.Children()[0]
	if book.LocalName() != "book" || book.StringValue() != "Go" {
		t.Fatalf("unexpected grounded tree: %#v", book)
	}
}

func TestGroundedExecutorNestedRegionsShareOneBuffer(t *testing.T) {
	g := NewGroundedExecutor()
	g.Enter()
	g.Record(Event{Kind: EvStartDocument})
	g.Record(Event{Kind: EvStartElement, Local: "outer"})

	g.Enter()
	if g.Exit() {
		t.Fatalf("an inner Exit should not report completion while an outer Enter is still open")
	}

	g.Record(Event{Kind: EvEndElement, Local: "outer"})
	g.Record(Event{Kind: EvEndDocument})

	if !g.Exit() {
		t.Fatalf("expected the outermost Exit to report completion")
	}
	root, err := g.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root.Children()[0].LocalName() != "outer" {
		t.Fatalf("unexpected grounded tree: %#v", root)
	}
}

func TestGroundedExecutorExitWithoutEnterIsANoOp(t *testing.T) {
	g := NewGroundedExecutor()
	if g.Exit() {
		t.Fatalf("Exit without a matching Enter should not report completion")
	}
}
