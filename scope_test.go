package xslt

import "testing"

func TestVariableScopeLookupWalksFramesInward(t *testing.T) {
	root := NewGlobalScope()
	root.Bind(QName{Local: "x"}, StringValue("global"))

	child := root.Push()
	child.Bind(QName{Local: "y"}, StringValue("local"))

	if v, ok := child.Lookup(QName{Local: "x"}); !ok || v.AsString() != "global" {
		t.Fatalf("expected child scope to see global binding, got %#v ok=%v", v, ok)
	}
	if v, ok := child.Lookup(QName{Local: "y"}); !ok || v.AsString() != "local" {
		t.Fatalf("expected child scope to see its own binding, got %#v ok=%v", v, ok)
	}
	if _, ok := root.Lookup(QName{Local: "y"}); ok {
		t.Fatalf("parent scope must not see child's binding")
	}
}

func TestVariableScopePushIsolatesSiblings(t *testing.T) {
	root := NewGlobalScope()
	a := root.Push()
	b := root.Push()
	a.Bind(QName{Local: "v"}, StringValue("a"))
	b.Bind(QName{Local: "v"}, StringValue("b"))

	if v, _ := a.Lookup(QName{Local: "v"}); v.AsString() != "a" {
		t.Fatalf("scope a sees %q, want a", v.AsString())
	}
	if v, _ := b.Lookup(QName{Local: "v"}); v.AsString() != "b" {
		t.Fatalf("scope b sees %q, want b", v.AsString())
	}
}

func TestVariableScopeShadowing(t *testing.T) {
	root := NewGlobalScope()
	root.Bind(QName{Local: "x"}, StringValue("outer"))
	child := root.Push()
	child.Bind(QName{Local: "x"}, StringValue("inner"))

	if v, _ := child.Lookup(QName{Local: "x"}); v.AsString() != "inner" {
		t.Fatalf("inner binding should shadow outer, got %q", v.AsString())
	}
	if v, _ := root.Lookup(QName{Local: "x"}); v.AsString() != "outer" {
		t.Fatalf("outer scope should be unaffected by shadowing, got %q", v.AsString())
	}
}

func TestVariableScopeGlobalOnlyDropsLocalFrames(t *testing.T) {
	root := NewGlobalScope()
	root.Bind(QName{Local: "g"}, StringValue("global"))
	child := root.Push()
	child.Bind(QName{Local: "l"}, StringValue("local"))

	g := child.GlobalOnly()
	if g.Depth() != 1 {
		t.Fatalf("GlobalOnly() depth = %d, want 1", g.Depth())
	}
	if _, ok := g.Lookup(QName{Local: "l"}); ok {
		t.Fatalf("GlobalOnly() scope must not see local frame bindings")
	}
	if v, ok := g.Lookup(QName{Local: "g"}); !ok || v.AsString() != "global" {
		t.Fatalf("GlobalOnly() scope should still see the root frame")
	}
}
