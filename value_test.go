package xslt

import (
	"math"
	"testing"
	"time"
)

func TestValueAsString(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"true", BooleanValue(true), "true"},
		{"false", BooleanValue(false), "false"},
		{"integer", NumberValue(42), "42"},
		{"fractional", NumberValue(3.5), "3.5"},
		{"string", StringValue("hi"), "hi"},
		{"empty sequence", EmptySequence, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.AsString(); got != c.want {
				t.Errorf("AsString() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestValueAsStringNodeSet(t *testing.T) {
	root := buildSampleTree()
	book := root.Children()[0]
	title := book.Children()[0]
	v := NodeSetValue([]Node{title})
	if got, want := v.AsString(), "Go in Practice"; got != want {
		t.Fatalf("AsString() = %q, want %q", got, want)
	}
	if got := NodeSetValue(nil).AsString(); got != "" {
		t.Fatalf("empty node-set AsString() = %q, want empty", got)
	}
}

func TestValueAsNumber(t *testing.T) {
	if got := StringValue("  12.5 ").AsNumber(); got != 12.5 {
		t.Fatalf("AsNumber() = %v, want 12.5", got)
	}
	if got := BooleanValue(true).AsNumber(); got != 1 {
		t.Fatalf("true.AsNumber() = %v, want 1", got)
	}
	if got := StringValue("not a number").AsNumber(); !math.IsNaN(got) {
		t.Fatalf("AsNumber() on garbage = %v, want NaN", got)
	}
}

func TestValueAsBoolean(t *testing.T) {
	if StringValue("").AsBoolean() {
		t.Fatalf("empty string should be false")
	}
	if !StringValue("x").AsBoolean() {
		t.Fatalf("non-empty string should be true")
	}
	if NumberValue(0).AsBoolean() {
		t.Fatalf("zero should be false")
	}
	if !NodeSetValue([]Node{buildSampleTree()}).AsBoolean() {
		t.Fatalf("non-empty node-set should be true")
	}
}

func TestTypedAtomicValueDelegates(t *testing.T) {
	v := TypedAtomicValue("urn:example", "amount", NumberValue(7))
	if got := v.AsString(); got != "7" {
		t.Fatalf("AsString() = %q, want 7", got)
	}
	if got := v.AsNumber(); got != 7 {
		t.Fatalf("AsNumber() = %v, want 7", got)
	}
}

func TestDateTimeValueFormatsRFC3339(t *testing.T) {
	when := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	v := DateTimeValue(when)
	if got, want := v.AsString(), "2026-07-31T12:00:00Z"; got != want {
		t.Fatalf("AsString() = %q, want %q", got, want)
	}
}

func TestNodeSetFirstString(t *testing.T) {
	root := buildSampleTree()
	book := root.Children()[0]
	title := book.Children()[0]
	if got := NodeSetFirstString([]Node{title, book}); got != "Go in Practice" {
		t.Fatalf("NodeSetFirstString() = %q, want %q", got, "Go in Practice")
	}
	if got := NodeSetFirstString(nil); got != "" {
		t.Fatalf("NodeSetFirstString(nil) = %q, want empty", got)
	}
}

func TestFragmentValueTextContent(t *testing.T) {
	buf := NewEventBuffer()
	buf.Record(Event{Kind: EvCharacters, Text: "hello "})
	buf.Record(Event{Kind: EvCharacters, Text: "world"})
	v := FragmentValue(buf)
	if got, want := v.AsString(), "hello world"; got != want {
		t.Fatalf("AsString() = %q, want %q", got, want)
	}
}
