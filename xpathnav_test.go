package xslt

import (
	"testing"

	"github.com/wilkmaciej/xpath"
)

func mustCompile(t *testing.T, pattern string) *xpath.Expr {
	t.Helper()
	expr, err := CompilePattern(pattern)
	if err != nil {
		t.Fatalf("CompilePattern(%q): %v", pattern, err)
	}
	return expr
}

func buildCatalogTree(t *testing.T) Node {
	t.Helper()
	return parseIntoTree(t, `<catalog>
		<book id="1" genre="fiction"><title>Go in Practice</title><price>29.99</price></book>
		<book id="2" genre="reference"><title>The Go Spec</title><price>0</price></book>
	</catalog>`)
}

func TestEvalNodeSetSelectsChildren(t *testing.T) {
	root := buildCatalogTree(t)
	catalog := root.Children()[0]
	expr, err := CompilePattern("book")
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	got := EvalNodeSet(expr, catalog)
	if len(got) != 2 {
		t.Fatalf("expected 2 books, got %d", len(got))
	}
}

func TestEvalNodeSetPredicateFiltersByAttribute(t *testing.T) {
	root := buildCatalogTree(t)
	catalog := root.Children()[0]
	expr, err := CompilePattern(`book[@genre="reference"]`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	got := EvalNodeSet(expr, catalog)
	if len(got) != 1 {
		t.Fatalf("expected 1 book, got %d", len(got))
	}
	if got := got[0].AttributeNodes()[0].StringValue(); got != "2" {
		t.Fatalf("matched wrong book, id = %q", got)
	}
}

func TestEvalStringReturnsTitleText(t *testing.T) {
	root := buildCatalogTree(t)
	catalog := root.Children()[0]
	firstBook := EvalNodeSet(mustCompile(t, "book"), catalog)[0]
	expr := mustCompile(t, "title")
	if got, want := EvalString(expr, firstBook), "Go in Practice"; got != want {
		t.Fatalf("EvalString() = %q, want %q", got, want)
	}
}

func TestEvalBooleanOnPredicateExpression(t *testing.T) {
	root := buildCatalogTree(t)
	catalog := root.Children()[0]
	book := EvalNodeSet(mustCompile(t, "book"), catalog)[0]
	if !EvalBoolean(mustCompile(t, `@genre="fiction"`), book) {
		t.Fatalf("expected genre=fiction to evaluate true")
	}
	if EvalBoolean(mustCompile(t, `@genre="reference"`), book) {
		t.Fatalf("expected genre=reference to evaluate false for the first book")
	}
}

func TestMatcherAncestorWalkAgainstPattern(t *testing.T) {
	root := buildCatalogTree(t)
	catalog := root.Children()[0]
	title := EvalNodeSet(mustCompile(t, "book"), catalog)[0].Children()[0]

	pattern := mustCompile(t, "catalog/book/title")
	if !matches(pattern, title) {
		t.Fatalf("expected pattern to match a title node via ancestor walk")
	}
	price := EvalNodeSet(mustCompile(t, "book"), catalog)[0].Children()[1]
	if matches(pattern, price) {
		t.Fatalf("pattern for title should not match a price node")
	}
}
