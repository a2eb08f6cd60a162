package xslt

import "fmt"

// Attribute is a defensively-copied attribute snapshot, shared by the
// event buffer and every output handler (spec §4.5/§6).
type Attribute struct {
	URI   string
	Local string
	QName string
	Value string
}

// NamespaceDecl is a prefix→URI binding pending emission on an element.
type NamespaceDecl struct {
	Prefix string
	URI    string
}

// ValidationMode mirrors the configuration option of the same name
// (spec §6): strict, lax, preserve or strip.
type ValidationMode int

const (
	ValidationStrip ValidationMode = iota
	ValidationPreserve
	ValidationLax
	ValidationStrict
)

// OutputHandler is the uniform contract every serializer implements
// (spec §4.5). The deferred-start-tag invariant is part of the contract:
// after StartElement, callers may send any number of Attribute/Namespace
// calls; the pending element is flushed on the next call that is neither,
// or on EndElement.
type OutputHandler interface {
	StartDocument() error
	EndDocument() error
	StartElement(uri, local, qname string) error
	EndElement(uri, local, qname string) error
	Attribute(uri, local, qname, value string) error
	Namespace(prefix, uri string) error
	Characters(text string) error
	CharactersRaw(text string) error
	Comment(text string) error
	ProcessingInstruction(target, data string) error
	Flush() error

	// SetTypeAnnotation records the schema type of the element currently
	// pending, if any handler cares (most don't and no-op it).
	SetTypeAnnotation(uri, local string)
	// SetValidationMode configures output-side validation awareness.
	SetValidationMode(mode ValidationMode)
	// AtomicValue emits a typed atomic value as character content; text
	// serializers use this to apply atomic-value spacing (spec §4.5).
	AtomicValue(v Value) error
}

// errSerializerMisuse reports an illegal call sequence on a handler
// (spec §7 kind 8), e.g. Attribute() called outside a pending element.
func errSerializerMisuse(what string) error {
	return NewEvalError(CodeSerializerMisuse, "serializer misuse: "+what)
}

// pendingElement implements the deferred-start-tag bookkeeping shared by
// the XML, HTML and buffer output handlers (spec §4.5): a started element
// accumulates attributes and namespaces until something else arrives.
type pendingElement struct {
	active bool
	uri    string
	local  string
	qname  string
	attrs  []Attribute
	nsDecl []NamespaceDecl
}

func (p *pendingElement) start(uri, local, qname string) {
	p.active = true
	p.uri, p.local, p.qname = uri, local, qname
	p.attrs = p.attrs[:0]
	p.nsDecl = p.nsDecl[:0]
}

// addAttribute records an attribute on the pending element. A duplicate
// (matched by namespace URI + local name) replaces the prior value in
// place, keeping its original position (spec §4.5).
func (p *pendingElement) addAttribute(uri, local, qname, value string) error {
	if !p.active {
		return errSerializerMisuse("attribute() outside a pending element")
	}
	for i := range p.attrs {
		if p.attrs[i].URI == uri && p.attrs[i].Local == local {
			p.attrs[i].QName = qname
			p.attrs[i].Value = value
			return nil
		}
	}
	p.attrs = append(p.attrs, Attribute{URI: uri, Local: local, QName: qname, Value: value})
	return nil
}

func (p *pendingElement) addNamespace(prefix, uri string) error {
	if !p.active {
		return errSerializerMisuse("namespace() outside a pending element")
	}
	for i := range p.nsDecl {
		if p.nsDecl[i].Prefix == prefix {
			p.nsDecl[i].URI = uri
			return nil
		}
	}
	p.nsDecl = append(p.nsDecl, NamespaceDecl{Prefix: prefix, URI: uri})
	return nil
}

// clear resets pending state once flushed.
func (p *pendingElement) clear() { p.active = false }

// namespaceScope is a stack of prefix→URI bindings used to avoid
// redundant declarations and to allocate fresh prefixes on conflict
// (spec §4.5's namespace fixup, §8's testable property).
type namespaceScope struct {
	parent   *namespaceScope
	bindings map[string]string
	counter  *int
}

func newNamespaceScopeRoot() *namespaceScope {
	return &namespaceScope{bindings: make(map[string]string), counter: new(int)}
}

func (s *namespaceScope) push() *namespaceScope {
	return &namespaceScope{parent: s, bindings: make(map[string]string), counter: s.counter}
}

func (s *namespaceScope) lookup(prefix string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if uri, ok := cur.bindings[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

func (s *namespaceScope) declare(prefix, uri string) { s.bindings[prefix] = uri }

func (s *namespaceScope) allocPrefix() string {
	*s.counter++
	return fmt.Sprintf("ns%d", *s.counter)
}

// fixupNamespaces implements spec §4.5's namespace fixup rule: if the
// element's own prefix is already bound (in scope, or among the
// namespaces about to be declared on this element) to a different URI
// than the element needs, a fresh prefix is allocated and substituted
// into the element's and every matching attribute's qualified name. If
// the element's prefix is simply undeclared, a declaration is added so
// that re-parsing the output always finds every qualified name's prefix
// declared in the enclosing scope (spec §8's testable property).
func fixupNamespaces(scope *namespaceScope, uri, local, qname string, attrs []Attribute, nsDecl []NamespaceDecl) (string, []Attribute, []NamespaceDecl) {
	prefix, _, _ := splitQName(qname)
	if prefix == "" && uri == "" {
		return qname, attrs, nsDecl
	}

	declared, foundPending := "", false
	for _, d := range nsDecl {
		if d.Prefix == prefix {
			declared, foundPending = d.URI, true
			break
		}
	}
	if !foundPending {
		if u, ok := scope.lookup(prefix); ok {
			declared, foundPending = u, true
		}
	}

	switch {
	case foundPending && declared == uri:
		return qname, attrs, nsDecl
	case foundPending && declared != uri:
		newPrefix := scope.allocPrefix()
		newQName := newPrefix + ":" + local
		newAttrs := make([]Attribute, len(attrs))
		copy(newAttrs, attrs)
		for i := range newAttrs {
			p, l, _ := splitQName(newAttrs[i].QName)
			if p == prefix {
				newAttrs[i].QName = newPrefix + ":" + l
			}
		}
		newDecl := append(append([]NamespaceDecl{}, nsDecl...), NamespaceDecl{Prefix: newPrefix, URI: uri})
		return newQName, newAttrs, newDecl
	default:
		// prefix not declared anywhere in scope: declare it now.
		newDecl := append(append([]NamespaceDecl{}, nsDecl...), NamespaceDecl{Prefix: prefix, URI: uri})
		return qname, attrs, newDecl
	}
}

func splitQName(qname string) (prefix, local string, hasPrefix bool) {
	for i := 0; i < len(qname); i++ {
		if qname[i] == ':' {
			return qname[:i], qname[i+1:], true
		}
	}
	return "", qname, false
}
