package xslt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SimpleTypeKind is the closed set of primitive value spaces the
// validator understands (spec §4.9 restricts this to what a runtime
// validator needs to check, not a full XSD type system).
type SimpleTypeKind int

const (
	STString SimpleTypeKind = iota
	STInteger
	STDecimal
	STBoolean
	STToken
)

// SimpleType is a named, possibly enum-restricted value space.
type SimpleType struct {
	Name       string
	Kind       SimpleTypeKind
	EnumValues []string
}

func (t *SimpleType) validate(value string) bool {
	if len(t.EnumValues) > 0 {
		for _, v := range t.EnumValues {
			if v == value {
				return true
			}
		}
		return false
	}
	switch t.Kind {
	case STInteger:
		_, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		return err == nil
	case STDecimal:
		_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return err == nil
	case STBoolean:
		v := strings.TrimSpace(value)
		return v == "true" || v == "false" || v == "1" || v == "0"
	case STToken:
		return strings.TrimSpace(value) == value && !strings.ContainsAny(value, "\t\n\r")
	default:
		return true
	}
}

// AttributeDecl is a schema-declared attribute on some element type.
type AttributeDecl struct {
	QName    QName
	TypeName string
	Required bool
}

// ContentParticle is one step of an element's content model: either a
// single required/optional/repeatable element, or a choice among
// several element alternatives, or a wildcard (Kind "any").
type ContentParticle struct {
	Kind      string // "element", "choice", "any"
	Element   QName
	Choices   []QName
	MinOccurs int
	MaxOccurs int // -1 means unbounded
}

func (p *ContentParticle) matchesElement(q QName) bool {
	switch p.Kind {
	case "element":
		return p.Element == q
	case "choice":
		for _, c := range p.Choices {
			if c == q {
				return true
			}
		}
		return false
	case "any":
		return true
	default:
		return false
	}
}

// ElementDecl is a schema-declared element: its attributes, its content
// particles (nil for simple/empty content), and its text type when it
// has simple content.
type ElementDecl struct {
	QName      QName
	Attributes []AttributeDecl
	Content    []*ContentParticle
	SimpleType string // non-empty when this element has simple (text) content
	Mixed      bool
}

// Schema is one schema document's worth of declarations.
type Schema struct {
	Elements    map[QName]*ElementDecl
	SimpleTypes map[string]*SimpleType
}

// SchemaSet is every schema loaded for one transformation; lookups scan
// in load order, first declaration wins.
type SchemaSet struct {
	Schemas []*Schema
}

func (s *SchemaSet) findElement(q QName) (*ElementDecl, bool) {
	for _, sch := range s.Schemas {
		if e, ok := sch.Elements[q]; ok {
			return e, true
		}
	}
	return nil, false
}

func (s *SchemaSet) findSimpleType(name string) (*SimpleType, bool) {
	for _, sch := range s.Schemas {
		if t, ok := sch.SimpleTypes[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// yamlSchema mirrors the on-disk schema description (spec's Non-goal on
// XSD parsing means schemas are authored directly in this shape rather
// than compiled from .xsd source).
type yamlSchema struct {
	SimpleTypes []struct {
		Name string   `yaml:"name"`
		Kind string   `yaml:"kind"`
		Enum []string `yaml:"enum"`
	} `yaml:"simpleTypes"`
	Elements []struct {
		URI        string `yaml:"uri"`
		Local      string `yaml:"local"`
		SimpleType string `yaml:"simpleType"`
		Mixed      bool   `yaml:"mixed"`
		Attributes []struct {
			URI      string `yaml:"uri"`
			Local    string `yaml:"local"`
			Type     string `yaml:"type"`
			Required bool   `yaml:"required"`
		} `yaml:"attributes"`
		Content []struct {
			Kind    string   `yaml:"kind"`
			URI     string   `yaml:"uri"`
			Local   string   `yaml:"local"`
			Choices []string `yaml:"choices"`
			Min     int      `yaml:"min"`
			Max     int      `yaml:"max"`
		} `yaml:"content"`
	} `yaml:"elements"`
}

func simpleTypeKindFromString(s string) SimpleTypeKind {
	switch s {
	case "integer":
		return STInteger
	case "decimal":
		return STDecimal
	case "boolean":
		return STBoolean
	case "token":
		return STToken
	default:
		return STString
	}
}

// LoadSchema parses one YAML schema document from r.
func LoadSchema(r io.Reader) (*Schema, error) {
	var y yamlSchema
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&y); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	sch := &Schema{Elements: make(map[QName]*ElementDecl), SimpleTypes: make(map[string]*SimpleType)}
	for _, t := range y.SimpleTypes {
		sch.SimpleTypes[t.Name] = &SimpleType{Name: t.Name, Kind: simpleTypeKindFromString(t.Kind), EnumValues: t.Enum}
	}
	for _, e := range y.Elements {
		decl := &ElementDecl{QName: QName{URI: e.URI, Local: e.Local}, SimpleType: e.SimpleType, Mixed: e.Mixed}
		for _, a := range e.Attributes {
			decl.Attributes = append(decl.Attributes, AttributeDecl{
				QName:    QName{URI: a.URI, Local: a.Local},
				TypeName: a.Type,
				Required: a.Required,
			})
		}
		for _, c := range e.Content {
			p := &ContentParticle{Kind: c.Kind, Element: QName{URI: c.URI, Local: c.Local}, MinOccurs: c.Min, MaxOccurs: c.Max}
			if c.Max == 0 {
				p.MaxOccurs = 1
			}
			for _, alt := range c.Choices {
				p.Choices = append(p.Choices, QName{Local: alt})
			}
			decl.Content = append(decl.Content, p)
		}
		sch.Elements[decl.QName] = decl
	}
	return sch, nil
}

// contentAutomaton walks an element's content particles greedily: it
// tries to match each child element against the current particle,
// advancing once that particle's minimum occurrence is satisfied and the
// child doesn't fit, matching repeatedly while the particle allows more
// occurrences (spec §4.9's "content-model automaton").
type contentAutomaton struct {
	particles []*ContentParticle
	index     int
	occurs    int
}

func newContentAutomaton(particles []*ContentParticle) *contentAutomaton {
	return &contentAutomaton{particles: particles}
}

func (a *contentAutomaton) advance(q QName) bool {
	for a.index < len(a.particles) {
		p := a.particles[a.index]
		if p.matchesElement(q) {
			a.occurs++
			if p.MaxOccurs != -1 && a.occurs > p.MaxOccurs {
				// this occurrence overflows the current particle; if the
				// particle's minimum was already met, move on and retry
				// against the next one, else this is a genuine failure.
				if a.occurs-1 < p.MinOccurs {
					return false
				}
				a.index++
				a.occurs = 0
				continue
			}
			return true
		}
		if a.occurs < p.MinOccurs {
			return false
		}
		a.index++
		a.occurs = 0
	}
	return false
}

func (a *contentAutomaton) complete() bool {
	for i := a.index; i < len(a.particles); i++ {
		want := a.particles[i].MinOccurs
		if i == a.index {
			want -= a.occurs
		}
		if want > 0 {
			return false
		}
	}
	return true
}

// ValidationVerdict reports the outcome of one content-model step.
type ValidationVerdict int

const (
	VerdictOK ValidationVerdict = iota
	VerdictUnexpectedElement
	VerdictIncomplete
)

type validatorFrame struct {
	decl      *ElementDecl
	automaton *contentAutomaton
	mode      ValidationMode
	text      strings.Builder
	seen      map[QName]bool
}

// RuntimeValidator maintains a stack of element-validation frames as the
// transformer descends and ascends the result tree (spec §4.9).
type RuntimeValidator struct {
	schemas *SchemaSet
	stack   []*validatorFrame
	sink    ErrorSink
}

// NewRuntimeValidator builds a validator over schemas, reporting to sink.
func NewRuntimeValidator(schemas *SchemaSet, sink ErrorSink) *RuntimeValidator {
	if sink == nil {
		sink = discardErrorSink{}
	}
	return &RuntimeValidator{schemas: schemas, sink: sink}
}

// StartElement resolves uri/local's declaration under mode and pushes a
// validation frame. Strict mode with no declaration is a fatal error;
// lax mode with no declaration skips validation for this subtree;
// preserve/strip never validate.
func (v *RuntimeValidator) StartElement(uri, local string, mode ValidationMode) (typeURI, typeLocal string, err error) {
	if mode == ValidationPreserve || mode == ValidationStrip {
		v.stack = append(v.stack, &validatorFrame{mode: mode})
		return "", "", nil
	}
	decl, ok := v.schemas.findElement(QName{URI: uri, Local: local})
	if !ok {
		if mode == ValidationStrict {
			return "", "", NewEvalError(CodeStrictValidationFail, fmt.Sprintf("no declaration for element {%s}%s", uri, local))
		}
		v.stack = append(v.stack, &validatorFrame{mode: mode})
		return "", "", nil
	}
	v.stack = append(v.stack, &validatorFrame{decl: decl, automaton: newContentAutomaton(decl.Content), mode: mode})
	return uri, local, nil
}

// ValidateAttribute looks up local's declaration on the innermost
// element's complex type and checks value against its simple type.
func (v *RuntimeValidator) ValidateAttribute(uri, local, value string) (typeURI, typeLocal string, err error) {
	if len(v.stack) == 0 {
		return "", "", nil
	}
	frame := v.stack[len(v.stack)-1]
	if frame.decl == nil {
		return "", "", nil
	}
	for _, a := range frame.decl.Attributes {
		if a.QName.URI == uri && a.QName.Local == local {
			if frame.seen == nil {
				frame.seen = make(map[QName]bool)
			}
			frame.seen[a.QName] = true
			if st, ok := v.schemas.findSimpleType(a.TypeName); ok && !st.validate(value) {
				if frame.mode == ValidationStrict {
					return "", "", NewEvalError(CodeStrictValidationFail, fmt.Sprintf("attribute @%s fails type %s", local, a.TypeName))
				}
				v.sink.Report(ErrorRecord{Code: CodeStrictValidationLax, Severity: SeverityWarning, Message: fmt.Sprintf("attribute @%s fails type %s", local, a.TypeName)})
			}
			return "", a.TypeName, nil
		}
	}
	return "", "", nil
}

// AddChildElement advances the innermost frame's content automaton.
func (v *RuntimeValidator) AddChildElement(uri, local string) ValidationVerdict {
	if len(v.stack) == 0 {
		return VerdictOK
	}
	frame := v.stack[len(v.stack)-1]
	if frame.automaton == nil {
		return VerdictOK
	}
	if !frame.automaton.advance(QName{URI: uri, Local: local}) {
		return VerdictUnexpectedElement
	}
	return VerdictOK
}

// AddTextContent accumulates text for simple-content validation at
// EndElement.
func (v *RuntimeValidator) AddTextContent(text string) {
	if len(v.stack) == 0 {
		return
	}
	v.stack[len(v.stack)-1].text.WriteString(text)
}

// EndElement asks the automaton for completion, validates accumulated
// text against the simple type if applicable, pops the frame, and
// returns the element's type annotation.
func (v *RuntimeValidator) EndElement() (typeURI, typeLocal string, err error) {
	if len(v.stack) == 0 {
		return "", "", nil
	}
	frame := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	if frame.decl == nil {
		return "", "", nil
	}
	for _, a := range frame.decl.Attributes {
		if a.Required && !frame.seen[a.QName] {
			if frame.mode == ValidationStrict {
				return "", "", NewEvalError(CodeStrictValidationFail, fmt.Sprintf("missing required attribute @%s", a.QName.Local))
			}
			v.sink.Report(ErrorRecord{Code: CodeStrictValidationLax, Severity: SeverityWarning, Message: fmt.Sprintf("missing required attribute @%s", a.QName.Local)})
		}
	}
	if frame.automaton != nil && !frame.automaton.complete() {
		if frame.mode == ValidationStrict {
			return "", "", NewEvalError(CodeStrictValidationFail, fmt.Sprintf("incomplete content for element %s", frame.decl.QName))
		}
		v.sink.Report(ErrorRecord{Code: CodeStrictValidationLax, Severity: SeverityWarning, Message: "incomplete element content"})
	}
	if frame.decl.SimpleType != "" {
		if st, ok := v.schemas.findSimpleType(frame.decl.SimpleType); ok && !st.validate(frame.text.String()) {
			if frame.mode == ValidationStrict {
				return "", "", NewEvalError(CodeStrictValidationText, fmt.Sprintf("text content fails type %s", frame.decl.SimpleType))
			}
			v.sink.Report(ErrorRecord{Code: CodeStrictValidationLax, Severity: SeverityWarning, Message: "text content fails simple type"})
		}
	}
	return frame.decl.QName.URI, frame.decl.QName.Local, nil
}
