package xslt

import "strings"

// EventKind is the closed set of recordable structural events (spec §3/§6).
type EventKind uint8

const (
	EvStartDocument EventKind = iota
	EvEndDocument
	EvStartPrefixMapping
	EvEndPrefixMapping
	EvStartElement
	EvEndElement
	EvCharacters
	EvIgnorableWhitespace
	EvProcessingInstruction
	EvSkippedEntity
	// EvComment is a lexical event (spec §6): only "comment" among the
	// lexical events is consumed. The richer of the two observed
	// buffer-handler variants is canonical (spec §9's Open Question), so
	// comments recorded here are replayed, not silently dropped.
	EvComment
)

// Event is one recorded structural event. Attribute snapshots are
// defensively copied at record time (spec §4.2).
type Event struct {
	Kind   EventKind
	URI    string
	Local  string
	QName  string
	Attrs  []Attribute
	NSDecl []NamespaceDecl
	Text   string
	Target string // processing-instruction target
	Data   string // processing-instruction data
	Prefix string // start/end prefix mapping
	NSURI  string // start prefix mapping
}

// EventBuffer records an ordered sequence of events and replays it any
// number of times once recording stops (spec §4.2).
type EventBuffer struct {
	events    []Event
	recording bool
}

// NewEventBuffer returns a buffer ready to record.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{recording: true}
}

// Record appends e. Attrs/NSDecl slices are copied so later mutation by
// the caller cannot corrupt a recorded event.
func (b *EventBuffer) Record(e Event) {
	if !b.recording {
		return
	}
	if e.Attrs != nil {
		e.Attrs = append([]Attribute(nil), e.Attrs...)
	}
	if e.NSDecl != nil {
		e.NSDecl = append([]NamespaceDecl(nil), e.NSDecl...)
	}
	b.events = append(b.events, e)
}

// StopRecording freezes the buffer; subsequent Record calls are no-ops.
func (b *EventBuffer) StopRecording() { b.recording = false }

// IsEmpty reports whether the buffer currently holds no events.
func (b *EventBuffer) IsEmpty() bool { return len(b.events) == 0 }

// Size reports the recorded event count.
func (b *EventBuffer) Size() int { return len(b.events) }

// Clear discards all recorded events and resumes recording.
func (b *EventBuffer) Clear() {
	b.events = b.events[:0]
	b.recording = true
}

// TextContent concatenates every characters/ignorable-whitespace run,
// used for a result tree fragment's string-value (spec §3).
func (b *EventBuffer) TextContent() string {
	var sb strings.Builder
	for _, e := range b.events {
		if e.Kind == EvCharacters || e.Kind == EvIgnorableWhitespace {
			sb.WriteString(e.Text)
		}
	}
	return sb.String()
}

// Replay sends every recorded event to h, in insertion order.
func (b *EventBuffer) Replay(h OutputHandler) error {
	return b.replay(h, false)
}

// ReplayContent replays every event except the outermost
// startDocument/endDocument pair.
func (b *EventBuffer) ReplayContent(h OutputHandler) error {
	return b.replay(h, true)
}

func (b *EventBuffer) replay(h OutputHandler, skipDocEvents bool) error {
	for _, e := range b.events {
		if skipDocEvents && (e.Kind == EvStartDocument || e.Kind == EvEndDocument) {
			continue
		}
		if err := replayOne(h, e); err != nil {
			return err
		}
	}
	return nil
}

func replayOne(h OutputHandler, e Event) error {
	switch e.Kind {
	case EvStartDocument:
		return h.StartDocument()
	case EvEndDocument:
		return h.EndDocument()
	case EvStartPrefixMapping:
		return h.Namespace(e.Prefix, e.NSURI)
	case EvEndPrefixMapping:
		return nil
	case EvStartElement:
		if err := h.StartElement(e.URI, e.Local, e.QName); err != nil {
			return err
		}
		for _, ns := range e.NSDecl {
			if err := h.Namespace(ns.Prefix, ns.URI); err != nil {
				return err
			}
		}
		for _, a := range e.Attrs {
			if err := h.Attribute(a.URI, a.Local, a.QName, a.Value); err != nil {
				return err
			}
		}
		return nil
	case EvEndElement:
		return h.EndElement(e.URI, e.Local, e.QName)
	case EvCharacters, EvIgnorableWhitespace:
		return h.Characters(e.Text)
	case EvProcessingInstruction:
		return h.ProcessingInstruction(e.Target, e.Data)
	case EvComment:
		return h.Comment(e.Text)
	case EvSkippedEntity:
		return nil
	default:
		return nil
	}
}
