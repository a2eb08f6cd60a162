package xslt

import "testing"

func TestMultiOutputHandlerEmptyHrefReturnsPrincipal(t *testing.T) {
	principal := NewBufferOutputHandler(NewEventBuffer())
	m := NewMultiOutputHandler(principal, func(href string) (OutputHandler, error) {
		t.Fatalf("open should not be called for the principal destination")
		return nil, nil
	})
	h, err := m.Claim("")
	if err != nil {
		t.Fatalf("Claim(\"\"): %v", err)
	}
	if h != principal {
		t.Fatalf("expected Claim(\"\") to return the principal handler")
	}
}

func TestMultiOutputHandlerClaimsEachHrefOnce(t *testing.T) {
	opened := 0
	m := NewMultiOutputHandler(NewBufferOutputHandler(NewEventBuffer()), func(href string) (OutputHandler, error) {
		opened++
		return NewBufferOutputHandler(NewEventBuffer()), nil
	})

	first, err := m.Claim("report.xml")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if first == nil {
		t.Fatalf("expected a non-nil handler for a fresh href")
	}
	if opened != 1 {
		t.Fatalf("expected exactly 1 open, got %d", opened)
	}

	_, err = m.Claim("report.xml")
	if err == nil {
		t.Fatalf("expected a second Claim of the same href to fail")
	}
	evalErr, ok := err.(*EvalError)
	if !ok || evalErr.Record.Code != CodeClaimedOutput {
		t.Fatalf("unexpected error: %#v", err)
	}
}

func TestMultiOutputHandlerDistinctHrefsGetDistinctHandlers(t *testing.T) {
	m := NewMultiOutputHandler(NewBufferOutputHandler(NewEventBuffer()), func(href string) (OutputHandler, error) {
		return NewBufferOutputHandler(NewEventBuffer()), nil
	})
	a, err := m.Claim("a.xml")
	if err != nil {
		t.Fatalf("Claim(a.xml): %v", err)
	}
	b, err := m.Claim("b.xml")
	if err != nil {
		t.Fatalf("Claim(b.xml): %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct hrefs to receive distinct handlers")
	}
}

func TestMultiOutputHandlerCloseAllFinalizesClaimedDestinations(t *testing.T) {
	buf := NewEventBuffer()
	secondary := NewBufferOutputHandler(buf)
	m := NewMultiOutputHandler(NewBufferOutputHandler(NewEventBuffer()), func(href string) (OutputHandler, error) {
		return secondary, nil
	})
	if _, err := m.Claim("report.xml"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := m.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if got := eventKinds(buf); len(got) == 0 || got[len(got)-1] != EvEndDocument {
		t.Fatalf("expected CloseAll to end the secondary document, got %v", got)
	}
}
