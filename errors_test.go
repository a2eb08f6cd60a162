package xslt

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSeverityString(t *testing.T) {
	cases := map[Severity]string{
		SeverityError:   "error",
		SeverityWarning: "warning",
		SeverityInfo:    "info",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}

func TestEvalErrorFormatsWithAndWithoutLocation(t *testing.T) {
	plain := NewEvalError(CodeTypeMismatch, "wrong type")
	if got, want := plain.Error(), "XPTY0004: wrong type"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	located := NewEvalErrorAt(CodeTypeMismatch, "wrong type", "line 3")
	if got, want := located.Error(), "XPTY0004: wrong type (line 3)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSlogErrorSinkReportsAtMatchingLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewSlogErrorSink(logger)

	sink.Report(ErrorRecord{Code: "X", Severity: SeverityWarning, Message: "careful", Location: "here"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "careful") || !strings.Contains(out, "location=here") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	sink.Report(ErrorRecord{Code: "Y", Severity: SeverityError, Message: "broken"})
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || strings.Contains(out, "location=") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestSlogErrorSinkNilLoggerFallsBackToDefault(t *testing.T) {
	sink := NewSlogErrorSink(nil)
	sink.Report(ErrorRecord{Code: "Z", Severity: SeverityInfo, Message: "fyi"})
}

func TestDiscardErrorSinkDropsRecords(t *testing.T) {
	var sink ErrorSink = discardErrorSink{}
	sink.Report(ErrorRecord{Code: "whatever", Severity: SeverityError, Message: "ignored"})
}
