package xslt

import (
	"fmt"
	"log/slog"
)

// Well-known XSLT/XPath error codes from the registry referenced by spec §7.
const (
	CodeMissingInitialTemplate = "XTDE0040"
	CodeCircularReference      = "XTDE0640"
	CodeClaimedOutput          = "XTDE1490"
	CodeStrictValidationFail   = "XTTE0505"
	CodeStrictValidationLax    = "XTTE0540"
	CodeStrictValidationText   = "XTTE0590"
	CodeDocumentNotRetrievable = "FODC0002"
	CodeNoTemplateMatch        = "XTDE0555"
	CodeMultipleTemplateMatch  = "XTDE0540"
	CodeRegexGroupOutOfRange   = "FORX0002"
	CodeDivisionByZero         = "FOAR0001"
	CodeTypeMismatch           = "XPTY0004"

	// CodeSerializerMisuse reports an illegal call sequence on an output
	// handler, e.g. attribute() outside a pending element. Always fatal.
	CodeSerializerMisuse = "INT0001"
	// CodeConfiguration reports a bad option or unknown initial template.
	CodeConfiguration = "INT0002"
)

// Severity classifies an ErrorRecord for the error sink.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// ErrorRecord is the shape funneled to an ErrorSink: xsl:message and
// evaluation failures both produce one (spec §6).
type ErrorRecord struct {
	Code     string
	Severity Severity
	Message  string
	Location string
}

// EvalError is an evaluation failure (spec §7 kind 4) or any other
// typed failure that unwinds to the top-level transformer in strict mode.
type EvalError struct {
	Record ErrorRecord
}

func (e *EvalError) Error() string {
	if e.Record.Location != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Record.Code, e.Record.Message, e.Record.Location)
	}
	return fmt.Sprintf("%s: %s", e.Record.Code, e.Record.Message)
}

// NewEvalError builds a strict-severity EvalError with no location.
func NewEvalError(code, message string) *EvalError {
	return &EvalError{Record: ErrorRecord{Code: code, Severity: SeverityError, Message: message}}
}

// NewEvalErrorAt builds a strict-severity EvalError carrying a location hint.
func NewEvalErrorAt(code, message, location string) *EvalError {
	return &EvalError{Record: ErrorRecord{Code: code, Severity: SeverityError, Message: message, Location: location}}
}

// ErrorMode is a property of the Context controlling recoverable-error
// behavior: strict raises, silent coerces and reports (spec §7).
type ErrorMode int

const (
	ErrorModeStrict ErrorMode = iota
	ErrorModeSilent
)

// ErrorSink receives xsl:message output and recoverable-error notifications.
type ErrorSink interface {
	Report(rec ErrorRecord)
}

// SlogErrorSink is the default ErrorSink, logging structured records the
// way mihaisavezi-claude-code-open's middleware logs HTTP requests.
type SlogErrorSink struct {
	logger *slog.Logger
}

// NewSlogErrorSink wraps an *slog.Logger as an ErrorSink. A nil logger
// falls back to slog.Default().
func NewSlogErrorSink(logger *slog.Logger) *SlogErrorSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogErrorSink{logger: logger}
}

func (s *SlogErrorSink) Report(rec ErrorRecord) {
	attrs := []any{"code", rec.Code}
	if rec.Location != "" {
		attrs = append(attrs, "location", rec.Location)
	}
	switch rec.Severity {
	case SeverityWarning:
		s.logger.Warn(rec.Message, attrs...)
	case SeverityInfo:
		s.logger.Info(rec.Message, attrs...)
	default:
		s.logger.Error(rec.Message, attrs...)
	}
}

// discardErrorSink is used where no sink was configured; it drops records
// silently rather than forcing every Context to carry a non-nil *slog.Logger.
type discardErrorSink struct{}

func (discardErrorSink) Report(ErrorRecord) {}
