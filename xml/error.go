package xml

import "fmt"

// SyntaxError is the typed error the namespace layer returns (reserved
// prefix or namespace, empty prefix binding, undeclared prefix). Extends the
// teacher's SyntaxError (arturoeanton-go-xml/xml/error.go), which wrapped
// encoding/xml.SyntaxError; this package owns its own token stream, so Err
// is an optional underlying cause and is nil for the errors it creates.
type SyntaxError struct {
	Kind     ErrorKind
	Msg      string
	Location Location
	Err      error
}

func (e *SyntaxError) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("xml: %s at line %d, column %d: %s", e.Kind, e.Location.Line, e.Location.Column(), e.Msg)
	}
	return fmt.Sprintf("xml: %s: %s", e.Kind, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// DTDError reports a DTD declaration parse failure (§7 "DTD (parser)"
// taxonomy). Raised by ParseDecls when PolicyRaise is selected, and
// otherwise surfaced as dtd_error Events.
type DTDError struct {
	Kind ErrorKind
	Msg  string
}

func (e *DTDError) Error() string {
	return fmt.Sprintf("dtd: %s: %s", e.Kind, e.Msg)
}

// errorEvent builds an `error` Event (§3).
func errorEvent(loc Location, kind ErrorKind, message, context string) Event {
	return Event{Kind: ErrorEvent, Location: loc, ErrorKind: kind, Message: message, Context: context}
}

// dtdErrorEvent builds a `dtd_error` Event (§3, §7).
func dtdErrorEvent(loc Location, kind ErrorKind, context string) Event {
	return Event{Kind: DTDErrorEvent, Location: loc, ErrorKind: kind, Context: context}
}
