package xml

import (
	"fmt"
	"strings"
)

// ============================================================================
// VALIDATE (§4.5)
// ============================================================================
//
// Stream-composable validators that enforce the XML Char production and
// the "no '--' inside a comment" rule, sharing one four-policy dispatch
// (report/skip/replace/raise). Generalizes the teacher's one-shot
// Rule/policy vocabulary (arturoeanton-go-xml/xml/validate.go) into pure
// Event-stream transformers, per §9 "pure stream functions".

// ValidateCharacters wraps events, checking every characters/cdata/attr
// code point against the XML Char production (§3) for the selected
// edition, applying cfg.onError to violations found.
func ValidateCharacters(events <-chan Event, opts ...Option) *EventStream {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	stream, ch, ctx, cancel := newEventStream(16)
	go func() {
		defer close(ch)
		defer cancel()
		for ev := range events {
			switch ev.Kind {
			case Characters, CData:
				cleaned, bad, err := applyCharPolicy(ev.Text, cfg)
				if err != nil {
					send(ctx, ch, errorEvent(ev.Location, ErrInvalidXMLCharacter, err.Error(), ""))
					return
				}
				for range bad {
					if !send(ctx, ch, errorEvent(ev.Location, ErrInvalidXMLCharacter, "invalid XML character", "")) {
						return
					}
				}
				ev.Text = cleaned
			case StartElement:
				newAttrs := make([]Attr, len(ev.Attrs))
				for i, a := range ev.Attrs {
					cleaned, bad, err := applyCharPolicy(a.Value, cfg)
					if err != nil {
						send(ctx, ch, errorEvent(ev.Location, ErrInvalidXMLCharacter, err.Error(), a.Name))
						return
					}
					for range bad {
						if !send(ctx, ch, errorEvent(ev.Location, ErrInvalidXMLCharacter, "invalid XML character", a.Name)) {
							return
						}
					}
					newAttrs[i] = Attr{Name: a.Name, Value: cleaned}
				}
				ev.Attrs = newAttrs
			}
			if !send(ctx, ch, ev) {
				return
			}
		}
	}()
	return stream
}

// ValidateComments wraps events, checking every comment's text for a
// literal "--", which XML forbids inside comment content (§4.5).
func ValidateComments(events <-chan Event, opts ...Option) *EventStream {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	stream, ch, ctx, cancel := newEventStream(16)
	go func() {
		defer close(ch)
		defer cancel()
		for ev := range events {
			if ev.Kind == Comment && strings.Contains(ev.Text, "--") {
				switch cfg.onError {
				case PolicyRaise:
					send(ctx, ch, errorEvent(ev.Location, ErrDoubleHyphenInComment, "'--' inside comment", ""))
					return
				case PolicySkip:
					if !send(ctx, ch, errorEvent(ev.Location, ErrDoubleHyphenInComment, "'--' inside comment", "")) {
						return
					}
					continue
				case PolicyReplace:
					ev.Text = strings.ReplaceAll(ev.Text, "--", cfg.replaceWith)
					if !send(ctx, ch, errorEvent(ev.Location, ErrDoubleHyphenInComment, "'--' inside comment", "")) {
						return
					}
				default: // PolicyReport
					if !send(ctx, ch, errorEvent(ev.Location, ErrDoubleHyphenInComment, "'--' inside comment", "")) {
						return
					}
				}
			}
			if !send(ctx, ch, ev) {
				return
			}
		}
	}()
	return stream
}

// applyCharPolicy scans s for code points outside the XML Char production
// and applies cfg.onError. Returns the (possibly modified) string, a count
// slice whose length is the number of violations found (for PolicyReport/
// PolicySkip, where the caller still needs one error Event per violation),
// and a non-nil error only for PolicyRaise.
func applyCharPolicy(s string, cfg *config) (string, []struct{}, error) {
	var bad []struct{}
	hasBad := false
	for _, r := range s {
		if !isXMLChar(r, cfg.edition) {
			hasBad = true
			break
		}
	}
	if !hasBad {
		return s, nil, nil
	}

	switch cfg.onError {
	case PolicyRaise:
		return s, nil, fmt.Errorf("invalid XML character in %q", s)
	case PolicySkip:
		var out strings.Builder
		for _, r := range s {
			if isXMLChar(r, cfg.edition) {
				out.WriteRune(r)
			} else {
				bad = append(bad, struct{}{})
			}
		}
		return out.String(), bad, nil
	case PolicyReplace:
		var out strings.Builder
		for _, r := range s {
			if isXMLChar(r, cfg.edition) {
				out.WriteRune(r)
			} else {
				out.WriteString(cfg.replaceWith)
				bad = append(bad, struct{}{})
			}
		}
		return out.String(), bad, nil
	default: // PolicyReport: pass through unchanged, one error per violation
		for _, r := range s {
			if !isXMLChar(r, cfg.edition) {
				bad = append(bad, struct{}{})
			}
		}
		return s, bad, nil
	}
}

// isXMLChar implements the XML Char production (XML 1.0 §2.2 / XML 1.1
// §2.2), which differs slightly between editions: 1.1 additionally permits
// the control characters #x1-#x1F that 1.0 excludes. #x7F-#x9F are permitted
// by both editions.
func isXMLChar(r rune, edition Edition) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	if edition == Edition11 {
		switch {
		case r >= 0x1 && r <= 0x1F:
			return true
		case r >= 0x7F && r <= 0x84:
			return true
		case r >= 0x86 && r <= 0x9F:
			return true
		}
	}
	return false
}
