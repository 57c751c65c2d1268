package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxErrorFormatting(t *testing.T) {
	withLoc := &SyntaxError{
		Kind:     ErrMismatchedEndTag,
		Msg:      "expected=root found=roto",
		Location: Location{Line: 4, LineStart: 10, Offset: 17},
	}
	assert.Contains(t, withLoc.Error(), "line 4")
	assert.Contains(t, withLoc.Error(), "column 7")
	assert.Contains(t, withLoc.Error(), "mismatched_end_tag")

	bare := &SyntaxError{Kind: ErrIncomplete, Msg: "truncated input"}
	assert.NotContains(t, bare.Error(), "line")
	assert.Contains(t, bare.Error(), "incomplete")
}

func TestDTDErrorFormatting(t *testing.T) {
	err := &DTDError{Kind: ErrInvalidElementDecl, Msg: "malformed ELEMENT declaration"}
	assert.Contains(t, err.Error(), "invalid_element_decl")
	assert.Contains(t, err.Error(), "malformed ELEMENT declaration")
}

func TestParseEmitsMismatchedEndTagError(t *testing.T) {
	malformed := []byte(`<root><valid>ok</valid><broken>oops</root>`)

	events := Parse(malformed).Collect()

	var found *Event
	for i := range events {
		if events[i].Kind == ErrorEvent && events[i].ErrorKind == ErrMismatchedEndTag {
			found = &events[i]
			break
		}
	}
	require.NotNil(t, found, "expected a mismatched_end_tag error event, got: %+v", events)
	assert.Contains(t, found.Context, "expected=broken")
	assert.Contains(t, found.Context, "found=root")
}

func TestParseEmitsUnterminatedOnTruncatedComment(t *testing.T) {
	truncated := []byte(`<root><!-- never closed`)

	events := Parse(truncated).Collect()

	var sawUnterminated bool
	for _, ev := range events {
		if ev.Kind == ErrorEvent && ev.ErrorKind == ErrUnterminatedComment {
			sawUnterminated = true
		}
	}
	assert.True(t, sawUnterminated, "expected unterminated_comment error, got: %+v", events)
}
