package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		StartDocument:          "start_document",
		EndDocument:            "end_document",
		Prolog:                 "prolog",
		StartElement:           "start_element",
		EndElement:             "end_element",
		Characters:             "characters",
		CData:                  "cdata",
		Comment:                "comment",
		ProcessingInstruction:  "processing_instruction",
		DTDDecl:                "dtd",
		ErrorEvent:             "error",
		DTDErrorEvent:          "dtd_error",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
	assert.Equal(t, "unknown", Kind(255).String())
}

func TestErrorKindIsAStableString(t *testing.T) {
	// error kinds are part of the external interface contract (§7); they
	// must not be renamed out from under consumers that switch on them.
	assert.Equal(t, ErrorKind("mismatched_end_tag"), ErrMismatchedEndTag)
	assert.Equal(t, ErrorKind("undeclared_prefix"), ErrUndeclaredPrefix)
	assert.Equal(t, ErrorKind("unsupported_mixed_operators"), ErrUnsupportedMixedOperators)
}
