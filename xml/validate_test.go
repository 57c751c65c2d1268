package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectValidated(stream *EventStream) []Event {
	var out []Event
	for ev := range stream.Events() {
		out = append(out, ev)
	}
	return out
}

func toChan(events []Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}

func TestIsXMLChar10ExcludesControlChars(t *testing.T) {
	assert.False(t, isXMLChar(0x02, Edition10))
	assert.True(t, isXMLChar(0x09, Edition10))
	assert.True(t, isXMLChar('a', Edition10))
}

func TestIsXMLChar11AllowsMostControlChars(t *testing.T) {
	assert.True(t, isXMLChar(0x02, Edition11))
	assert.False(t, isXMLChar(0x00, Edition11))
}

func TestValidateCharactersSkipPolicy(t *testing.T) {
	events := []Event{
		{Kind: Characters, Text: "a\x00b"},
	}
	out := collectValidated(ValidateCharacters(toChan(events), WithEdition(Edition10), WithOnError(PolicySkip)))

	require.Len(t, out, 2) // one error event, then the cleaned characters event
	assert.Equal(t, ErrorEvent, out[0].Kind)
	assert.Equal(t, Characters, out[1].Kind)
	assert.Equal(t, "ab", out[1].Text)
}

func TestValidateCharactersReplacePolicy(t *testing.T) {
	events := []Event{{Kind: Characters, Text: "a\x00b"}}
	out := collectValidated(ValidateCharacters(toChan(events), WithReplacement("?")))
	require.Len(t, out, 2)
	assert.Equal(t, "a?b", out[1].Text)
}

func TestValidateCharactersReportPolicyPassesThroughUnchanged(t *testing.T) {
	events := []Event{{Kind: Characters, Text: "a\x00b"}}
	out := collectValidated(ValidateCharacters(toChan(events)))
	require.Len(t, out, 2)
	assert.Equal(t, "a\x00b", out[1].Text)
}

func TestValidateCharactersIdempotent(t *testing.T) {
	events := []Event{{Kind: Characters, Text: "clean text"}}
	once := collectValidated(ValidateCharacters(toChan(events)))
	twice := collectValidated(ValidateCharacters(toChan(once)))
	assert.Equal(t, once, twice)
}

func TestValidateCommentsReportsDoubleHyphen(t *testing.T) {
	events := []Event{{Kind: Comment, Text: "oops -- bad"}}
	out := collectValidated(ValidateComments(toChan(events)))
	require.Len(t, out, 2)
	assert.Equal(t, ErrDoubleHyphenInComment, out[0].ErrorKind)
	assert.Equal(t, Comment, out[1].Kind)
}

func TestValidateCommentsIdempotent(t *testing.T) {
	events := []Event{{Kind: Comment, Text: "clean"}}
	once := collectValidated(ValidateComments(toChan(events)))
	twice := collectValidated(ValidateComments(toChan(once)))
	assert.Equal(t, once, twice)
}
