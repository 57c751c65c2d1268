package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(events []Event) []Kind {
	out := make([]Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestParseSimpleDocument(t *testing.T) {
	events := Parse([]byte(`<root a="1"><child>text</child></root>`)).Collect()

	assert.Equal(t, []Kind{
		StartDocument, StartElement, StartElement, Characters, EndElement, EndElement, EndDocument,
	}, kinds(events))

	root := events[1]
	assert.Equal(t, "root", root.Tag)
	require.Len(t, root.Attrs, 1)
	assert.Equal(t, Attr{Name: "a", Value: "1"}, root.Attrs[0])

	assert.Equal(t, "text", events[3].Text)
}

func TestParseSelfClosingTag(t *testing.T) {
	events := Parse([]byte(`<root><br/></root>`)).Collect()
	assert.Equal(t, []Kind{
		StartDocument, StartElement, StartElement, EndElement, EndElement, EndDocument,
	}, kinds(events))
	// the self-closing start/end pair shares one location.
	assert.Equal(t, events[2].Location, events[3].Location)
}

func TestParseProlog(t *testing.T) {
	events := Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?><root/>`)).Collect()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, Prolog, events[1].Kind)
	assert.Equal(t, "xml", events[1].Target)

	var version string
	for _, a := range events[1].Attrs {
		if a.Name == "version" {
			version = a.Value
		}
	}
	assert.Equal(t, "1.0", version)
}

func TestParsePrologSuppressedByOption(t *testing.T) {
	events := Parse([]byte(`<?xml version="1.0"?><root/>`), WithProlog(false)).Collect()
	for _, e := range events {
		assert.NotEqual(t, Prolog, e.Kind)
	}
}

func TestParseProcessingInstruction(t *testing.T) {
	events := Parse([]byte(`<root><?pi some content?></root>`)).Collect()
	var pi *Event
	for i := range events {
		if events[i].Kind == ProcessingInstruction {
			pi = &events[i]
		}
	}
	require.NotNil(t, pi)
	assert.Equal(t, "pi", pi.Target)
	assert.Equal(t, "some content", pi.Text)
}

func TestParseComment(t *testing.T) {
	events := Parse([]byte(`<root><!-- a comment --></root>`)).Collect()
	var comment *Event
	for i := range events {
		if events[i].Kind == Comment {
			comment = &events[i]
		}
	}
	require.NotNil(t, comment)
	assert.Equal(t, " a comment ", comment.Text)
}

func TestParseCommentsSuppressedByOption(t *testing.T) {
	events := Parse([]byte(`<root><!-- hidden --></root>`), WithComments(false)).Collect()
	for _, e := range events {
		assert.NotEqual(t, Comment, e.Kind)
	}
}

func TestParseCData(t *testing.T) {
	events := Parse([]byte(`<root><![CDATA[<not-a-tag>&amp;]]></root>`)).Collect()
	var cdata *Event
	for i := range events {
		if events[i].Kind == CData {
			cdata = &events[i]
		}
	}
	require.NotNil(t, cdata)
	assert.Equal(t, "<not-a-tag>&amp;", cdata.Text)
}

func TestParseEntityAndCharRefs(t *testing.T) {
	events := Parse([]byte(`<root>a &amp; b &#65; &#x42;</root>`)).Collect()
	var text string
	for _, e := range events {
		if e.Kind == Characters {
			text += e.Text
		}
	}
	assert.Equal(t, "a & b A B", text)
}

func TestParseUndefinedEntityReportsError(t *testing.T) {
	events := Parse([]byte(`<root>&bogus;</root>`)).Collect()
	var sawErr bool
	for _, e := range events {
		if e.Kind == ErrorEvent && e.ErrorKind == ErrUndefinedEntity {
			sawErr = true
			assert.Equal(t, "bogus", e.Context)
		}
	}
	assert.True(t, sawErr)
}

func TestParseInternalEntityExpansion(t *testing.T) {
	doc := []byte(`<!DOCTYPE root [<!ENTITY greeting "hello">]><root>&greeting;</root>`)
	events := Parse(doc).Collect()
	var text string
	for _, e := range events {
		if e.Kind == Characters {
			text += e.Text
		}
	}
	assert.Equal(t, "hello", text)
}

func TestParseDoctypeRawText(t *testing.T) {
	doc := []byte(`<!DOCTYPE root SYSTEM "root.dtd"><root/>`)
	events := Parse(doc).Collect()
	var dtd *Event
	for i := range events {
		if events[i].Kind == DTDDecl {
			dtd = &events[i]
		}
	}
	require.NotNil(t, dtd)
	assert.Contains(t, dtd.Raw, "SYSTEM")
	assert.Contains(t, dtd.Raw, "root.dtd")
}

func TestParseDoctypeHTMLRecovery(t *testing.T) {
	// An unexpected character after the DOCTYPE name, before any '>'.
	doc := []byte(`<!DOCTYPE root $ bogus><root/>`)
	events := Parse(doc, WithMode(ModeHTML)).Collect()

	var sawDTD, sawErr, sawRoot bool
	for _, e := range events {
		switch {
		case e.Kind == DTDDecl:
			sawDTD = true
		case e.Kind == ErrorEvent && e.ErrorKind == ErrUnexpectedCharInDoctype:
			sawErr = true
		case e.Kind == StartElement && e.Tag == "root":
			sawRoot = true
		}
	}
	assert.True(t, sawDTD)
	assert.True(t, sawErr)
	assert.True(t, sawRoot, "parser should resume at the root element after recovery")
}

func TestParseUnbalancedTagsClosesEnvelope(t *testing.T) {
	events := Parse([]byte(`<root><child>text`)).Collect()
	last := events[len(events)-1]
	assert.Equal(t, EndDocument, last.Kind)

	var closed []string
	for _, e := range events {
		if e.Kind == EndElement {
			closed = append(closed, e.Tag)
		}
	}
	assert.Equal(t, []string{"child", "root"}, closed)
}

func TestParseTotalityNeverPanics(t *testing.T) {
	inputs := []string{
		``,
		`<`,
		`<!`,
		`<?`,
		`<!--`,
		`<![CDATA[`,
		`<!DOCTYPE`,
		`</>`,
		`<a><b></a></b>`,
		"\x00\x01\x02",
		`<a attr=</a>`,
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Parse([]byte(in)).Collect()
		}, "input: %q", in)
	}
}

func TestParseChunksMatchesOneShotOrdering(t *testing.T) {
	doc := `<root><a>1</a><b>2</b></root>`
	oneShot := kinds(Parse([]byte(doc)).Collect())

	ch := make(chan []byte, 3)
	ch <- []byte(`<root><a>1<`)
	ch <- []byte(`/a><b>2</b`)
	ch <- []byte(`></root>`)
	close(ch)
	chunked := kinds(ParseChunks(Chunks(ch)).Collect())

	assert.Equal(t, oneShot, chunked)
}
