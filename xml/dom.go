package xml

import (
	"context"
	"fmt"
	"strings"
)

// ============================================================================
// BUILDERS: DOM / SIMPLE FORM (§4.6)
// ============================================================================
//
// Document/Element is the boxed DOM tree; the "simple form" described
// alongside it is the teacher's *OrderedMap (xml/map.go), which already
// models nested tagged data with insertion order preserved -- exactly the
// "nested tuples without structural boxing" the spec calls for. Build
// produces the Element tree for structural consumers; ToOrderedMap converts
// that tree into the simple form for consumers that used to talk to
// MapXML. ToStream/ToIoData are grounded on the teacher's encodeNode
// (xml/streaming_encoder.go) and Canonicalize escaping (xml/c14n.go).

// Document is a DOM document: an optional prolog and exactly one root
// Element (§4.6).
type Document struct {
	Prolog *Event // the prolog Event, if include_prolog was set and one was present
	Root   *Element
}

// Element is one DOM node. Children may be *Element, CharData, CDataNode,
// or CommentNode.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []any
}

// CharData is a text child of an Element.
type CharData string

// CDataNode is a CDATA-section child of an Element.
type CDataNode string

// CommentNode is a comment child of an Element.
type CommentNode string

type buildFrame struct {
	el   *Element
	errs []Event
}

// Build folds an Event stream into a Document using a stack of
// in-progress elements (§4.6): start_element pushes a new frame,
// characters/cdata append to the top frame, end_element pops and attaches
// to the new top; popping at depth 0 finalizes the root. In strict mode
// an unbalanced stream returns an error; in html mode it returns a
// best-effort tree with a trailing error-describing CommentNode appended to
// the innermost element that was left open.
func Build(events <-chan Event, opts ...Option) (*Document, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	doc := &Document{}
	var stack []*buildFrame

	for ev := range events {
		switch ev.Kind {
		case Prolog:
			if cfg.includeProlog {
				e := ev
				doc.Prolog = &e
			}
		case StartElement:
			stack = append(stack, &buildFrame{el: &Element{Tag: ev.Tag, Attrs: ev.Attrs}})
		case EndElement:
			if len(stack) == 0 {
				if cfg.mode == ModeHTML {
					continue
				}
				return doc, fmt.Errorf("xml: end_element %q with no open element", ev.Tag)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				doc.Root = top.el
			} else {
				parent := stack[len(stack)-1]
				parent.el.Children = append(parent.el.Children, top.el)
			}
		case Characters:
			appendChild(stack, CharData(ev.Text))
		case CData:
			appendChild(stack, CDataNode(ev.Text))
		case Comment:
			if cfg.includeComments {
				appendChild(stack, CommentNode(ev.Text))
			}
		case ErrorEvent, DTDErrorEvent:
			if cfg.mode == ModeHTML {
				appendChild(stack, CommentNode("error: "+ev.Message+ev.Context))
			}
		}
	}

	if len(stack) > 0 {
		if cfg.mode != ModeHTML {
			return doc, fmt.Errorf("xml: %d element(s) left open at end of stream", len(stack))
		}
		// Best-effort: record the error on the innermost open element, then
		// close whatever remains open, innermost first.
		appendChild(stack, CommentNode(fmt.Sprintf("error: %d element(s) left open at end of stream", len(stack))))
		for len(stack) > 1 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.el.Children = append(parent.el.Children, top.el)
		}
		doc.Root = stack[0].el
	}
	return doc, nil
}

func appendChild(stack []*buildFrame, child any) {
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	top.el.Children = append(top.el.Children, child)
}

// ToOrderedMap converts a Document's root Element into the teacher's
// OrderedMap simple form: attributes become "@name" keys, text content
// becomes "#text", and a tag repeated among siblings collapses into a
// []*OrderedMap under that key.
func ToOrderedMap(doc *Document) *OrderedMap {
	if doc == nil || doc.Root == nil {
		return NewMap()
	}
	return elementToMap(doc.Root)
}

func elementToMap(el *Element) *OrderedMap {
	m := NewMap()
	for _, a := range el.Attrs {
		m.Put("@"+a.Name, a.Value)
	}
	var text strings.Builder
	for _, c := range el.Children {
		switch v := c.(type) {
		case CharData:
			text.WriteString(string(v))
		case CDataNode:
			text.WriteString(string(v))
		case CommentNode:
			// comments carry no simple-form representation; dropped.
		case *Element:
			child := elementToMap(v)
			if existing := m.Get(v.Tag); existing != nil {
				switch ev := existing.(type) {
				case []*OrderedMap:
					m.Put(v.Tag, append(ev, child))
				case *OrderedMap:
					m.Put(v.Tag, []*OrderedMap{ev, child})
				}
			} else {
				m.Put(v.Tag, child)
			}
		}
	}
	if s := strings.TrimSpace(text.String()); s != "" {
		m.Put("#text", text.String())
	}
	return m
}

// ----------------------------------------------------------------------------
// ToStream: inverse emission
// ----------------------------------------------------------------------------

// ToStream performs the inverse of Build: a canonical, depth-first
// re-emission of doc as an Event sequence (§4.6), suitable for feeding
// back into ToIoData or another consumer of the pipeline's shared Event
// contract.
func ToStream(doc *Document) *EventStream {
	stream, ch, ctx, cancel := newEventStream(16)
	go func() {
		defer close(ch)
		defer cancel()
		if !send(ctx, ch, Event{Kind: StartDocument}) {
			return
		}
		if doc.Prolog != nil {
			if !send(ctx, ch, *doc.Prolog) {
				return
			}
		}
		if doc.Root != nil {
			if !emitElement(ctx, ch, doc.Root) {
				return
			}
		}
		send(ctx, ch, Event{Kind: EndDocument})
	}()
	return stream
}

func emitElement(ctx context.Context, ch chan<- Event, el *Element) bool {
	if !send(ctx, ch, Event{Kind: StartElement, Tag: el.Tag, Attrs: el.Attrs}) {
		return false
	}
	for _, c := range el.Children {
		switch v := c.(type) {
		case CharData:
			if !send(ctx, ch, Event{Kind: Characters, Text: string(v)}) {
				return false
			}
		case CDataNode:
			if !send(ctx, ch, Event{Kind: CData, Text: string(v)}) {
				return false
			}
		case CommentNode:
			if !send(ctx, ch, Event{Kind: Comment, Text: string(v)}) {
				return false
			}
		case *Element:
			if !emitElement(ctx, ch, v) {
				return false
			}
		}
	}
	return send(ctx, ch, Event{Kind: EndElement, Tag: el.Tag})
}

// ----------------------------------------------------------------------------
// ToIoData: direct serialization
// ----------------------------------------------------------------------------

// ToIoData serializes doc directly to bytes (§4.6), honoring the
// pretty/indent/xml_declaration formatting options.
func ToIoData(doc *Document, opts ...Option) ([]byte, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	var buf strings.Builder
	if cfg.xmlDeclaration {
		buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		if cfg.prettyPrint {
			buf.WriteByte('\n')
		}
	}
	if doc.Root != nil {
		writeElement(&buf, doc.Root, cfg, 0)
	}
	return []byte(buf.String()), nil
}

func writeElement(buf *strings.Builder, el *Element, cfg *config, depth int) {
	indent := func(d int) {
		if cfg.prettyPrint {
			buf.WriteString(strings.Repeat(cfg.indent, d))
		}
	}
	indent(depth)
	buf.WriteByte('<')
	buf.WriteString(el.Tag)
	for _, a := range el.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteByte('"')
	}
	if len(el.Children) == 0 {
		buf.WriteString("/>")
		if cfg.prettyPrint {
			buf.WriteByte('\n')
		}
		return
	}
	buf.WriteByte('>')

	onlyText := allText(el.Children)
	if !onlyText && cfg.prettyPrint {
		buf.WriteByte('\n')
	}
	for _, c := range el.Children {
		switch v := c.(type) {
		case CharData:
			buf.WriteString(escapeText(string(v)))
		case CDataNode:
			buf.WriteString("<![CDATA[")
			buf.WriteString(string(v))
			buf.WriteString("]]>")
		case CommentNode:
			if !onlyText {
				indent(depth + 1)
			}
			buf.WriteString("<!--")
			buf.WriteString(string(v))
			buf.WriteString("-->")
			if !onlyText && cfg.prettyPrint {
				buf.WriteByte('\n')
			}
		case *Element:
			writeElement(buf, v, cfg, depth+1)
		}
	}
	if !onlyText {
		indent(depth)
	}
	buf.WriteString("</")
	buf.WriteString(el.Tag)
	buf.WriteByte('>')
	if cfg.prettyPrint {
		buf.WriteByte('\n')
	}
}

func allText(children []any) bool {
	for _, c := range children {
		switch c.(type) {
		case CharData, CDataNode:
			continue
		default:
			return false
		}
	}
	return true
}

// escapeText/escapeAttr replace the teacher's Canonicalize escaping
// (xml/c14n.go), generalized from canonical-form-only escaping to general
// serialization.
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#10;", "\t", "&#9;")
	return r.Replace(s)
}
