package xml

import (
	"fmt"
	"strings"
)

// ============================================================================
// DTD (§4.4)
// ============================================================================
//
// Structured interpretation of a DOCTYPE's internal subset: declaration
// parsing (ParseDecls), content-model parsing, and a streaming validator
// that normalizes attribute values against declared types. Grounded on the
// pattern-directed, strings/switch-based declaration dispatch of
// droyo-go-xml/xsd/parse.go, adapted from XML Schema constructs to DTD
// declarations since the spec's Non-goals rule out XSD processing.

// ContentKind classifies an ELEMENT declaration's content spec.
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentAny
	ContentMixed
	ContentChildren
)

// ContentNode is one node of a children content model's seq/choice tree
// (§4.4 content-model parsing).
type ContentNode struct {
	Name     string // leaf: child element name; empty for seq/choice nodes
	Choice   bool   // true: children separated by '|'; false: by ','
	Children []*ContentNode
	Occur    byte // 0, '?', '*', or '+'
}

// ElementDecl is one parsed "<!ELEMENT ...>" declaration.
type ElementDecl struct {
	Name       string
	Content    ContentKind
	Model      *ContentNode // only set when Content == ContentChildren
	MixedNames []string     // only set when Content == ContentMixed
}

// AttType enumerates the DTD attribute types (§4.4).
type AttType int

const (
	AttCDATA AttType = iota
	AttID
	AttIDREF
	AttIDREFS
	AttENTITY
	AttENTITIES
	AttNMTOKEN
	AttNMTOKENS
	AttNOTATION
	AttEnumeration
)

// AttDefaultKind enumerates the DefaultDecl forms of an ATTLIST entry.
type AttDefaultKind int

const (
	DefaultNone AttDefaultKind = iota
	DefaultRequired
	DefaultImplied
	DefaultFixed
)

// AttributeDecl is one attribute declared by an ATTLIST for one element.
type AttributeDecl struct {
	Element      string
	Name         string
	Type         AttType
	EnumValues   []string // NOTATION or enumeration value list
	Default      AttDefaultKind
	DefaultValue string // literal value for DefaultNone/DefaultFixed
}

// EntityDecl is one parsed "<!ENTITY ...>" declaration, general or
// parameter.
type EntityDecl struct {
	Name        string
	Parameter   bool
	Value       string // internal entities only
	External    bool
	SystemID    string
	PublicID    string
	NotationRef string // unparsed external general entities (NDATA)
}

// NotationDecl is one parsed "<!NOTATION ...>" declaration.
type NotationDecl struct {
	Name     string
	SystemID string
	PublicID string
}

// Model is the structured interpretation of one DOCTYPE's internal subset.
type Model struct {
	RootElement string
	Elements    map[string]ElementDecl
	Attributes  map[string][]AttributeDecl // by element name
	Entities    map[string]EntityDecl      // general entities
	ParamEntities map[string]EntityDecl    // parameter entities
	Notations   map[string]NotationDecl
}

func newModel(root string) *Model {
	return &Model{
		RootElement:   root,
		Elements:      map[string]ElementDecl{},
		Attributes:    map[string][]AttributeDecl{},
		Entities:      map[string]EntityDecl{},
		ParamEntities: map[string]EntityDecl{},
		Notations:     map[string]NotationDecl{},
	}
}

// ParseDecls parses the raw text of a "dtd" Event (the verbatim "<!DOCTYPE
// ...>" text, including any internal subset) into a structured Model. Each
// malformed declaration produces a dtd_error Event rather than aborting the
// parse, except under WithOnError(PolicyRaise) where the first error is
// returned as an error instead.
func ParseDecls(raw string, opts ...Option) (*Model, []Event, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	root := doctypeRootName(raw)
	m := newModel(root)
	var events []Event

	sub := internalSubset(raw)
	sub = expandParamEntities(sub, extractParamEntities(sub))
	for _, decl := range splitDecls(sub) {
		if strings.HasPrefix(decl, "--") {
			continue // comment
		}
		keyword, body := splitKeyword(decl)
		var err *DTDError
		switch keyword {
		case "ELEMENT":
			err = parseElementDecl(m, body)
		case "ATTLIST":
			err = parseAttlistDecl(m, body)
		case "ENTITY":
			err = parseEntityDecl(m, body)
		case "NOTATION":
			err = parseNotationDecl(m, body)
		default:
			continue // parameter-entity reference or unrecognized markup: ignored
		}
		if err != nil {
			if cfg.onError == PolicyRaise {
				return m, events, err
			}
			events = append(events, dtdErrorEvent(Location{}, err.Kind, err.Msg))
		}
	}
	return m, events, nil
}

// ValidateModel checks Model-level invariants that span declarations
// rather than belonging to a single one: entity and notation names must
// not contain ':', since DTD names are never namespace-processed but a
// colon in one would otherwise silently collide with QName syntax (§4.4).
func ValidateModel(m *Model) []Event {
	var events []Event
	for name := range m.Entities {
		if strings.ContainsRune(name, ':') {
			events = append(events, dtdErrorEvent(Location{}, ErrColonInEntityName, name))
		}
	}
	for name := range m.ParamEntities {
		if strings.ContainsRune(name, ':') {
			events = append(events, dtdErrorEvent(Location{}, ErrColonInEntityName, name))
		}
	}
	for name := range m.Notations {
		if strings.ContainsRune(name, ':') {
			events = append(events, dtdErrorEvent(Location{}, ErrColonInNotationName, name))
		}
	}
	return events
}

// ValidateStream wraps an Event stream, applying DTD-driven attribute-value
// normalization (§4.4) to every start_element's Attrs and emitting the
// Model-level dtd_error events (ValidateModel) once, right after the dtd
// Event passes through. Under PolicySkip those events are dropped; under
// PolicyRaise the first one is emitted and the stream ends.
func ValidateStream(events <-chan Event, m *Model, opts ...Option) *EventStream {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	stream, ch, ctx, cancel := newEventStream(16)
	go func() {
		defer close(ch)
		defer cancel()
		modelChecked := false
		for ev := range events {
			if ev.Kind == StartElement && cfg.normalizeAttributes {
				ev.Attrs = normalizeAttrs(ev.Tag, ev.Attrs, m)
			}
			if !send(ctx, ch, ev) {
				return
			}
			if ev.Kind == DTDDecl && !modelChecked {
				modelChecked = true
				for _, e := range ValidateModel(m) {
					if cfg.onError == PolicySkip {
						break
					}
					if !send(ctx, ch, e) {
						return
					}
					if cfg.onError == PolicyRaise {
						return
					}
				}
			}
		}
	}()
	return stream
}

// normalizeAttrs applies attribute-value normalization: for any attribute
// declared with a non-CDATA type, leading/trailing whitespace is trimmed and
// internal whitespace runs collapse to one space (§4.4). CDATA and
// undeclared attributes pass through unchanged.
func normalizeAttrs(tag string, attrs []Attr, m *Model) []Attr {
	decls := m.Attributes[tag]
	declType := func(name string) (AttType, bool) {
		for _, d := range decls {
			if d.Name == name {
				return d.Type, true
			}
		}
		return AttCDATA, false
	}

	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		v := a.Value
		if t, ok := declType(a.Name); ok && t != AttCDATA {
			v = collapseSpaces(v)
		}
		out[i] = Attr{Name: a.Name, Value: v}
	}
	return out
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ----------------------------------------------------------------------------
// Declaration splitting
// ----------------------------------------------------------------------------

func doctypeRootName(raw string) string {
	body := strings.TrimPrefix(raw, "<!DOCTYPE")
	body = strings.TrimLeft(body, " \t\r\n")
	i := 0
	for i < len(body) && !isSpaceByte(body[i]) && body[i] != '[' && body[i] != '>' {
		i++
	}
	return body[:i]
}

func internalSubset(raw string) string {
	open := strings.IndexByte(raw, '[')
	closeI := strings.LastIndexByte(raw, ']')
	if open < 0 || closeI < 0 || closeI <= open {
		return ""
	}
	return raw[open+1 : closeI]
}

// extractParamEntities pre-scans an internal subset for "<!ENTITY % name
// ...>" declarations, building a name -> replacement-text map so %name;
// references elsewhere in the subset can be expanded before declaration
// parsing runs (§1, §4.4a). Only internal (literal-value) parameter
// entities are expandable here; SYSTEM/PUBLIC parameter entities have no
// fetchable replacement text in this design and are left unexpanded.
func extractParamEntities(sub string) map[string]string {
	out := map[string]string{}
	for _, decl := range splitDecls(sub) {
		keyword, body := splitKeyword(decl)
		if keyword != "ENTITY" || !strings.HasPrefix(body, "%") {
			continue
		}
		body = strings.TrimSpace(strings.TrimPrefix(body, "%"))
		toks := declTokens(body)
		if len(toks) < 2 || toks[1] == "SYSTEM" || toks[1] == "PUBLIC" {
			continue
		}
		out[toks[0]] = unquote(toks[1])
	}
	return out
}

// expandParamEntities replaces "%name;" references in sub with their
// declared replacement text (§4.4a), re-scanning to a fixed point so one
// parameter entity's value may itself reference another. Capped at a fixed
// number of passes: an entity whose value (transitively) references itself
// would otherwise expand forever.
func expandParamEntities(sub string, params map[string]string) string {
	if len(params) == 0 {
		return sub
	}
	for pass := 0; pass < 8; pass++ {
		expanded, changed := expandParamEntitiesOnce(sub, params)
		if !changed {
			return expanded
		}
		sub = expanded
	}
	return sub
}

func expandParamEntitiesOnce(sub string, params map[string]string) (string, bool) {
	var buf strings.Builder
	changed := false
	i := 0
	for i < len(sub) {
		if sub[i] == '%' {
			if end := strings.IndexByte(sub[i+1:], ';'); end >= 0 {
				name := sub[i+1 : i+1+end]
				if val, ok := params[name]; ok && isEntityRefName(name) {
					buf.WriteString(val)
					i += end + 2
					changed = true
					continue
				}
			}
		}
		buf.WriteByte(sub[i])
		i++
	}
	return buf.String(), changed
}

// isEntityRefName reports whether name could plausibly be the name portion
// of a "%name;" reference, guarding against matching a stray '%' followed
// much later by an unrelated ';'.
func isEntityRefName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case ' ', '\t', '\r', '\n', '<', '>', '&', '%', ';':
			return false
		}
	}
	return true
}

// splitDecls splits an internal subset into the bodies of its "<! ... >"
// markup declarations, respecting quoted literals so a '>' inside a
// literal doesn't end the declaration early.
func splitDecls(sub string) []string {
	var out []string
	i := 0
	for i < len(sub) {
		start := strings.Index(sub[i:], "<!")
		if start < 0 {
			break
		}
		i += start + 2
		declStart := i
		for i < len(sub) {
			c := sub[i]
			if c == '"' || c == '\'' {
				end := strings.IndexByte(sub[i+1:], c)
				if end < 0 {
					i = len(sub)
					break
				}
				i += end + 2
				continue
			}
			if c == '>' {
				break
			}
			i++
		}
		if i <= len(sub) {
			decl := sub[declStart:min(i, len(sub))]
			out = append(out, strings.TrimSpace(decl))
		}
		i++
	}
	return out
}

func splitKeyword(decl string) (keyword, body string) {
	i := 0
	for i < len(decl) && !isSpaceByte(decl[i]) {
		i++
	}
	return decl[:i], strings.TrimSpace(decl[i:])
}

// declTokens splits body on whitespace, keeping "(...)" groups and
// quoted literals as single tokens.
func declTokens(body string) []string {
	var toks []string
	i := 0
	for i < len(body) {
		for i < len(body) && isSpaceByte(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}
		start := i
		switch body[i] {
		case '(':
			depth := 0
			for i < len(body) {
				if body[i] == '(' {
					depth++
				} else if body[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
		case '"', '\'':
			quote := body[i]
			i++
			for i < len(body) && body[i] != quote {
				i++
			}
			if i < len(body) {
				i++
			}
		default:
			for i < len(body) && !isSpaceByte(body[i]) {
				i++
			}
		}
		toks = append(toks, body[start:i])
	}
	return toks
}

// ----------------------------------------------------------------------------
// ELEMENT
// ----------------------------------------------------------------------------

func parseElementDecl(m *Model, body string) *DTDError {
	// Split only on the first whitespace run: the content spec may itself
	// contain internal whitespace (e.g. "(a, b)") that declTokens would
	// otherwise re-join with spurious spaces.
	trimmed := strings.TrimSpace(body)
	i := 0
	for i < len(trimmed) && !isSpaceByte(trimmed[i]) {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return &DTDError{Kind: ErrInvalidElementDecl, Msg: "malformed ELEMENT declaration: " + body}
	}
	name := trimmed[:i]
	spec := strings.TrimSpace(trimmed[i:])

	switch spec {
	case "EMPTY":
		m.Elements[name] = ElementDecl{Name: name, Content: ContentEmpty}
		return nil
	case "ANY":
		m.Elements[name] = ElementDecl{Name: name, Content: ContentAny}
		return nil
	}

	if strings.Contains(spec, "#PCDATA") {
		names, derr := parseMixedContent(spec)
		if derr != nil {
			return derr
		}
		m.Elements[name] = ElementDecl{Name: name, Content: ContentMixed, MixedNames: names}
		return nil
	}

	model, derr := parseContentModel(spec)
	if derr != nil {
		return derr
	}
	m.Elements[name] = ElementDecl{Name: name, Content: ContentChildren, Model: model}
	return nil
}

// parseMixedContent parses "(#PCDATA|a|b)*" or "(#PCDATA)". Any other
// operator between the names (',', '?', '+' on individual names) is an
// unsupported mixed-content construct (§4.4 edge cases).
func parseMixedContent(spec string) ([]string, *DTDError) {
	trailingStar := strings.HasSuffix(spec, ")*")
	body := spec
	if trailingStar {
		body = strings.TrimSuffix(body, "*")
	}
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "malformed mixed content: " + spec}
	}
	inner := body[1 : len(body)-1]
	parts := strings.Split(inner, "|")
	if strings.TrimSpace(parts[0]) != "#PCDATA" {
		return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "mixed content must start with #PCDATA"}
	}
	var names []string
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" || strings.ContainsAny(p, ",?+*()") {
			return nil, &DTDError{Kind: ErrUnsupportedMixedOperators, Msg: "unsupported operator in mixed content: " + spec}
		}
		names = append(names, p)
	}
	if len(names) > 0 && !trailingStar {
		return nil, &DTDError{Kind: ErrUnsupportedMixedOperators, Msg: "mixed content with children must end in '*': " + spec}
	}
	return names, nil
}

// parseContentModel parses a children content spec like "(a,b?,(c|d)+)*"
// into a ContentNode tree via straightforward recursive descent.
func parseContentModel(spec string) (*ContentNode, *DTDError) {
	p := &cmParser{s: spec}
	p.skipSpace()
	node, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.i != len(p.s) {
		return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "trailing content after model: " + spec}
	}
	return node, nil
}

type cmParser struct {
	s string
	i int
}

func (p *cmParser) skipSpace() {
	for p.i < len(p.s) && isSpaceByte(p.s[p.i]) {
		p.i++
	}
}

func (p *cmParser) parseGroup() (*ContentNode, *DTDError) {
	if p.i >= len(p.s) || p.s[p.i] != '(' {
		return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "expected '(' in content model"}
	}
	p.i++
	node := &ContentNode{}
	sepSet := false

	for {
		p.skipSpace()
		var child *ContentNode
		var err *DTDError
		if p.i < len(p.s) && p.s[p.i] == '(' {
			child, err = p.parseGroup()
		} else {
			child, err = p.parseName()
		}
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.i < len(p.s) {
			switch p.s[p.i] {
			case '?', '*', '+':
				child.Occur = p.s[p.i]
				p.i++
				p.skipSpace()
			}
		}
		node.Children = append(node.Children, child)

		if p.i >= len(p.s) {
			return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "unterminated group in content model"}
		}
		switch p.s[p.i] {
		case ',', '|':
			choice := p.s[p.i] == '|'
			if sepSet && node.Choice != choice {
				return nil, &DTDError{Kind: ErrUnsupportedMixedOperators, Msg: "mixed ',' and '|' at one nesting level"}
			}
			node.Choice = choice
			sepSet = true
			p.i++
		case ')':
			p.i++
			if p.i < len(p.s) {
				switch p.s[p.i] {
				case '?', '*', '+':
					node.Occur = p.s[p.i]
					p.i++
				}
			}
			return node, nil
		default:
			return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "unexpected character in content model"}
		}
	}
}

func (p *cmParser) parseName() (*ContentNode, *DTDError) {
	start := p.i
	for p.i < len(p.s) && !strings.ContainsRune(",|)?*+ \t\r\n", rune(p.s[p.i])) {
		p.i++
	}
	if start == p.i {
		return nil, &DTDError{Kind: ErrInvalidContentModel, Msg: "expected element name in content model"}
	}
	return &ContentNode{Name: p.s[start:p.i]}, nil
}

// ----------------------------------------------------------------------------
// ATTLIST
// ----------------------------------------------------------------------------

func parseAttlistDecl(m *Model, body string) *DTDError {
	toks := declTokens(body)
	if len(toks) < 1 {
		return &DTDError{Kind: ErrInvalidAttlistDecl, Msg: "malformed ATTLIST declaration"}
	}
	element := toks[0]
	rest := toks[1:]

	for len(rest) > 0 {
		if len(rest) < 3 {
			return &DTDError{Kind: ErrInvalidAttlistDecl, Msg: "incomplete attribute definition in ATTLIST for " + element}
		}
		name := rest[0]
		typeTok := rest[1]
		decl := AttributeDecl{Element: element, Name: name}

		switch {
		case typeTok == "CDATA":
			decl.Type = AttCDATA
		case typeTok == "ID":
			decl.Type = AttID
		case typeTok == "IDREF":
			decl.Type = AttIDREF
		case typeTok == "IDREFS":
			decl.Type = AttIDREFS
		case typeTok == "ENTITY":
			decl.Type = AttENTITY
		case typeTok == "ENTITIES":
			decl.Type = AttENTITIES
		case typeTok == "NMTOKEN":
			decl.Type = AttNMTOKEN
		case typeTok == "NMTOKENS":
			decl.Type = AttNMTOKENS
		case strings.HasPrefix(typeTok, "NOTATION"):
			decl.Type = AttNOTATION
			// NOTATION is followed by its own "(a|b)" token.
			if len(rest) < 4 {
				return &DTDError{Kind: ErrInvalidAttlistDecl, Msg: "malformed NOTATION attribute type for " + name}
			}
			decl.EnumValues = splitEnum(rest[2])
			rest = rest[1:]
		case strings.HasPrefix(typeTok, "("):
			decl.Type = AttEnumeration
			decl.EnumValues = splitEnum(typeTok)
		default:
			return &DTDError{Kind: ErrUnknownAttributeType, Msg: "unknown attribute type " + typeTok + " for " + name}
		}

		def := rest[2]
		switch {
		case def == "#REQUIRED":
			decl.Default = DefaultRequired
			rest = rest[3:]
		case def == "#IMPLIED":
			decl.Default = DefaultImplied
			rest = rest[3:]
		case def == "#FIXED":
			if len(rest) < 4 {
				return &DTDError{Kind: ErrInvalidAttlistDecl, Msg: "missing #FIXED value for " + name}
			}
			decl.Default = DefaultFixed
			decl.DefaultValue = unquote(rest[3])
			rest = rest[4:]
		default:
			decl.Default = DefaultNone
			decl.DefaultValue = unquote(def)
			rest = rest[3:]
		}

		m.Attributes[element] = append(m.Attributes[element], decl)
	}
	return nil
}

func splitEnum(tok string) []string {
	tok = strings.TrimPrefix(tok, "NOTATION")
	tok = strings.TrimSpace(tok)
	tok = strings.TrimPrefix(tok, "(")
	tok = strings.TrimSuffix(tok, ")")
	var out []string
	for _, p := range strings.Split(tok, "|") {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func unquote(tok string) string {
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[len(tok)-1] == tok[0] {
		return tok[1 : len(tok)-1]
	}
	return tok
}

// ----------------------------------------------------------------------------
// ENTITY
// ----------------------------------------------------------------------------

func parseEntityDecl(m *Model, body string) *DTDError {
	parameter := false
	if strings.HasPrefix(body, "%") {
		parameter = true
		body = strings.TrimSpace(strings.TrimPrefix(body, "%"))
	}
	toks := declTokens(body)
	if len(toks) < 2 {
		return &DTDError{Kind: ErrInvalidEntityDecl, Msg: "malformed ENTITY declaration: " + body}
	}
	name := toks[0]
	e := EntityDecl{Name: name, Parameter: parameter}

	switch toks[1] {
	case "SYSTEM":
		if len(toks) < 3 {
			return &DTDError{Kind: ErrInvalidEntityDecl, Msg: "missing SYSTEM literal for entity " + name}
		}
		e.External = true
		e.SystemID = unquote(toks[2])
		if len(toks) >= 5 && toks[3] == "NDATA" {
			e.NotationRef = toks[4]
		}
	case "PUBLIC":
		if len(toks) < 4 {
			return &DTDError{Kind: ErrInvalidEntityDecl, Msg: "missing PUBLIC literals for entity " + name}
		}
		e.External = true
		e.PublicID = unquote(toks[2])
		e.SystemID = unquote(toks[3])
	default:
		e.Value = unquote(toks[1])
	}

	if parameter {
		m.ParamEntities[name] = e
	} else {
		m.Entities[name] = e
	}
	return nil
}

// ----------------------------------------------------------------------------
// NOTATION
// ----------------------------------------------------------------------------

func parseNotationDecl(m *Model, body string) *DTDError {
	toks := declTokens(body)
	if len(toks) < 2 {
		return &DTDError{Kind: ErrInvalidNotationDecl, Msg: "malformed NOTATION declaration: " + body}
	}
	n := NotationDecl{Name: toks[0]}
	switch toks[1] {
	case "SYSTEM":
		if len(toks) < 3 {
			return &DTDError{Kind: ErrInvalidNotationDecl, Msg: "missing SYSTEM literal for notation " + n.Name}
		}
		n.SystemID = unquote(toks[2])
	case "PUBLIC":
		if len(toks) < 3 {
			return &DTDError{Kind: ErrInvalidNotationDecl, Msg: "missing PUBLIC literal for notation " + n.Name}
		}
		n.PublicID = unquote(toks[2])
		if len(toks) >= 4 {
			n.SystemID = unquote(toks[3])
		}
	default:
		return &DTDError{Kind: ErrInvalidNotationDecl, Msg: fmt.Sprintf("expected SYSTEM or PUBLIC for notation %s", n.Name)}
	}
	m.Notations[n.Name] = n
	return nil
}
