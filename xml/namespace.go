package xml

import (
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// NAMESPACES (§4.3)
// ============================================================================
//
// A Context is a chain of frames, one per element depth, linked by a parent
// back-reference -- never an ownership edge (§9 "cyclic parent pointers").
// Grounded on droyo-go-xml/xmltree.Scope's append-joined []xml.Name list,
// adapted from "join two scopes" to an explicit push/pop frame chain.

const (
	xmlURI   = "http://www.w3.org/XML/1998/namespace"
	xmlnsURI = "http://www.w3.org/2000/xmlns/"
)

type nsFrame struct {
	parent *nsFrame

	defaultSet bool   // true if this frame declares (or undeclares) xmlns=...
	defaultURI string // meaningful only when defaultSet

	prefixes map[string]string // prefix -> uri declared AT this frame only
}

// Context is the namespace scope in effect at one point in the element
// stack.
type Context struct {
	edition Edition
	top     *nsFrame
}

// NewContext creates a root namespace scope. The root frame pre-binds xml
// and xmlns per §3.
func NewContext(opts ...Option) *Context {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Context{
		edition: cfg.edition,
		top: &nsFrame{
			prefixes: map[string]string{
				"xml":   xmlURI,
				"xmlns": xmlnsURI,
			},
		},
	}
}

// Push scans attrs for xmlns/xmlns:* declarations, validates them against
// the reserved-prefix/namespace invariants (§3), and returns a child
// Context reflecting the new bindings along with the attribute list (with
// declarations stripped if requested via WithStripDeclarations).
func (c *Context) Push(attrs []Attr, opts ...Option) (*Context, []Attr, error) {
	cfg := defaultConfig()
	cfg.edition = c.edition
	for _, opt := range opts {
		opt(cfg)
	}

	frame := &nsFrame{parent: c.top, prefixes: map[string]string{}}
	var kept []Attr

	for _, a := range attrs {
		switch {
		case a.Name == "xmlns":
			if err := validateBinding(cfg.edition, "", a.Value); err != nil {
				return nil, nil, err
			}
			frame.defaultSet = true
			frame.defaultURI = a.Value
			if !cfg.stripDeclarations {
				kept = append(kept, a)
			}
		case strings.HasPrefix(a.Name, "xmlns:"):
			prefix := strings.TrimPrefix(a.Name, "xmlns:")
			if err := validateBinding(cfg.edition, prefix, a.Value); err != nil {
				return nil, nil, err
			}
			frame.prefixes[prefix] = a.Value
			if !cfg.stripDeclarations {
				kept = append(kept, a)
			}
		default:
			kept = append(kept, a)
		}
	}

	return &Context{edition: c.edition, top: frame}, kept, nil
}

// Pop returns the parent scope. Popping the root scope returns the root
// scope unchanged.
func (c *Context) Pop() *Context {
	if c.top.parent == nil {
		return c
	}
	return &Context{edition: c.edition, top: c.top.parent}
}

func validateBinding(edition Edition, prefix, uri string) error {
	if prefix == "xml" && uri != xmlURI {
		return &SyntaxError{Kind: ErrReservedPrefix, Msg: "the \"xml\" prefix cannot be rebound"}
	}
	if prefix != "xml" && uri == xmlURI {
		return &SyntaxError{Kind: ErrReservedNamespace, Msg: "the XML namespace URI cannot be bound to any prefix but \"xml\""}
	}
	if prefix == "xmlns" {
		return &SyntaxError{Kind: ErrReservedPrefix, Msg: "\"xmlns\" cannot be (re)declared"}
	}
	if uri == xmlnsURI {
		return &SyntaxError{Kind: ErrReservedNamespace, Msg: "the xmlns namespace URI cannot be bound to any prefix"}
	}
	if uri == "" && prefix != "" && edition != Edition11 {
		return &SyntaxError{Kind: ErrEmptyPrefixBind, Msg: "empty-value prefix undeclaration requires XML 1.1"}
	}
	return nil
}

// ResolvePrefix walks the frame chain outward for the nearest binding of
// prefix.
func (c *Context) ResolvePrefix(prefix string) (string, bool) {
	for f := c.top; f != nil; f = f.parent {
		if uri, ok := f.prefixes[prefix]; ok {
			if uri == "" {
				return "", false // undeclared at this frame
			}
			return uri, true
		}
	}
	return "", false
}

// DefaultNamespace returns the default (un-prefixed) namespace URI in
// scope, if any.
func (c *Context) DefaultNamespace() (string, bool) {
	for f := c.top; f != nil; f = f.parent {
		if f.defaultSet {
			if f.defaultURI == "" {
				return "", false
			}
			return f.defaultURI, true
		}
	}
	return "", false
}

// InScope reports whether uri is bound to any prefix (or the default) in
// the current scope.
func (c *Context) InScope(uri string) bool {
	if def, ok := c.DefaultNamespace(); ok && def == uri {
		return true
	}
	seen := map[string]bool{}
	for f := c.top; f != nil; f = f.parent {
		for p, u := range f.prefixes {
			if seen[p] {
				continue
			}
			seen[p] = true
			if u == uri {
				return true
			}
		}
	}
	return false
}

// AllPrefixes returns every prefix bound in scope (nearest frame wins),
// excluding undeclared (empty-value) bindings.
func (c *Context) AllPrefixes() map[string]string {
	out := map[string]string{}
	seen := map[string]bool{}
	for f := c.top; f != nil; f = f.parent {
		for p, u := range f.prefixes {
			if seen[p] {
				continue
			}
			seen[p] = true
			if u != "" {
				out[p] = u
			}
		}
	}
	return out
}

// ExpandElement resolves qname's namespace the way an element tag is
// resolved: unprefixed names take the default namespace.
func (c *Context) ExpandElement(qname string) (uri, local string, err error) {
	prefix, local, ok := splitQName(qname)
	if !ok {
		return "", "", fmt.Errorf("xml: %q is not a valid QName", qname)
	}
	if prefix == "" {
		if def, ok := c.DefaultNamespace(); ok {
			return def, local, nil
		}
		return "", local, nil
	}
	u, ok := c.ResolvePrefix(prefix)
	if !ok {
		return "", "", &SyntaxError{Kind: ErrUndeclaredPrefix, Msg: fmt.Sprintf("undeclared prefix %q", prefix)}
	}
	return u, local, nil
}

// ExpandAttribute resolves qname the way an attribute name is resolved:
// unprefixed attributes never take the default namespace (§4.3).
func (c *Context) ExpandAttribute(qname string) (uri, local string, err error) {
	prefix, local, ok := splitQName(qname)
	if !ok {
		return "", "", fmt.Errorf("xml: %q is not a valid QName", qname)
	}
	if prefix == "" {
		return "", local, nil
	}
	if prefix == "xmlns" {
		return xmlnsURI, local, nil
	}
	u, ok := c.ResolvePrefix(prefix)
	if !ok {
		return "", "", &SyntaxError{Kind: ErrUndeclaredPrefix, Msg: fmt.Sprintf("undeclared prefix %q", prefix)}
	}
	return u, local, nil
}

// splitQName validates qname against the QName production (§4.3) and
// splits it into prefix and local parts.
func splitQName(qname string) (prefix, local string, ok bool) {
	if qname == "xmlns" {
		return "", qname, isNCName(qname)
	}
	idx := strings.IndexByte(qname, ':')
	if idx < 0 {
		return "", qname, isNCName(qname)
	}
	if strings.IndexByte(qname[idx+1:], ':') >= 0 {
		return "", "", false // multi-colon name
	}
	prefix, local = qname[:idx], qname[idx+1:]
	if !isNCName(prefix) || !isNCName(local) {
		return "", "", false
	}
	return prefix, local, true
}

func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStartChar(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return true
}

func isNameStartChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
