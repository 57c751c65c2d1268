package xml

// ============================================================================
// CONFIGURATION AND OPTIONS
// ============================================================================
//
// Functional options in the teacher's style (arturoeanton-go-xml/xml/xml.go
// config/Option), generalized from the teacher's MapXML knobs to the event
// pipeline's knobs from spec §6.

// Edition selects the XML edition the parser and namespace layer enforce.
type Edition int

const (
	Edition10 Edition = iota
	Edition11
)

// Mode selects strict XML conformance versus HTML-style recovery.
type Mode int

const (
	ModeXML Mode = iota
	ModeHTML
)

// ErrorPolicy controls how ValidateCharacters/ValidateComments and the DTD
// validator react to a detected problem (§4.4, §4.5).
type ErrorPolicy int

const (
	// PolicyReport emits an error event and passes the original event through.
	PolicyReport ErrorPolicy = iota
	// PolicySkip drops the offending data (or the whole event, for comments).
	PolicySkip
	// PolicyReplace substitutes offending code points with a fixed string.
	PolicyReplace
	// PolicyRaise stops at the first problem: ParseDecls returns it as an
	// error; the stream validators emit one error event and end the stream.
	PolicyRaise
)

type config struct {
	edition Edition
	mode    Mode

	includeComments bool
	includeProlog   bool

	onError     ErrorPolicy
	replaceWith string

	normalizeAttributes bool
	stripDeclarations   bool

	prettyPrint    bool
	indent         string
	xmlDeclaration bool
}

// Option configures a parser, validator, or serializer call.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		edition:             Edition10,
		mode:                ModeXML,
		includeComments:     true,
		includeProlog:       true,
		onError:             PolicyReport,
		normalizeAttributes: true,
		indent:              "  ",
	}
}

// WithEdition selects 1.0 (default) or 1.1 parsing rules.
func WithEdition(e Edition) Option { return func(c *config) { c.edition = e } }

// WithMode selects xml (strict, default) or html (recover-and-continue) mode.
func WithMode(m Mode) Option { return func(c *config) { c.mode = m } }

// WithComments toggles emission of comment events (default true).
func WithComments(include bool) Option { return func(c *config) { c.includeComments = include } }

// WithProlog toggles emission of the prolog event (default true).
func WithProlog(include bool) Option { return func(c *config) { c.includeProlog = include } }

// WithOnError selects the validator error policy (default PolicyReport).
func WithOnError(p ErrorPolicy) Option { return func(c *config) { c.onError = p } }

// WithReplacement sets the substitution string used by PolicyReplace.
func WithReplacement(s string) Option {
	return func(c *config) {
		c.onError = PolicyReplace
		c.replaceWith = s
	}
}

// WithNormalizeAttributes toggles DTD attribute-value normalization
// (default true).
func WithNormalizeAttributes(normalize bool) Option {
	return func(c *config) { c.normalizeAttributes = normalize }
}

// WithStripDeclarations removes xmlns* attributes from the attribute list
// returned by Context.Push (default false: declarations are preserved).
func WithStripDeclarations(strip bool) Option {
	return func(c *config) { c.stripDeclarations = strip }
}

// WithPrettyPrint enables indentation in ToIoData.
func WithPrettyPrint(pretty bool) Option { return func(c *config) { c.prettyPrint = pretty } }

// WithIndent sets the indent unit used when pretty-printing (default two
// spaces).
func WithIndent(indent string) Option { return func(c *config) { c.indent = indent } }

// WithXMLDeclaration toggles emission of a leading <?xml ...?> declaration
// from ToIoData.
func WithXMLDeclaration(include bool) Option { return func(c *config) { c.xmlDeclaration = include } }
