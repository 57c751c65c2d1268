package xml

// Kind tags the variant an Event carries. Event fields not relevant to a
// given Kind are left at their zero value.
//
// Downstream stages that do not recognize a Kind must pass the Event
// through unchanged (§3 lifecycle, §9 forward-compatibility note).
type Kind uint8

const (
	StartDocument Kind = iota
	EndDocument
	Prolog
	StartElement
	EndElement
	Characters
	CData
	Comment
	ProcessingInstruction
	DTDDecl
	ErrorEvent
	DTDErrorEvent
)

func (k Kind) String() string {
	switch k {
	case StartDocument:
		return "start_document"
	case EndDocument:
		return "end_document"
	case Prolog:
		return "prolog"
	case StartElement:
		return "start_element"
	case EndElement:
		return "end_element"
	case Characters:
		return "characters"
	case CData:
		return "cdata"
	case Comment:
		return "comment"
	case ProcessingInstruction:
		return "processing_instruction"
	case DTDDecl:
		return "dtd"
	case ErrorEvent:
		return "error"
	case DTDErrorEvent:
		return "dtd_error"
	default:
		return "unknown"
	}
}

// Attr is an ordered (name, value) attribute pair. Source order is
// preserved; attribute lists are never reordered by the parser.
type Attr struct {
	Name  string
	Value string
}

// ErrorKind enumerates the taxonomy in spec §7, grouped by the stage that
// raises it.
type ErrorKind string

const (
	// Parser (§4.2, §7)
	ErrIncomplete                ErrorKind = "incomplete"
	ErrBadTagStart               ErrorKind = "bad_tag_start"
	ErrUnterminatedString        ErrorKind = "unterminated_string"
	ErrUnterminatedComment       ErrorKind = "unterminated_comment"
	ErrUnterminatedCData         ErrorKind = "unterminated_cdata"
	ErrUnterminatedPI            ErrorKind = "unterminated_pi"
	ErrUnterminatedDoctypeString ErrorKind = "unterminated_doctype_string"
	ErrUnexpectedCharInDoctype   ErrorKind = "unexpected_char_in_doctype"
	ErrUndefinedEntity           ErrorKind = "undefined_entity"
	ErrMismatchedEndTag          ErrorKind = "mismatched_end_tag"

	// Namespaces (§4.3, §7)
	ErrUndeclaredPrefix  ErrorKind = "undeclared_prefix"
	ErrReservedPrefix    ErrorKind = "reserved_prefix"
	ErrReservedNamespace ErrorKind = "reserved_namespace"
	ErrEmptyPrefixBind   ErrorKind = "empty_prefix_binding"

	// DTD declaration parser (§4.4, §7)
	ErrInvalidElementDecl        ErrorKind = "invalid_element_decl"
	ErrInvalidEntityDecl         ErrorKind = "invalid_entity_decl"
	ErrInvalidAttlistDecl        ErrorKind = "invalid_attlist_decl"
	ErrInvalidNotationDecl       ErrorKind = "invalid_notation_decl"
	ErrUnknownAttributeType      ErrorKind = "unknown_attribute_type"
	ErrInvalidContentModel       ErrorKind = "invalid_content_model"
	ErrUnsupportedMixedOperators ErrorKind = "unsupported_mixed_operators"

	// DTD validator (§4.4, §7)
	ErrColonInEntityName   ErrorKind = "colon_in_entity_name"
	ErrColonInNotationName ErrorKind = "colon_in_notation_name"

	// Character/comment validator (§4.5, §7)
	ErrInvalidXMLCharacter   ErrorKind = "invalid_xml_character"
	ErrDoubleHyphenInComment ErrorKind = "double_hyphen_in_comment"
)

// Event is the single tagged record shared by every stage in the pipeline
// (§3, §9 "tagged events over polymorphic records"). Field order below is
// contractual per spec §3 for documentation purposes; Go field order is not
// itself semantic but is kept aligned with the table for readability.
type Event struct {
	Kind     Kind
	Location Location

	// start_element / end_element: Tag carries the raw (possibly prefixed)
	// name. Attrs is only populated for start_element and prolog.
	Tag   string
	Attrs []Attr

	// characters / cdata / comment: the text run or content.
	Text string

	// processing_instruction: Target is the PI target name; Text is the
	// instruction content. prolog: Target is always "xml".
	Target string

	// dtd: Raw is the verbatim text of the DOCTYPE declaration.
	Raw string

	// error / dtd_error payload.
	ErrorKind ErrorKind
	Message   string
	// Context carries kind-specific structured detail as a string (an
	// offending byte, an entity name, "expected=... found=..."), per the
	// "optional context" field spec §3 assigns to dtd_error and generalized
	// here to error as well.
	Context string
}
