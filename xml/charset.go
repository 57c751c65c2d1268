package xml

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ============================================================================
// PREPROCESS: ENCODING DETECTION & CONVERSION (§4.1)
// ============================================================================
//
// Replaces the teacher's hand-rolled latin1Reader/windows1252Table
// (arturoeanton-go-xml/xml/util.go) with golang.org/x/text/encoding, the
// real conversion library behind the dependency chain most of the pack's
// encoding-aware repos pull in. See DESIGN.md for the full justification.

type bomKind int

const (
	bomNone bomKind = iota
	bomUTF8
	bomUTF16BE
	bomUTF16LE
)

// detectBOM inspects up to the first 3 bytes of data and reports which BOM,
// if any, is present, along with the BOM's byte length.
func detectBOM(data []byte) (bomKind, int) {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return bomUTF8, 3
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return bomUTF16BE, 2
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return bomUTF16LE, 2
	default:
		return bomNone, 0
	}
}

// latin1Sniff reports whether the XML declaration, scanned over the first
// up-to-200 ASCII-clean bytes, labels the document as ISO-8859-1/Latin-1
// (§4.1 detection priority 2).
func latin1Sniff(data []byte) bool {
	n := len(data)
	if n > 200 {
		n = 200
	}
	head := data[:n]
	for i, b := range head {
		if b >= 0x80 {
			head = head[:i] // only the leading ASCII-clean run is scanned
			break
		}
	}
	lower := bytes.ToLower(head)
	if !bytes.Contains(lower, []byte("encoding")) {
		return false
	}
	for _, label := range []string{"iso-8859-1", "iso_8859_1", "latin-1", "latin1"} {
		if bytes.Contains(lower, []byte(label)) {
			return true
		}
	}
	return false
}

// latin1Encoding is ISO-8859-1 (§4.1). The standard charmap maps 0x85 to
// U+0085 (NEL); §4.1's fallback mapping instead folds 0x85 straight to LF,
// so callers must run foldLatin1NEL/foldLatin1NELReader over the raw bytes
// before handing them to this decoder.
var latin1Encoding encoding.Encoding = charmap.ISO8859_1

// latin1NELByte is the ISO-8859-1 byte §4.1 maps to LF instead of NEL.
const latin1NELByte = 0x85

// foldLatin1NEL rewrites 0x85 bytes to '\n' in a one-shot Latin-1 buffer,
// per §4.1's explicit fallback mapping.
func foldLatin1NEL(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if b == latin1NELByte {
			out[i] = '\n'
		} else {
			out[i] = b
		}
	}
	return out
}

// foldLatin1NELReader wraps r so 0x85 bytes are folded to '\n' before the
// ISO-8859-1 decoder sees them; the streaming counterpart of foldLatin1NEL.
type foldLatin1NELReader struct {
	r io.Reader
}

func (f foldLatin1NELReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == latin1NELByte {
			p[i] = '\n'
		}
	}
	return n, err
}

// utf16Encoding returns the x/text encoding for the detected BOM's
// endianness. ExpectBOM would consume a BOM we've already stripped
// ourselves, so IgnoreBOM is used and the BOM bytes are sliced off by the
// caller.
func utf16Encoding(bom bomKind) encoding.Encoding {
	endian := unicode.BigEndian
	if bom == bomUTF16LE {
		endian = unicode.LittleEndian
	}
	return unicode.UTF16(endian, unicode.IgnoreBOM)
}

// toUTF8 converts one complete encoding's worth of bytes to UTF-8 using an
// x/text Decoder. Used for whole-binary (one-shot) inputs.
func toUTF8(enc encoding.Encoding, data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	return out, err
}

// decodingReader wraps r so that bytes read through it are transcoded from
// the given encoding to UTF-8. Used for the chunked-input variant so a
// 16-bit code unit is never split across a chunk boundary: transform.Reader
// buffers the trailing partial unit internally exactly as required by §4.1.
func decodingReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}
