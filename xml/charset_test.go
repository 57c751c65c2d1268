package xml

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBOM(t *testing.T) {
	kind, n := detectBOM([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	assert.Equal(t, bomUTF8, kind)
	assert.Equal(t, 3, n)

	kind, n = detectBOM([]byte{0xFE, 0xFF, 0, 'h'})
	assert.Equal(t, bomUTF16BE, kind)
	assert.Equal(t, 2, n)

	kind, n = detectBOM([]byte{0xFF, 0xFE, 'h', 0})
	assert.Equal(t, bomUTF16LE, kind)
	assert.Equal(t, 2, n)

	kind, n = detectBOM([]byte("<?xml version=\"1.0\"?>"))
	assert.Equal(t, bomNone, kind)
	assert.Equal(t, 0, n)
}

func TestLatin1Sniff(t *testing.T) {
	assert.True(t, latin1Sniff([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><r/>`)))
	assert.True(t, latin1Sniff([]byte(`<?xml version="1.0" encoding="latin1"?><r/>`)))
	assert.False(t, latin1Sniff([]byte(`<?xml version="1.0" encoding="UTF-8"?><r/>`)))
	assert.False(t, latin1Sniff([]byte(`<r/>`)))
}

func TestToUTF8Latin1(t *testing.T) {
	// 0xE9 is 'é' in ISO-8859-1.
	out, err := toUTF8(latin1Encoding, []byte{'c', 0xE9, 'd'})
	require.NoError(t, err)
	assert.Equal(t, "céd", string(out))
}

func TestUTF16EncodingSelection(t *testing.T) {
	assert.NotNil(t, utf16Encoding(bomUTF16BE))
	assert.NotNil(t, utf16Encoding(bomUTF16LE))
}

func TestFoldLatin1NELRewritesToLF(t *testing.T) {
	out := foldLatin1NEL([]byte{'a', 0x85, 'b'})
	assert.Equal(t, []byte{'a', '\n', 'b'}, out)
}

func TestLatin1NELFoldsToLFNotNEL(t *testing.T) {
	// Without folding, ISO-8859-1 0x85 decodes to U+0085 (NEL, "\xc2\x85"
	// in UTF-8); §4.1 requires it fold to plain LF instead.
	out, err := toUTF8(latin1Encoding, foldLatin1NEL([]byte{'a', 0x85, 'b'}))
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(out))
}

func TestFoldLatin1NELReaderRewritesOnRead(t *testing.T) {
	r := foldLatin1NELReader{r: bytes.NewReader([]byte{'x', 0x85, 'y'})}
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{'x', '\n', 'y'}, buf[:n])
}

func TestPreprocessFoldsLatin1NELToLF(t *testing.T) {
	doc := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><root>a`), 0x85)
	doc = append(doc, 'b', '<', '/', 'r', 'o', 'o', 't', '>')
	r, err := Preprocess(doc)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "a\nb")
}
