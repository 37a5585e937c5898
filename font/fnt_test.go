package font

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/binreader"
)

func miniGlyphImage(width, height uint16, colour byte) []byte {
	return []byte{
		byte(width), byte(width >> 8),
		byte(height), byte(height >> 8),
		0x01, 0x00, // stride
		0x00, 0x00, 0x00, 0x00, // clip_l, clip_r
		0x00, 0x00, 0x00, 0x00, // clip_t, clip_b
		0x00, 0x00, // flags
		colour,
	}
}

// buildOnePageOneGlyphFont places 'A' (U+0041, page 0 slot 65) alone in an
// otherwise-empty page bitmap.
func buildOnePageOneGlyphFont(advance, k8 uint8, k24 uint16, image []byte) []byte {
	glyph := []byte{advance, k8, byte(k24), byte(k24 >> 8)}
	glyph = append(glyph, image...)

	var page []byte
	page = append(page, 0x00, 0x00, 0x00) // reserved
	page = append(page, 0x01)             // num_glyphs
	glyphBitmap := make([]byte, glyphsPerPage/8)
	glyphBitmap[65/8] = 1 << (65 % 8)
	page = append(page, glyphBitmap...)
	page = append(page, 0x00, 0x00) // glyph offset[0] = 0
	for len(page)%4 != 0 {
		page = append(page, 0x00)
	}
	page = append(page, glyph...)

	var buf []byte
	buf = append(buf, 0x08, 0x08) // max_width, max_height
	buf = append(buf, 0x01, 0x00) // tracking = 1
	pageBitmap := make([]byte, numPages/8)
	pageBitmap[0] = 0x01 // page 0 present
	buf = append(buf, pageBitmap...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // page offset[0] = 0
	buf = append(buf, page...)
	return buf
}

func TestParseSingleGlyphFallbackAdvance(t *testing.T) {
	image := miniGlyphImage(8, 1, 0xFF)
	buf := buildOnePageOneGlyphFont(0, 0, 0, image)

	f, err := Parse(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, 8, f.MaxWidth)
	require.Equal(t, 1, f.Tracking)

	g, err := f.GetGlyph('A')
	require.NoError(t, err)
	require.Equal(t, 8, g.Advance) // fell back to image width since advance byte was 0
	require.Equal(t, 8, g.Image.Width)
}

func TestGetGlyphMissingCodepoint(t *testing.T) {
	image := miniGlyphImage(8, 1, 0xFF)
	buf := buildOnePageOneGlyphFont(5, 0, 0, image)

	f, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	_, err = f.GetGlyph('B')
	require.Error(t, err)
}

func TestGetWidthSumsTrackingAndAdvance(t *testing.T) {
	image := miniGlyphImage(8, 1, 0xFF)
	buf := buildOnePageOneGlyphFont(6, 0, 0, image)

	f, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	w, err := f.GetWidth("A")
	require.NoError(t, err)
	require.Equal(t, f.Tracking+1+6, w)
}

func TestGetWidthAppliesKerning(t *testing.T) {
	image := miniGlyphImage(8, 1, 0xFF)
	// k8 entry: next codepoint 'A' (0x41), kerning -2.
	buf := buildOnePageOneGlyphFont(6, 1, 0, image)
	// insert the k8 entry bytes right after the (advance,k8,k24) header we
	// built in buildOnePageOneGlyphFont's glyph slice; easiest to rebuild by
	// hand here instead of threading it through the helper.
	glyph := []byte{6, 1, 0, 0, 0x41, 0xFE} // next=0x41, kerning=-2, then align pad
	for len(glyph)%4 != 0 {
		// glyph header(4) + k8 entry(2) = 6; pad to 4-byte boundary (8)
		glyph = append(glyph, 0x00)
	}
	glyph = append(glyph, image...)

	var page []byte
	page = append(page, 0x00, 0x00, 0x00, 0x01)
	glyphBitmap := make([]byte, glyphsPerPage/8)
	glyphBitmap[65/8] = 1 << (65 % 8)
	page = append(page, glyphBitmap...)
	page = append(page, 0x00, 0x00)
	for len(page)%4 != 0 {
		page = append(page, 0x00)
	}
	page = append(page, glyph...)

	var full []byte
	full = append(full, 0x08, 0x08, 0x01, 0x00)
	pageBitmap := make([]byte, numPages/8)
	pageBitmap[0] = 0x01
	full = append(full, pageBitmap...)
	full = append(full, 0x00, 0x00, 0x00, 0x00)
	full = append(full, page...)
	_ = buf

	f, err := Parse(binreader.New(full))
	require.NoError(t, err)

	w, err := f.GetWidth("AA")
	require.NoError(t, err)
	require.Equal(t, (f.Tracking+1+6)*2-2, w)
}

func TestPageReservedBytesNonzeroIsUnsupported(t *testing.T) {
	image := miniGlyphImage(8, 1, 0xFF)
	buf := buildOnePageOneGlyphFont(6, 0, 0, image)
	// corrupt the page's 3 reserved bytes, which sit right after the
	// 64-byte page bitmap + 4-byte page offset table in the font header.
	reservedOffset := 4 + numPages/8 + 4
	buf[reservedOffset] = 0x01

	_, err := Parse(binreader.New(buf))
	require.Error(t, err)
}
