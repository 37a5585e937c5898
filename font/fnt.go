// Package font decodes Playdate FNT containers: a two-level bitmap index
// (which pages exist, which glyphs exist within a page) over per-glyph
// kerning tables and headerless embedded img.Cell glyph bitmaps. The
// page/glyph offset-table-with-implicit-trailing-entry shape is the same
// one imagetable.Parse uses for its cell table, applied twice (once for
// pages, once for glyphs within a page).
package font

import (
	"sort"

	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/img"
	"github.com/scratchminer/pdkit/pderr"
)

// Magic is the required magic at offset 0 of a standalone .pft/FNT file.
var Magic = []byte("Playdate FNT")

const (
	glyphsPerPage = 256
	numPages      = 512
)

// Kerning is one (next codepoint, adjustment) pair consulted by GetWidth
// when laying out two adjacent characters.
type Kerning struct {
	NextCodepoint rune
	Adjustment    int8
}

// Glyph is one decoded character: its bitmap plus advance and kerning
// metadata.
type Glyph struct {
	Codepoint rune
	Advance   int
	Kerning   []Kerning
	Image     *img.Cell
}

// Font is the full decoded glyph set, indexed by codepoint on demand via
// GetGlyph rather than eagerly materialized as a dense array — most of the
// 512*256 codepoint space is absent in any real font.
type Font struct {
	MaxWidth, MaxHeight int
	Tracking            int
	glyphs              map[rune]*Glyph
}

// ParseFile reads a standalone FNT file: magic, flags word, optional
// compressed header, then the font body.
func ParseFile(r *binreader.Reader) (*Font, error) {
	if _, err := container.Parse(r, container.Options{Format: "FNT", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes a font body positioned just after any magic/flags/
// compressed-header preamble.
func Parse(r *binreader.Reader) (*Font, error) {
	offset := int64(r.Tell())
	maxWidth, err := r.ReadU8()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "header", offset, "max_width")
	}
	maxHeight, err := r.ReadU8()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "header", offset, "max_height")
	}
	tracking, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "header", offset, "tracking")
	}

	pageBitmapOffset := int64(r.Tell())
	pageBitmap := r.ReadBin(numPages / 8)
	if len(pageBitmap) < numPages/8 {
		return nil, pderr.Newf(pderr.KindShortRead, "FNT", "header", pageBitmapOffset, "page bitmap: need %d bytes, have %d", numPages/8, len(pageBitmap))
	}
	presentPages := setBitsLSB(pageBitmap, numPages)

	pageOffsets := make([]uint32, len(presentPages))
	for i := range pageOffsets {
		o, err := r.ReadU32()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "header", int64(r.Tell()), "page offset table entry")
		}
		pageOffsets[i] = o
	}

	headerEnd := r.Tell()
	totalAfterHeader := r.Len() - headerEnd

	f := &Font{
		MaxWidth:  int(maxWidth),
		MaxHeight: int(maxHeight),
		Tracking:  int(tracking),
		glyphs:    make(map[rune]*Glyph),
	}

	for i, pageIdx := range presentPages {
		start := int(pageOffsets[i])
		var end int
		if i+1 < len(pageOffsets) {
			end = int(pageOffsets[i+1])
		} else {
			end = totalAfterHeader
		}
		if start < 0 || end < start || headerEnd+end > r.Len() {
			return nil, pderr.Newf(pderr.KindSizeMismatch, "FNT", "body", int64(headerEnd+start), "page %d offsets [%d,%d) out of range", pageIdx, start, end)
		}

		pageBytes := r.Bytes()[headerEnd+start : headerEnd+end]
		if err := parsePage(f, pageIdx, pageBytes); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func parsePage(f *Font, pageIdx int, pageBytes []byte) error {
	pr := binreader.New(pageBytes)
	if err := pr.Advance(3); err != nil { // reserved; nonzero means a layout this decoder doesn't understand
		return pderr.Wrap(err, pderr.KindShortRead, "FNT", "page", int64(pageIdx), "reserved")
	}
	for _, b := range pageBytes[:3] {
		if b != 0 {
			return pderr.Newf(pderr.KindUnsupportedFeature, "FNT", "page", int64(pageIdx), "page reserved bytes nonzero (wide-font layout not implemented)")
		}
	}

	numGlyphs, err := pr.ReadU8()
	if err != nil {
		return pderr.Wrap(err, pderr.KindShortRead, "FNT", "page", int64(pageIdx), "num_glyphs")
	}

	glyphBitmapOffset := pr.Tell()
	glyphBitmap := pr.ReadBin(glyphsPerPage / 8)
	if len(glyphBitmap) < glyphsPerPage/8 {
		return pderr.Newf(pderr.KindShortRead, "FNT", "page", int64(glyphBitmapOffset), "glyph bitmap: need %d bytes, have %d", glyphsPerPage/8, len(glyphBitmap))
	}
	presentGlyphs := setBitsLSB(glyphBitmap, glyphsPerPage)
	if len(presentGlyphs) != int(numGlyphs) {
		return pderr.Newf(pderr.KindSizeMismatch, "FNT", "page", int64(pageIdx), "glyph bitmap has %d set bits, num_glyphs says %d", len(presentGlyphs), numGlyphs)
	}

	glyphOffsets := make([]uint16, numGlyphs)
	for i := range glyphOffsets {
		o, err := pr.ReadU16()
		if err != nil {
			return pderr.Wrap(err, pderr.KindShortRead, "FNT", "page", int64(pr.Tell()), "glyph offset table entry")
		}
		glyphOffsets[i] = o
	}
	if err := pr.Align(4); err != nil {
		return pderr.Wrap(err, pderr.KindShortRead, "FNT", "page", int64(pr.Tell()), "align glyph offset table")
	}

	glyphHeaderEnd := pr.Tell()
	totalAfterGlyphHeader := len(pageBytes) - glyphHeaderEnd

	for i, slot := range presentGlyphs {
		start := int(glyphOffsets[i])
		var end int
		if i+1 < len(glyphOffsets) {
			end = int(glyphOffsets[i+1])
		} else {
			end = totalAfterGlyphHeader
		}
		if start < 0 || end < start || glyphHeaderEnd+end > len(pageBytes) {
			return pderr.Newf(pderr.KindSizeMismatch, "FNT", "page", int64(pageIdx), "glyph slot %d offsets [%d,%d) out of range", slot, start, end)
		}

		codepoint := rune(pageIdx*glyphsPerPage + slot)
		glyphBytes := pageBytes[glyphHeaderEnd+start : glyphHeaderEnd+end]
		g, err := parseGlyph(codepoint, glyphBytes)
		if err != nil {
			return err
		}
		f.glyphs[codepoint] = g
	}
	return nil
}

func parseGlyph(codepoint rune, data []byte) (*Glyph, error) {
	gr := binreader.New(data)
	offset := int64(gr.Tell())

	advance, err := gr.ReadU8()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", offset, "advance")
	}
	k8count, err := gr.ReadU8()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", offset, "k8")
	}
	k24count, err := gr.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", offset, "k24")
	}

	var kerns []Kerning
	for i := 0; i < int(k8count); i++ {
		next, err := gr.ReadU8()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", int64(gr.Tell()), "k8 entry")
		}
		adj, err := gr.ReadS8()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", int64(gr.Tell()), "k8 entry")
		}
		kerns = append(kerns, Kerning{NextCodepoint: rune(next), Adjustment: adj})
	}
	if err := gr.Align(4); err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", int64(gr.Tell()), "align after k8 table")
	}
	for i := 0; i < int(k24count); i++ {
		next, err := gr.ReadU24()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", int64(gr.Tell()), "k24 entry")
		}
		adj, err := gr.ReadS8()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "FNT", "glyph", int64(gr.Tell()), "k24 entry")
		}
		kerns = append(kerns, Kerning{NextCodepoint: rune(next), Adjustment: adj})
	}

	imgReader := binreader.New(append([]byte{0, 0, 0, 0}, gr.ReadBin(-1)...))
	if _, err := container.Parse(imgReader, container.Options{Format: "IMG", SkipMagic: true}); err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "FNT", "glyph", offset, "glyph flags word")
	}
	cell, err := img.Parse(imgReader)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "FNT", "glyph", offset, "glyph image")
	}

	adv := int(advance)
	if adv == 0 {
		adv = cell.Width
	}

	return &Glyph{Codepoint: codepoint, Advance: adv, Kerning: kerns, Image: cell}, nil
}

// setBitsLSB returns the indices of set bits in buf, LSB-first within each
// byte, up to count bits.
func setBitsLSB(buf []byte, count int) []int {
	var out []int
	for i := 0; i < count; i++ {
		if buf[i/8]>>uint(i%8)&1 != 0 {
			out = append(out, i)
		}
	}
	return out
}

// Codepoints returns every decoded codepoint in ascending order, for
// dumping a font's coverage without exposing the backing map.
func (f *Font) Codepoints() []rune {
	out := make([]rune, 0, len(f.glyphs))
	for c := range f.glyphs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetGlyph looks up a decoded glyph by codepoint.
func (f *Font) GetGlyph(codepoint rune) (*Glyph, error) {
	g, ok := f.glyphs[codepoint]
	if !ok {
		return nil, pderr.Newf(pderr.KindNotFound, "FNT", "lookup", -1, "no glyph for codepoint U+%04X", codepoint)
	}
	return g, nil
}

// GetWidth sums tracking + 1 + advance + kerning(next) over text, stopping
// at the first line separator ('\n').
func (f *Font) GetWidth(text string) (int, error) {
	runes := []rune(text)
	total := 0
	for i, c := range runes {
		if c == '\n' {
			break
		}
		g, err := f.GetGlyph(c)
		if err != nil {
			return 0, err
		}
		total += f.Tracking + 1 + g.Advance
		if i+1 < len(runes) {
			next := runes[i+1]
			for _, k := range g.Kerning {
				if k.NextCodepoint == next {
					total += int(k.Adjustment)
					break
				}
			}
		}
	}
	return total, nil
}
