// Package img decodes Playdate IMG containers: a 1-bpp pixel plane plus an
// optional 1-bpp alpha plane, offset by a clip rectangle, into a pixel
// matrix of {0,1,2,3} palette indices. The clip/stride bit-twiddling below
// mirrors the nibble/bit extraction style of the teacher's h264parser NALU
// type masks (typ := b[0] & 0x1f) applied to a full 2D plane instead of a
// single byte.
package img

import (
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/pderr"
)

// Magic is the required magic at offset 0 of a standalone .pdi/IMG file.
var Magic = []byte("Playdate IMG")

const headerSize = 16

// Cell is a decoded image: pixels in {0,1,2,3} where bit 0 is colour
// (0 black, 1 white) and bit 1 is opacity (0 transparent, 1 opaque).
type Cell struct {
	Width, Height                  int
	ClipL, ClipR, ClipT, ClipB     int
	StoredWidth, StoredHeight      int
	Stride                         int
	HasAlpha                       bool
	Pixels                         [][]uint8
	// Raw is the bit-packed plane bytes consumed to build Pixels (colour
	// plane, then alpha plane if present), retained for VID's P-frame XOR
	// reconstruction chain.
	Raw []byte
}

// ParseFile reads a standalone .pdi file: magic, flags word, optional
// compressed header, then the image body.
func ParseFile(r *binreader.Reader) (*Cell, error) {
	if _, err := container.Parse(r, container.Options{Format: "IMG", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes an image body positioned just after any magic/flags/
// compressed-header preamble (including the headerless "prepend four zero
// bytes" form used by IMT/PDZ/FNT — callers feed a reader over
// [0,0,0,0]+body and Parse never cares that the flags word was synthetic).
func Parse(r *binreader.Reader) (*Cell, error) {
	hdrOffset := int64(r.Tell())

	width, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "width")
	}
	height, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "height")
	}
	if _, err := r.ReadU16(); err != nil { // stride field, recomputed below
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "stride")
	}
	clipL, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "clip_l")
	}
	clipR, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "clip_r")
	}
	clipT, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "clip_t")
	}
	clipB, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "clip_b")
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMG", "header", hdrOffset, "flags")
	}

	alphaPlanePresent := flags&0x3 != 0
	return decodeBody(r, int(width), int(height), int(clipL), int(clipR), int(clipT), int(clipB), alphaPlanePresent)
}

// FromBytes synthesises an image header for a raw 1-bpp payload with no
// clip rectangle — used by the video decoder to turn a reconstructed frame
// byte slice into pixels.
func FromBytes(data []byte, width, height int, hasAlpha bool) (*Cell, error) {
	r := binreader.New(data)
	return decodeBody(r, width, height, 0, 0, 0, 0, hasAlpha)
}

func decodeBody(r *binreader.Reader, width, height, clipL, clipR, clipT, clipB int, alphaPlanePresent bool) (*Cell, error) {
	if width < 0 || height < 0 || clipL < 0 || clipR < 0 || clipT < 0 || clipB < 0 {
		return nil, pderr.Newf(pderr.KindBadFormat, "IMG", "body", int64(r.Tell()), "negative dimension")
	}

	storedW := width + clipL + clipR
	storedH := height + clipT + clipB
	stride := (width + 7) / 8

	pixels := make([][]uint8, storedH)
	for y := range pixels {
		pixels[y] = make([]uint8, storedW)
	}

	bodyStart := r.Tell()

	for y := 0; y < height; y++ {
		rowOffset := int64(r.Tell())
		row := r.ReadBin(stride)
		if len(row) < stride {
			return nil, pderr.Newf(pderr.KindShortRead, "IMG", "body", rowOffset, "pixel row %d: need %d bytes, have %d", y, stride, len(row))
		}
		storedY := clipT + y
		for x := 0; x < width; x++ {
			bit := (row[x/8] >> uint(7-x%8)) & 1
			pixels[storedY][clipL+x] = bit | (1 << 1) // default: fully opaque
		}
	}

	anyClip := clipL != 0 || clipR != 0 || clipT != 0 || clipB != 0
	hasAlpha := alphaPlanePresent || anyClip

	if alphaPlanePresent {
		for y := 0; y < height; y++ {
			rowOffset := int64(r.Tell())
			row := r.ReadBin(stride)
			if len(row) < stride {
				return nil, pderr.Newf(pderr.KindShortRead, "IMG", "body", rowOffset, "alpha row %d: need %d bytes, have %d", y, stride, len(row))
			}
			storedY := clipT + y
			for x := 0; x < width; x++ {
				abit := (row[x/8] >> uint(7-x%8)) & 1
				storedX := clipL + x
				pixels[storedY][storedX] = (pixels[storedY][storedX] & 0x1) | (abit << 1)
			}
		}
	}
	// else: hasAlpha may still be true (clip present, no explicit plane) —
	// content pixels keep their default opaque bit, matching spec's "force
	// 1 if should_alpha without an explicit alpha plane".

	bodyEnd := r.Tell()
	raw := make([]byte, bodyEnd-bodyStart)
	copy(raw, r.Bytes()[bodyStart:bodyEnd])

	return &Cell{
		Width: width, Height: height,
		ClipL: clipL, ClipR: clipR, ClipT: clipT, ClipB: clipB,
		StoredWidth: storedW, StoredHeight: storedH,
		Stride:   stride,
		HasAlpha: hasAlpha,
		Pixels:   pixels,
		Raw:      raw,
	}
}
