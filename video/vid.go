// Package video decodes Playdate VID containers: a sequence of I/P/combined
// frames, each an independently zlib-compressed block, reconstructed via
// XOR against the previous frame's raw bytes. The per-frame seek-and-inflate
// loop mirrors the teacher's ts.go per-packet PES reassembly idiom (an
// offset table consulted before each payload read) adapted to whole-frame
// granularity instead of transport-stream packets.
package video

import (
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/img"
	"github.com/scratchminer/pdkit/pderr"
)

// Magic is the required magic at offset 0 of a standalone .pdv/VID file.
var Magic = []byte("Playdate VID")

// FrameKind tags how a frame's pixels were produced.
type FrameKind uint8

const (
	KindNone     FrameKind = 0
	KindI        FrameKind = 1
	KindP        FrameKind = 2
	KindCombined FrameKind = 3
)

// Video is the fully decoded sequence of frames.
type Video struct {
	NumFrames int
	Framerate float32
	Width     int
	Height    int
	Frames    []*img.Cell
	Kinds     []FrameKind
}

type frameEntry struct {
	offset uint32
	kind   FrameKind
}

// ParseFile reads a standalone VID file: magic, flags word, optional
// compressed header, then the frame sequence.
func ParseFile(r *binreader.Reader) (*Video, error) {
	if _, err := container.Parse(r, container.Options{Format: "VID", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes a video body positioned just after any magic/flags/
// compressed-header preamble.
func Parse(r *binreader.Reader) (*Video, error) {
	offset := int64(r.Tell())
	if err := r.Advance(4); err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "skip reserved")
	}
	numFrames, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "num_frames")
	}
	if err := r.Advance(2); err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "skip reserved")
	}
	framerate, err := r.ReadF32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "framerate")
	}
	width, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "width")
	}
	height, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", offset, "height")
	}

	entries := make([]frameEntry, int(numFrames)+1)
	for i := range entries {
		word, err := r.ReadU32()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "VID", "header", int64(r.Tell()), "frame table entry")
		}
		entries[i] = frameEntry{offset: word >> 2, kind: FrameKind(word & 0x3)}
	}

	headerEnd := r.Tell()

	v := &Video{
		NumFrames: int(numFrames),
		Framerate: framerate,
		Width:     int(width),
		Height:    int(height),
		Frames:    make([]*img.Cell, numFrames),
		Kinds:     make([]FrameKind, numFrames),
	}

	var prevRaw []byte
	for i := 0; i < int(numFrames); i++ {
		start := int(entries[i].offset)
		end := int(entries[i+1].offset)
		if end < start || headerEnd+end > r.Len() {
			return nil, pderr.Newf(pderr.KindSizeMismatch, "VID", "frame", int64(headerEnd+start), "frame %d byte range [%d,%d) out of range", i, start, end)
		}
		compressed := r.Bytes()[headerEnd+start : headerEnd+end]

		inflated, err := binreader.Inflate(compressed)
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindInflateFailed, "VID", "frame", int64(headerEnd+start), "inflate frame")
		}

		kind := entries[i].kind
		v.Kinds[i] = kind

		var cell *img.Cell
		var raw []byte
		switch kind {
		case KindI:
			cell, err = img.FromBytes(inflated, v.Width, v.Height, false)
			if err != nil {
				return nil, pderr.Wrap(err, pderr.KindBadFormat, "VID", "frame", int64(headerEnd+start), "decode I-frame")
			}
			raw = inflated

		case KindP:
			if prevRaw == nil {
				return nil, pderr.Newf(pderr.KindBadFormat, "VID", "frame", int64(headerEnd+start), "P-frame %d has no preceding frame", i)
			}
			if len(inflated) != len(prevRaw) {
				return nil, pderr.Newf(pderr.KindSizeMismatch, "VID", "frame", int64(headerEnd+start), "P-frame %d length %d != previous raw length %d", i, len(inflated), len(prevRaw))
			}
			raw = xorBytes(inflated, prevRaw)
			cell, err = img.FromBytes(raw, v.Width, v.Height, false)
			if err != nil {
				return nil, pderr.Wrap(err, pderr.KindBadFormat, "VID", "frame", int64(headerEnd+start), "decode P-frame")
			}

		case KindCombined:
			if len(inflated) < 2 {
				return nil, pderr.Newf(pderr.KindShortRead, "VID", "frame", int64(headerEnd+start), "combined frame %d too short for I-length prefix", i)
			}
			iLen := int(inflated[0]) | int(inflated[1])<<8
			if 2+iLen > len(inflated) {
				return nil, pderr.Newf(pderr.KindSizeMismatch, "VID", "frame", int64(headerEnd+start), "combined frame %d I-length %d exceeds payload", i, iLen)
			}
			iPayload := inflated[2 : 2+iLen]
			pPayload := inflated[2+iLen:]
			if len(iPayload) != len(pPayload) {
				return nil, pderr.Newf(pderr.KindSizeMismatch, "VID", "frame", int64(headerEnd+start), "combined frame %d I/P slice length mismatch", i)
			}
			// I := I-payload XOR raw(P-payload), per spec.md §4.5/§9.
			raw = xorBytes(iPayload, pPayload)
			cell, err = img.FromBytes(raw, v.Width, v.Height, false)
			if err != nil {
				return nil, pderr.Wrap(err, pderr.KindBadFormat, "VID", "frame", int64(headerEnd+start), "decode combined frame")
			}

		default:
			return nil, pderr.Newf(pderr.KindBadFormat, "VID", "frame", int64(headerEnd+start), "unknown frame kind %d", kind)
		}

		v.Frames[i] = cell
		prevRaw = raw
	}

	return v, nil
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
