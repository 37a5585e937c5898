// Package container factors out the "magic number + flags word + optional
// compressed-header" preamble shared by IMG/IMT/VID/STR/FNT, the way the
// teacher's media/container packages each wrap a bufio.Reader with a
// format-specific header reader before handing off to a body parser.
package container

import (
	"bytes"

	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/pderr"
)

// DecompHeaderSize is the fixed width of the format-specific
// decompressed-header block that precedes a zlib stream when the
// compressed bit is set.
const DecompHeaderSize = 16

// Options configures one container preamble parse.
type Options struct {
	// Format names the container for error reporting, e.g. "IMG".
	Format string
	// PrimaryMagic is the required magic when SkipMagic is false.
	PrimaryMagic []byte
	// SecondaryMagic, if non-nil, is also accepted (format-version
	// dualism, e.g. BIN's "Playdate PDX" / "Playdate BIN").
	SecondaryMagic []byte
	// SkipMagic permits loading headerless sub-payloads: images nested
	// inside an IMT/PDZ/FNT never carry their own magic or a real
	// flags word, only the caller-synthesized 4 zero bytes standing in
	// for one.
	SkipMagic bool
}

// Preamble is what parsing a container header yields.
type Preamble struct {
	MatchedSecondary bool
	Compressed       bool
	// DecompHeader is the 16-byte format-specific header that precedes
	// the zlib stream when Compressed is true, else nil.
	DecompHeader []byte
}

// Parse consumes the magic (unless skipped), the flags word, and — if the
// compressed bit is set — the 16-byte decompressed-header block, then
// inflates the remainder of r in place via r.Decompress.
func Parse(r *binreader.Reader, opts Options) (Preamble, error) {
	var pre Preamble

	if !opts.SkipMagic {
		magicLen := len(opts.PrimaryMagic)
		offset := int64(r.Tell())
		got := r.ReadBin(magicLen)
		if len(got) < magicLen {
			return pre, pderr.Newf(pderr.KindShortRead, opts.Format, "magic", offset, "short read of %d-byte magic", magicLen)
		}
		if bytes.Equal(got, opts.PrimaryMagic) {
			// matched primary
		} else if opts.SecondaryMagic != nil && bytes.Equal(got, opts.SecondaryMagic) {
			pre.MatchedSecondary = true
		} else {
			return pre, pderr.Newf(pderr.KindBadMagic, opts.Format, "magic", offset, "unrecognized magic %q", got)
		}
	}

	flagsOffset := int64(r.Tell())
	flags, err := r.ReadU32()
	if err != nil {
		return pre, pderr.Wrap(err, pderr.KindShortRead, opts.Format, "flags", flagsOffset, "read flags word")
	}

	pre.Compressed = flags&0x80000000 != 0
	if !pre.Compressed {
		return pre, nil
	}

	hdrOffset := int64(r.Tell())
	hdr := r.ReadBin(DecompHeaderSize)
	if len(hdr) < DecompHeaderSize {
		return pre, pderr.Newf(pderr.KindShortRead, opts.Format, "decompressed-header", hdrOffset, "need %d bytes, have %d", DecompHeaderSize, len(hdr))
	}
	pre.DecompHeader = hdr

	if err := r.Decompress(); err != nil {
		return pre, err
	}
	return pre, nil
}
