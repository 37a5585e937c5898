// Package binreader provides the stateful little-endian cursor every
// Playdate container format parses its bytes through. It mirrors the
// byte-cursor idiom the teacher's media/slice/sliceio package uses to walk
// a flat byte slice (readlen bookkeeping, explicit remaining-bytes checks)
// but returns typed results instead of populating shared scratch buffers.
package binreader

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/scratchminer/pdkit/pderr"
)

// ErrEOFValue is returned by ReadU8 (and anything built on it) when the
// cursor is already at the end of the buffer. PDZ's entry loop treats this
// as its natural terminator rather than a failure — check with errors.Is.
var ErrEOFValue = errors.New("binreader: no value at eof")

// Reader is an immutable byte slice plus a mutable read cursor.
type Reader struct {
	buf        []byte
	pos        int
	decompOnce bool
}

// New wraps an in-memory buffer. The Reader does not take ownership in the
// sense of mutating the caller's slice in place — Decompress replaces the
// internal reference, it never writes through buf.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// FromFile eagerly slurps the file at path into memory.
func FromFile(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BinReader", "open", -1, "read file "+path)
	}
	return New(data), nil
}

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Tell returns the current cursor position.
func (r *Reader) Tell() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// IsEOF reports whether the cursor has consumed the whole buffer.
func (r *Reader) IsEOF() bool { return r.pos >= len(r.buf) }

// Bytes returns the entire backing buffer (not a copy).
func (r *Reader) Bytes() []byte { return r.buf }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(abs int) error {
	if abs < 0 || abs > len(r.buf) {
		return pderr.Newf(pderr.KindShortRead, "BinReader", "seek", int64(abs), "seek target out of range [0,%d]", len(r.buf))
	}
	r.pos = abs
	return nil
}

// SeekRelTo seeks to base+off, the pattern every container uses to locate a
// child payload relative to the end of its own header.
func (r *Reader) SeekRelTo(base, off int) error {
	return r.Seek(base + off)
}

// Advance moves the cursor forward by n bytes (n may be negative).
func (r *Reader) Advance(n int) error {
	return r.Seek(r.pos + n)
}

// Align advances the cursor until Tell()%mod == 0.
func (r *Reader) Align(mod int) error {
	if mod <= 0 {
		return nil
	}
	rem := r.pos % mod
	if rem == 0 {
		return nil
	}
	return r.Advance(mod - rem)
}

// ReadBin reads n bytes, or the remainder of the buffer if n < 0 or n
// exceeds what's left — it never silently short-reads beyond "take what is
// left", matching spec.md's readbin contract.
func (r *Reader) ReadBin(n int) []byte {
	if n < 0 || r.pos+n > len(r.buf) {
		n = len(r.buf) - r.pos
	}
	if n < 0 {
		n = 0
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *Reader) require(n int, phase string) error {
	if r.Remaining() < n {
		return pderr.Newf(pderr.KindShortRead, "BinReader", phase, int64(r.pos), "need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// ReadU8 returns ErrEOFValue (not wrapped in *pderr.Error) when the cursor
// is already at EOF — the sentinel that fuels PDZ's entry loop.
func (r *Reader) ReadU8() (uint8, error) {
	if r.IsEOF() {
		return 0, ErrEOFValue
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadS8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.require(2, "read-u16"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadS16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU24 reads a 3-byte little-endian unsigned integer, the width used for
// PDZ entry lengths and AUD sample rates.
func (r *Reader) ReadU24() (uint32, error) {
	if err := r.require(3, "read-u24"); err != nil {
		return 0, err
	}
	b := r.buf[r.pos : r.pos+3]
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	r.pos += 3
	return v, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.require(4, "read-u32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadS32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 single-precision float, used for
// VID's framerate field.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadString reads a null-terminated UTF-8 string, consuming the trailing
// NUL.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	for r.pos < len(r.buf) {
		if r.buf[r.pos] == 0 {
			s := string(r.buf[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
	return "", pderr.Newf(pderr.KindShortRead, "BinReader", "read-string", int64(start), "unterminated string")
}

// Decompress inflates the remaining bytes via zlib and replaces the
// backing buffer with the inflated copy, resetting the cursor to 0. It may
// be called at most once; subsequent calls are no-ops, matching the "one
// zlib stream per container" resource policy in spec.md §5.
func (r *Reader) Decompress() error {
	if r.decompOnce {
		return nil
	}
	r.decompOnce = true

	zr, err := zlib.NewReader(bytes.NewReader(r.buf[r.pos:]))
	if err != nil {
		return pderr.Wrap(err, pderr.KindInflateFailed, "BinReader", "decompress", int64(r.pos), "zlib header")
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return pderr.Wrap(err, pderr.KindInflateFailed, "BinReader", "decompress", int64(r.pos), "zlib stream")
	}

	r.buf = out
	r.pos = 0
	return nil
}

// Inflate is a free function wrapping compress/zlib for components (VID
// per-frame payloads, PDZ compressed entries) that decompress an isolated
// slice rather than "the remainder of this reader".
func Inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindInflateFailed, "zlib", "header", -1, "bad zlib header")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindInflateFailed, "zlib", "stream", -1, "inflate failed")
	}
	return out, nil
}
