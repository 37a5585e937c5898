// Package pdxbin decodes Playdate PDX/BIN executables: the versioned
// (magic-carrying, compressed, relocation-table) form and the legacy
// magic-less form, then synthesises a loadable ELF32 object from either.
package pdxbin

import (
	"bytes"

	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/pderr"
)

// MagicPrimary and MagicSecondary are the two magics a version-2 binary may
// carry — a format-version dualism, not a compression choice.
var (
	MagicPrimary   = []byte("Playdate PDX")
	MagicSecondary = []byte("Playdate BIN")
)

// legacyBase is subtracted from each of the legacy header's three absolute
// addresses to recover event_handler/filesz/memsz.
const legacyBase = uint32(0x6000000c)

// Binary is a decoded PDX/BIN payload, version 1 (legacy) or 2.
type Binary struct {
	Version          int
	MatchedSecondary bool // version 2 only
	BitFlags         uint32
	MD5              [16]byte
	EventHandler     uint32
	CodeSize         uint32
	MemSize          uint32
	Code             []byte
	Relocations      []uint32
}

// ParseFile detects version 2 (by magic) vs legacy (no magic) and decodes
// accordingly.
func ParseFile(r *binreader.Reader) (*Binary, error) {
	start := r.Tell()
	magic := r.ReadBin(len(MagicPrimary))

	matchedPrimary := bytes.Equal(magic, MagicPrimary)
	matchedSecondary := len(MagicSecondary) == len(magic) && bytes.Equal(magic, MagicSecondary)
	if matchedPrimary || matchedSecondary {
		return parseV2(r, matchedSecondary)
	}

	if err := r.Seek(start); err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", int64(start), "rewind for legacy form")
	}
	return parseLegacy(r)
}

func parseV2(r *binreader.Reader, matchedSecondary bool) (*Binary, error) {
	offset := int64(r.Tell())
	bitFlags, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", offset, "bitflags")
	}
	md5Bytes := r.ReadBin(16)
	if len(md5Bytes) < 16 {
		return nil, pderr.Newf(pderr.KindShortRead, "BIN", "header", int64(r.Tell()), "md5: need 16 bytes, have %d", len(md5Bytes))
	}
	var md5 [16]byte
	copy(md5[:], md5Bytes)

	codeSize, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", int64(r.Tell()), "code_size")
	}
	memSize, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", int64(r.Tell()), "mem_size")
	}
	eventHandler, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", int64(r.Tell()), "event_handler_offset")
	}
	relocCount, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", int64(r.Tell()), "reloc_count")
	}

	if err := r.Decompress(); err != nil {
		return nil, err
	}

	code := r.ReadBin(int(codeSize))
	if uint32(len(code)) < codeSize {
		return nil, pderr.Newf(pderr.KindShortRead, "BIN", "body", int64(r.Tell()), "code: need %d bytes, have %d", codeSize, len(code))
	}

	relocs := make([]uint32, relocCount)
	for i := range relocs {
		v, err := r.ReadU32()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "body", int64(r.Tell()), "relocation entry")
		}
		relocs[i] = v
	}

	return &Binary{
		Version: 2, MatchedSecondary: matchedSecondary,
		BitFlags: bitFlags, MD5: md5,
		EventHandler: eventHandler, CodeSize: codeSize, MemSize: memSize,
		Code: code, Relocations: relocs,
	}, nil
}

func parseLegacy(r *binreader.Reader) (*Binary, error) {
	offset := int64(r.Tell())
	eventHandlerAbs, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", offset, "event_handler (legacy)")
	}
	filesizeAbs, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", offset, "filesz (legacy)")
	}
	memsizeAbs, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "BIN", "header", offset, "memsz (legacy)")
	}

	if eventHandlerAbs < legacyBase || filesizeAbs < legacyBase || memsizeAbs < legacyBase {
		return nil, pderr.Newf(pderr.KindBadFormat, "BIN", "header", offset, "legacy header values below base 0x%08x", legacyBase)
	}

	code := r.ReadBin(-1)
	return &Binary{
		Version:      1,
		EventHandler: eventHandlerAbs - legacyBase,
		CodeSize:     filesizeAbs - legacyBase,
		MemSize:      memsizeAbs - legacyBase,
		Code:         code,
	}, nil
}
