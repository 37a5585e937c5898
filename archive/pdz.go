package archive

import (
	"errors"

	"github.com/scratchminer/pdkit/audio"
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/font"
	"github.com/scratchminer/pdkit/img"
	"github.com/scratchminer/pdkit/imagetable"
	"github.com/scratchminer/pdkit/pderr"
	"github.com/scratchminer/pdkit/scripthost"
	"github.com/scratchminer/pdkit/strtab"
	"github.com/scratchminer/pdkit/video"
)

// Magic is the required magic at offset 0 of a standalone .pdz file.
var Magic = []byte("Playdate PDZ")

// Kind tags an archive entry's payload type, the low 7 bits of its flags
// byte.
type Kind uint8

const (
	KindNone Kind = 0
	KindLua  Kind = 1
	KindIMG  Kind = 2
	KindIMT  Kind = 3
	KindVID  Kind = 4
	KindAUD  Kind = 5
	KindSTR  Kind = 6
	KindFNT  Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindLua:
		return "lua"
	case KindIMG:
		return "img"
	case KindIMT:
		return "imt"
	case KindVID:
		return "vid"
	case KindAUD:
		return "aud"
	case KindSTR:
		return "str"
	case KindFNT:
		return "fnt"
	default:
		return "none"
	}
}

// FileEntry is one decoded archive member. At most one typed field besides
// Raw/Name/Kind is populated, matching Kind; NONE and Lua entries carry
// only Raw.
type FileEntry struct {
	Name string
	Kind Kind
	Raw  []byte // always populated: the decoded (post-inflate) payload bytes

	Image      *img.Cell
	ImageTable *imagetable.Table
	Video      *video.Video
	Audio      *audio.File
	Strings    *strtab.Table
	Font       *font.Font
}

// Archive is a fully decoded PDZ: a directory tree of FileEntry plus
// accumulated size/kind statistics.
type Archive struct {
	Root  *Entry
	Stats Stats

	executedLua map[string]bool
}

// ParseFile reads a standalone .pdz file: magic, flags word, optional
// compressed header, then the entry stream.
func ParseFile(r *binreader.Reader) (*Archive, error) {
	if _, err := container.Parse(r, container.Options{Format: "PDZ", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes the entry stream positioned just after any magic/flags/
// compressed-header preamble. The loop terminates cleanly when the next
// flags byte read hits binreader.ErrEOFValue — a PDZ body has no entry
// count, only an implicit end-of-buffer.
func Parse(r *binreader.Reader) (*Archive, error) {
	a := &Archive{Root: newDir(""), executedLua: make(map[string]bool)}

	for {
		entryOffset := int64(r.Tell())
		flagsByte, err := r.ReadU8()
		if err != nil {
			if errors.Is(err, binreader.ErrEOFValue) {
				break
			}
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "entry", entryOffset, "flags byte")
		}

		compressed := flagsByte&0x80 != 0
		kind := Kind(flagsByte & 0x7f)

		length, err := r.ReadU24()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "entry", entryOffset, "length")
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "entry", entryOffset, "name")
		}
		if err := r.Align(4); err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "entry", entryOffset, "align before payload")
		}
		payload := r.ReadBin(int(length))
		if len(payload) < int(length) {
			return nil, pderr.Newf(pderr.KindShortRead, "PDZ", "entry", entryOffset, "%s: need %d payload bytes, have %d", name, length, len(payload))
		}

		body, err := inflateEntry(kind, compressed, payload, name, entryOffset)
		if err != nil {
			return nil, err
		}

		fe, err := instantiate(kind, name, body)
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindBadFormat, "PDZ", "entry", entryOffset, "decode "+name)
		}

		a.Root.insert(name, fe)
		a.Stats.add(kind, len(payload))
	}

	return a, nil
}

// inflateEntry applies PDZ's compressed-entry convention: for AUD, the
// first 4 raw bytes (framerate+fmt) are left untouched ahead of an ignored
// decompressed-size word, since inflating the framerate/fmt header would
// destroy audio.Parse's ability to read them uncompressed; every other
// kind has its decompressed-size word first and everything after it is the
// zlib stream.
func inflateEntry(kind Kind, compressed bool, payload []byte, name string, offset int64) ([]byte, error) {
	if !compressed {
		return payload, nil
	}

	if kind == KindAUD {
		if len(payload) < 8 {
			return nil, pderr.Newf(pderr.KindShortRead, "PDZ", "entry", offset, "%s: compressed AUD entry too short for header", name)
		}
		inflated, err := binreader.Inflate(payload[8:])
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindInflateFailed, "PDZ", "entry", offset, "inflate "+name)
		}
		out := make([]byte, 0, 4+len(inflated))
		out = append(out, payload[:4]...)
		out = append(out, inflated...)
		return out, nil
	}

	if len(payload) < 4 {
		return nil, pderr.Newf(pderr.KindShortRead, "PDZ", "entry", offset, "%s: compressed entry too short for header", name)
	}
	inflated, err := binreader.Inflate(payload[4:])
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindInflateFailed, "PDZ", "entry", offset, "inflate "+name)
	}
	return inflated, nil
}

// headerlessReader wraps body in the synthetic "four zero bytes standing
// in for the absent file-flags word" preamble shared by every nested
// IMG/IMT/VID/STR/FNT payload, and consumes that word via container.Parse
// before returning — callers then call the format's own Parse directly.
func headerlessReader(format string, body []byte) (*binreader.Reader, error) {
	synth := make([]byte, 0, len(body)+4)
	synth = append(synth, 0, 0, 0, 0)
	synth = append(synth, body...)
	r := binreader.New(synth)
	if _, err := container.Parse(r, container.Options{Format: format, SkipMagic: true}); err != nil {
		return nil, err
	}
	return r, nil
}

// instantiate dispatches a decoded entry body to its format-specific
// parser. AUD, Lua and NONE entries carry no nested flags word even in
// their headerless form, so they parse directly from body.
func instantiate(kind Kind, name string, body []byte) (*FileEntry, error) {
	fe := &FileEntry{Name: name, Kind: kind, Raw: body}

	switch kind {
	case KindNone, KindLua:
		return fe, nil

	case KindAUD:
		af, err := audio.Parse(binreader.New(body))
		if err != nil {
			return nil, err
		}
		fe.Audio = af
		return fe, nil

	case KindIMG:
		r, err := headerlessReader("IMG", body)
		if err != nil {
			return nil, err
		}
		cell, err := img.Parse(r)
		if err != nil {
			return nil, err
		}
		fe.Image = cell
		return fe, nil

	case KindIMT:
		r, err := headerlessReader("IMT", body)
		if err != nil {
			return nil, err
		}
		tbl, err := imagetable.Parse(r)
		if err != nil {
			return nil, err
		}
		fe.ImageTable = tbl
		return fe, nil

	case KindVID:
		r, err := headerlessReader("VID", body)
		if err != nil {
			return nil, err
		}
		v, err := video.Parse(r)
		if err != nil {
			return nil, err
		}
		fe.Video = v
		return fe, nil

	case KindSTR:
		r, err := headerlessReader("STR", body)
		if err != nil {
			return nil, err
		}
		tbl, err := strtab.Parse(r)
		if err != nil {
			return nil, err
		}
		fe.Strings = tbl
		return fe, nil

	case KindFNT:
		r, err := headerlessReader("FNT", body)
		if err != nil {
			return nil, err
		}
		f, err := font.Parse(r)
		if err != nil {
			return nil, err
		}
		fe.Font = f
		return fe, nil

	default:
		return nil, pderr.Newf(pderr.KindBadFormat, "PDZ", "entry", -1, "%s: unknown kind %d", name, kind)
	}
}

// GetFile resolves a slash-separated path within the archive.
func (a *Archive) GetFile(path string) (*FileEntry, error) {
	return a.Root.Lookup(path)
}

// Insert places fe at path in the archive's tree, for callers (dispatch's
// directory walker) building an Archive outside of Parse.
func (a *Archive) Insert(path string, fe *FileEntry) {
	a.Root.insert(path, fe)
}

// RunLua executes the Lua bytecode entry at path exactly once per archive
// load, via host. A second call for the same path is a silent no-op,
// matching the Playdate runtime's import() semantics where re-importing an
// already-loaded module is cheap and side-effect-free.
func (a *Archive) RunLua(path string, host scripthost.Host, args ...interface{}) error {
	if a.executedLua[path] {
		return nil
	}
	fe, err := a.GetFile(path)
	if err != nil {
		return err
	}
	if fe.Kind != KindLua {
		return pderr.Newf(pderr.KindBadFormat, "PDZ", "run-lua", -1, "%s is not a Lua entry", path)
	}
	a.executedLua[path] = true
	return host.Execute(fe.Raw, args...)
}
