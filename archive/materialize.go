package archive

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/scratchminer/pdkit/font"
	"github.com/scratchminer/pdkit/imageenc"
	"github.com/scratchminer/pdkit/imagetable"
	"github.com/scratchminer/pdkit/pderr"
)

// fontDump is the JSON shape written for FNT entries: spec.md names no
// native dump target for fonts, so this mirrors strtab's DumpJSON
// philosophy (a deterministic, diffable summary) rather than inventing a
// binary re-encoding.
type fontDump struct {
	MaxWidth   int      `json:"max_width"`
	MaxHeight  int      `json:"max_height"`
	Tracking   int      `json:"tracking"`
	Codepoints []uint32 `json:"codepoints"`
}

// Materialize walks the archive and writes each entry under dir in its
// native counterpart format: IMG -> .png, a matrix IMT -> one combined
// .png, a sequential IMT -> one .png per cell, VID -> .gif, AUD -> .wav,
// STR -> .json, FNT -> a small JSON metadata dump, NONE/Lua -> raw
// passthrough bytes. Directory structure mirrors the archive's paths.
func (a *Archive) Materialize(dir string, enc imageenc.Encoder) error {
	var walkErr error
	a.Root.Walk(func(path string, fe *FileEntry) {
		if walkErr != nil {
			return
		}
		walkErr = materializeOne(dir, path, fe, enc)
	})
	return walkErr
}

// MaterializeOne writes a single decoded entry to baseOut, suffixed per
// renderEntry's policy (e.g. baseOut+".png", or baseOut+"/0.png" for each
// cell of a sequential image table). Used by the decode command, which
// transcodes exactly one standalone asset rather than walking a tree.
func MaterializeOne(baseOut string, fe *FileEntry, enc imageenc.Encoder) ([]string, error) {
	outputs, err := renderEntry(fe, enc)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "PDZ", "materialize", -1, "render "+baseOut)
	}
	var written []string
	for suffix, data := range outputs {
		out := baseOut + suffix
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "materialize", -1, "mkdir for "+out)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "PDZ", "materialize", -1, "write "+out)
		}
		written = append(written, out)
	}
	return written, nil
}

func materializeOne(dir, path string, fe *FileEntry, enc imageenc.Encoder) error {
	outputs, err := renderEntry(fe, enc)
	if err != nil {
		return pderr.Wrap(err, pderr.KindBadFormat, "PDZ", "materialize", -1, "render "+path)
	}
	for suffix, data := range outputs {
		out := filepath.Join(dir, path+suffix)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return pderr.Wrap(err, pderr.KindShortRead, "PDZ", "materialize", -1, "mkdir for "+out)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return pderr.Wrap(err, pderr.KindShortRead, "PDZ", "materialize", -1, "write "+out)
		}
	}
	return nil
}

// renderEntry returns a map of filename-suffix (appended to the entry's
// archive path, e.g. ".png" or "/0.png") to file content. Every kind but
// sequential IMT produces exactly one suffix, "" for passthrough.
func renderEntry(fe *FileEntry, enc imageenc.Encoder) (map[string][]byte, error) {
	switch fe.Kind {
	case KindIMG:
		data, err := enc.EncodePNG(fe.Image.Pixels, fe.Image.StoredWidth, fe.Image.StoredHeight)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{".png": data}, nil

	case KindIMT:
		return renderImageTable(fe, enc)

	case KindVID:
		frames := make([][][]uint8, len(fe.Video.Frames))
		for i, cell := range fe.Video.Frames {
			frames[i] = cell.Pixels
		}
		durationMS := 1000
		if fe.Video.Framerate > 0 {
			durationMS = int(math.Round(1000 / float64(fe.Video.Framerate)))
		}
		data, err := enc.EncodeGIF(frames, fe.Video.Width, fe.Video.Height, durationMS)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{".gif": data}, nil

	case KindAUD:
		return map[string][]byte{".wav": fe.Audio.ToWAV()}, nil

	case KindSTR:
		data, err := fe.Strings.DumpJSON()
		if err != nil {
			return nil, err
		}
		return map[string][]byte{".json": data}, nil

	case KindFNT:
		data, err := dumpFontJSON(fe.Font)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{".json": data}, nil

	default: // KindNone, KindLua
		return map[string][]byte{"": fe.Raw}, nil
	}
}

// renderImageTable materialises a matrix table as one combined grid PNG
// (cells already arranged row-major), or a sequential table as one PNG per
// cell named <index>.png inside a directory matching the entry's own name,
// per spec.md's dump_files policy.
func renderImageTable(fe *FileEntry, enc imageenc.Encoder) (map[string][]byte, error) {
	t := fe.ImageTable

	if t.IsMatrix {
		data, err := renderImageGrid(t, enc)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{".png": data}, nil
	}

	out := make(map[string][]byte, len(t.Cells[0]))
	for i, cell := range t.Cells[0] {
		data, err := enc.EncodePNG(cell.Pixels, cell.StoredWidth, cell.StoredHeight)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprintf("/%d.png", i)] = data
	}
	return out, nil
}

func renderImageGrid(t *imagetable.Table, enc imageenc.Encoder) ([]byte, error) {
	if t.NumImages == 0 {
		return enc.EncodePNG(nil, 0, 0)
	}

	cellW, cellH := 0, 0
	for _, row := range t.Cells {
		for _, c := range row {
			if c.StoredWidth > cellW {
				cellW = c.StoredWidth
			}
			if c.StoredHeight > cellH {
				cellH = c.StoredHeight
			}
		}
	}

	rows := len(t.Cells)
	cols := t.NumPerRow

	width := cols * cellW
	height := rows * cellH
	pixels := make([][]uint8, height)
	for y := range pixels {
		pixels[y] = make([]uint8, width)
	}

	for r, row := range t.Cells {
		for c, cell := range row {
			ox, oy := c*cellW, r*cellH
			for y := 0; y < cell.StoredHeight; y++ {
				copy(pixels[oy+y][ox:ox+cell.StoredWidth], cell.Pixels[y])
			}
		}
	}

	return enc.EncodePNG(pixels, width, height)
}

func dumpFontJSON(f *font.Font) ([]byte, error) {
	codepoints := f.Codepoints()
	out := fontDump{
		MaxWidth:   f.MaxWidth,
		MaxHeight:  f.MaxHeight,
		Tracking:   f.Tracking,
		Codepoints: make([]uint32, len(codepoints)),
	}
	for i, c := range codepoints {
		out.Codepoints[i] = uint32(c)
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(out)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "FNT", "dump-json", -1, "marshal font")
	}
	return data, nil
}
