// Package dispatch maps file extensions to the format parsers in this
// module and walks a loose asset directory into the same tagged-entry tree
// shape archive.Parse builds from a PDZ stream, so dump/materialize share
// one policy regardless of whether the source was an archive or a
// directory (spec.md §4.11).
package dispatch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/scratchminer/pdkit/archive"
	"github.com/scratchminer/pdkit/audio"
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/font"
	"github.com/scratchminer/pdkit/img"
	"github.com/scratchminer/pdkit/imagetable"
	"github.com/scratchminer/pdkit/pderr"
	"github.com/scratchminer/pdkit/strtab"
	"github.com/scratchminer/pdkit/video"
)

// extKind maps a lowercased file extension (with leading dot) to the
// archive.Kind it corresponds to when classifying loose files on disk —
// the same type tags a PDZ entry's flags byte carries.
var extKind = map[string]archive.Kind{
	".pdi":  archive.KindIMG,
	".pdt":  archive.KindIMT,
	".pdv":  archive.KindVID,
	".pda":  archive.KindAUD,
	".pds":  archive.KindSTR,
	".pft":  archive.KindFNT,
	".lua":  archive.KindLua,
	".luac": archive.KindLua,
}

// ParseStandaloneFile decodes a single loose asset file by its extension,
// returning a *FileEntry built the same way a PDZ entry of the matching
// kind would be. Files with an unrecognized extension are classified
// KindNone — an opaque "stray" passthrough, per spec.md §4.11.
func ParseStandaloneFile(path string) (*archive.FileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "Dispatch", "open", -1, "read "+path)
	}
	name := filepath.Base(path)
	kind, ok := extKind[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return &archive.FileEntry{Name: name, Kind: archive.KindNone, Raw: data}, nil
	}

	r := binreader.New(data)
	switch kind {
	case archive.KindIMG:
		cell, err := img.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, Image: cell}, nil

	case archive.KindIMT:
		tbl, err := imagetable.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, ImageTable: tbl}, nil

	case archive.KindVID:
		v, err := video.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, Video: v}, nil

	case archive.KindAUD:
		af, err := audio.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, Audio: af}, nil

	case archive.KindSTR:
		tbl, err := strtab.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, Strings: tbl}, nil

	case archive.KindFNT:
		f, err := font.ParseFile(r)
		if err != nil {
			return nil, err
		}
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data, Font: f}, nil

	default: // Lua and anything else recognized only by extension
		return &archive.FileEntry{Name: name, Kind: kind, Raw: data}, nil
	}
}

// ParseDirectory walks root recursively and classifies every regular file
// by extension, building a directory tree with the same shape
// archive.Archive.Root exposes so dump/materialize logic is shared.
func ParseDirectory(root string) (*archive.Archive, error) {
	a := &archive.Archive{Root: archive.NewRoot()}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		fe, err := ParseStandaloneFile(path)
		if err != nil {
			return err
		}
		fe.Name = rel
		a.Insert(rel, fe)
		a.Stats.Add(fe.Kind, len(fe.Raw))
		return nil
	})
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "Dispatch", "walk", -1, "walk directory "+root)
	}
	return a, nil
}
