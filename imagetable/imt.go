// Package imagetable decodes Playdate IMT containers: an ordered collection
// of img.Cell entries keyed by either sequential or row/column geometry,
// each cell parsed from its own byte slice the way the teacher's
// media/slice/sliceio demuxer carves fixed-size packets out of one shared
// buffer using an offset table instead of inline length prefixes.
package imagetable

import (
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/img"
	"github.com/scratchminer/pdkit/pderr"
)

// Magic is the required magic at offset 0 of a standalone .pdt/IMT file.
var Magic = []byte("Playdate IMT")

// Table is an ordered collection of image cells.
type Table struct {
	NumImages, NumPerRow, NumRows int
	IsMatrix                      bool
	Cells                         [][]*img.Cell // row-major
}

// ParseFile reads a standalone IMT file: magic, flags word, optional
// compressed header, then the table body.
func ParseFile(r *binreader.Reader) (*Table, error) {
	if _, err := container.Parse(r, container.Options{Format: "IMT", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes an image-table body positioned just after any magic/flags/
// compressed-header preamble.
func Parse(r *binreader.Reader) (*Table, error) {
	offset := int64(r.Tell())
	numImages, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMT", "header", offset, "num_images")
	}
	numPerRow, err := r.ReadU16()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "IMT", "header", offset, "num_per_row")
	}

	offsets := make([]uint32, numImages)
	for i := range offsets {
		o, err := r.ReadU32()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "IMT", "header", int64(r.Tell()), "offset table entry")
		}
		offsets[i] = o
	}

	headerEnd := r.Tell()
	totalAfterHeader := r.Len() - headerEnd

	cells := make([]*img.Cell, numImages)
	for i := 0; i < int(numImages); i++ {
		start := int(offsets[i])
		var end int
		if i+1 < int(numImages) {
			end = int(offsets[i+1])
		} else {
			end = totalAfterHeader
		}
		if start < 0 || end < start || headerEnd+end > r.Len() {
			return nil, pderr.Newf(pderr.KindSizeMismatch, "IMT", "body", int64(headerEnd+start), "cell %d offsets [%d,%d) out of range", i, start, end)
		}

		raw := r.Bytes()[headerEnd+start : headerEnd+end]
		synth := make([]byte, 0, len(raw)+4)
		synth = append(synth, 0, 0, 0, 0) // stand-in file-flags word, absent on nested cells
		synth = append(synth, raw...)

		cellReader := binreader.New(synth)
		if _, err := container.Parse(cellReader, container.Options{Format: "IMG", SkipMagic: true}); err != nil {
			return nil, pderr.Wrap(err, pderr.KindBadFormat, "IMT", "cell", int64(headerEnd+start), "cell flags word")
		}
		cell, err := img.Parse(cellReader)
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindBadFormat, "IMT", "cell", int64(headerEnd+start), "decode cell")
		}
		cells[i] = cell
	}

	isMatrix := numPerRow != 0 && int(numPerRow) != int(numImages)
	numRows := 1
	if isMatrix {
		numRows = int(numImages) / int(numPerRow)
	}

	rows := make([][]*img.Cell, numRows)
	if isMatrix {
		for row := 0; row < numRows; row++ {
			rows[row] = cells[row*int(numPerRow) : (row+1)*int(numPerRow)]
		}
	} else {
		rows[0] = cells
	}

	return &Table{
		NumImages: int(numImages),
		NumPerRow: int(numPerRow),
		NumRows:   numRows,
		IsMatrix:  isMatrix,
		Cells:     rows,
	}, nil
}
