package imageenc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func checkerboard(width, height int) [][]uint8 {
	rows := make([][]uint8, height)
	for y := range rows {
		rows[y] = make([]uint8, width)
		for x := range rows[y] {
			colour := uint8((x + y) % 2)
			rows[y][x] = colour | 0x2 // opaque
		}
	}
	return rows
}

func TestEncodePNGProducesValidSignature(t *testing.T) {
	var enc StdEncoder
	out, err := enc.EncodePNG(checkerboard(8, 8), 8, 8)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
}

func TestEncodeGIFProducesValidHeader(t *testing.T) {
	var enc StdEncoder
	frames := [][][]uint8{checkerboard(4, 4), checkerboard(4, 4)}
	out, err := enc.EncodeGIF(frames, 4, 4, 100)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("GIF89a")))
}
