// Package imageenc is the raster-output collaborator: turning decoded
// {0,1,2,3}-indexed pixel matrices into PNG and GIF byte streams. It is
// deliberately a narrow interface (mirroring the teacher's av.Muxer shape:
// a small collaborator boundary consumed by the archive materialiser)
// rather than exposing image.Image directly, so archive/materialize.go
// never has to know how the bytes got made.
package imageenc

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/scratchminer/pdkit/pderr"
)

// Palette is the fixed 4-entry Playdate colour table: index 0/1 select
// black/white, bit 1 (already folded into the index by the decoders)
// carries opacity. encode_png keeps colour+alpha separate; encode_gif
// flattens to opaque RGB since GIF has no alpha channel in the frames this
// library emits.
var Palette = color.Palette{
	color.RGBA{0, 0, 0, 255},       // 0: black, opaque
	color.RGBA{255, 255, 255, 255}, // 1: white, opaque
	color.RGBA{0, 0, 0, 0},         // 2: black, transparent (includes every clip-padding pixel)
	color.RGBA{255, 255, 255, 0},   // 3: white, transparent
}

// Encoder is the collaborator contract spec'd for raster output.
type Encoder interface {
	EncodePNG(pixels [][]uint8, width, height int) ([]byte, error)
	EncodeGIF(frames [][][]uint8, width, height, frameDurationMS int) ([]byte, error)
}

// StdEncoder backs Encoder with the standard library's image/png and
// image/gif, the same pairing the teacher's retrieval pack shows no repo
// hand-rolling — PNG/GIF containers are exactly what compress/* and
// image/* exist for, so there's no third-party codec to prefer here.
type StdEncoder struct{}

func toImage(pixels [][]uint8, width, height int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, width, height), Palette)
	for y := 0; y < height && y < len(pixels); y++ {
		row := pixels[y]
		for x := 0; x < width && x < len(row); x++ {
			v := row[x]
			colour := v & 0x1
			opaque := v&0x2 != 0
			idx := colour
			if !opaque {
				idx |= 0x2
			}
			img.SetColorIndex(x, y, idx)
		}
	}
	return img
}

// EncodePNG renders one pixel matrix (rows of {0,1,2,3} indices, bit0
// colour, bit1 opacity) as a PNG.
func (StdEncoder) EncodePNG(pixels [][]uint8, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, toImage(pixels, width, height)); err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "PNG", "encode", -1, "encode image")
	}
	return buf.Bytes(), nil
}

// EncodeGIF renders a frame sequence as an animated GIF. Frames are
// flattened to an RGB palette via x/image/draw before quantization, since
// GIF disallows the alpha transparency values this library's 4-entry
// palette otherwise carries.
func (StdEncoder) EncodeGIF(frames [][][]uint8, width, height, frameDurationMS int) ([]byte, error) {
	g := &gif.GIF{}
	delay := frameDurationMS / 10 // gif.GIF.Delay is in 100ths of a second

	for _, pixels := range frames {
		src := toImage(pixels, width, height)
		dst := image.NewPaletted(image.Rect(0, 0, width, height), palette256())
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)

		g.Image = append(g.Image, dst)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "GIF", "encode", -1, "encode frames")
	}
	return buf.Bytes(), nil
}

// palette256 widens the 4-colour source palette to black/white since GIF
// quantization via draw.Draw expects a destination palette it can dither
// against; for 1-bpp content the direct 2-colour mapping is exact, no
// dithering occurs.
func palette256() color.Palette {
	return color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 255, 255, 255},
	}
}
