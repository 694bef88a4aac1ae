package gif

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// quantizeFrame flattens img against an opaque black backdrop (discarding
// alpha) and reduces it to a palette of at most 256 colors. Median-cut
// selection with nearest-color assignment and no dithering: the same input
// bitmap always yields the same palette and the same pixel indices.
func quantizeFrame(img image.Image) *image.Paletted {
	bounds := img.Bounds()

	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	quantizer := quantize.MedianCutQuantizer{}
	palette := quantizer.Quantize(make(color.Palette, 0, 256), flat)

	out := image.NewPaletted(bounds, palette)
	draw.Draw(out, bounds, flat, bounds.Min, draw.Src)
	return out
}
