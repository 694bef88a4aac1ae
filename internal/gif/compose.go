package gif

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log"
	"regexp"

	"github.com/anthonynsimon/bild/blend"
)

// ErrNoFrames is reported when every radar frame of a view failed to fetch,
// or when an empty frame sequence is handed to the encoder.
var ErrNoFrames = errors.New("no valid GIF produced")

// placeholderSize is the canvas used when even the background layer is
// missing.
const placeholderSize = 512

// Timestamps are embedded in frame URLs as a 12-digit YYYYMMDDHHMM token
// immediately before the extension.
var timestampRegex = regexp.MustCompile(`(\d{12})\.png$`)

// ImageFetcher retrieves one image resource, reporting absence as nil.
// bom.Client satisfies it.
type ImageFetcher interface {
	FetchImage(url string) *image.NRGBA
}

// Layers are the static transparencies composited under and over each radar
// frame. Any of them may be absent (nil); an absent background is substituted
// with an opaque black placeholder.
type Layers struct {
	Background *image.NRGBA
	Topography *image.NRGBA
	Locations  *image.NRGBA
	Range      *image.NRGBA
}

// Composer builds the frames of one animated loop.
type Composer struct {
	Fetcher ImageFetcher
}

// BuildFrames fetches each radar frame and composites it between the static
// layers in fixed z-order: background, topography, radar frame, locations,
// range overlay. Later layers win where opaque. Frames that fail to fetch are
// dropped, shrinking the loop. The returned timestamp is the YYYYMMDDHHMM
// token parsed from the last surviving frame's URL, or empty if absent.
// ErrNoFrames is returned when no frame survives.
func (c *Composer) BuildFrames(frameUrls []string, layers Layers) ([]*image.Paletted, string, error) {
	background := layers.Background
	if background == nil {
		log.Printf("Background layer missing, using %dx%d black placeholder", placeholderSize, placeholderSize)
		background = blackCanvas(placeholderSize, placeholderSize)
	}

	frames := make([]*image.Paletted, 0, len(frameUrls))
	timestamp := ""
	for _, frameUrl := range frameUrls {
		radarLayer := c.Fetcher.FetchImage(frameUrl)
		if radarLayer == nil {
			log.Printf("Skipping failed frame: %s", frameUrl)
			continue
		}

		var composite image.Image = background
		for _, layer := range []*image.NRGBA{layers.Topography, radarLayer, layers.Locations, layers.Range} {
			if layer != nil {
				composite = blend.Normal(composite, expandToCanvas(layer, background.Bounds()))
			}
		}

		frames = append(frames, quantizeFrame(composite))
		timestamp = ExtractTimestamp(frameUrl)
	}

	if len(frames) == 0 {
		return nil, "", ErrNoFrames
	}
	return frames, timestamp, nil
}

// ExtractTimestamp parses the 12-digit capture timestamp out of a frame URL.
// Returns the empty string when the URL carries no such token.
func ExtractTimestamp(frameUrl string) string {
	match := timestampRegex.FindStringSubmatch(frameUrl)
	if match == nil {
		return ""
	}
	return match[1]
}

// expandToCanvas pads a layer with transparency out to the canvas bounds.
// blend.Normal sizes its result to the intersection of its inputs, so an
// undersized layer would otherwise shrink the whole composite.
func expandToCanvas(layer *image.NRGBA, bounds image.Rectangle) *image.NRGBA {
	if layer.Bounds() == bounds {
		return layer
	}
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, layer.Bounds(), layer, layer.Bounds().Min, draw.Src)
	return canvas
}

func blackCanvas(width, height int) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.NRGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	return canvas
}
