package gif

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"log"
	"os"
	"time"

	"golang.org/x/image/font"
)

const (
	// headerHeight is the title band the bureau renders across the top of
	// every loop frame.
	headerHeight = 16

	dividerHeight = 1

	// staleThreshold is how old the newest capture may be before the stack
	// is flagged stale. Strictly greater triggers the badge.
	staleThreshold = 15 * time.Minute

	timestampLayout = "200601021504"

	// badgeTopInset is how far below the top of the stacked body the badge
	// is placed.
	badgeTopInset = 8
)

// StackOptions carry the injectable collaborators of the stacker. Zero values
// fall back to the wall clock and the platform font resolver.
type StackOptions struct {
	Now   func() time.Time
	Fonts FontResolver
}

// Stack vertically concatenates several animated loops (range-ascending input
// order) into one. The top 16px header band is taken from the first loop only
// and relocated to the bottom of the stack; the other loops' headers are
// discarded unconditionally, even if their content differs. Loops with more
// frames than the shortest input have their tail dropped. When any input's
// sidecar reports a capture older than 15 minutes, a warning badge is drawn
// on every frame; the badge never changes the canvas dimensions.
func Stack(paths []string, outPath string, opts StackOptions) error {
	if len(paths) == 0 {
		return fmt.Errorf("no loops to stack into %s", outPath)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = NewFontResolver()
	}

	loops := make([]*gif.GIF, len(paths))
	for i, path := range paths {
		loop, err := decodeGif(path)
		if err != nil {
			return err
		}
		loops[i] = loop
	}

	frameCount := len(loops[0].Image)
	for _, loop := range loops[1:] {
		if len(loop.Image) < frameCount {
			frameCount = len(loop.Image)
		}
	}

	stale := anyStale(paths, now().UTC())
	face := fonts.Resolve()

	frames := make([]*image.Paletted, frameCount)
	for i := 0; i < frameCount; i++ {
		panels := make([]*image.NRGBA, len(loops))
		for j, loop := range loops {
			panels[j] = flattenFrame(loop, i)
		}
		frames[i] = composeStackedFrame(panels, stale, face)
	}

	frameDelay := defaultFrameDelay
	if len(loops[0].Delay) > 0 && loops[0].Delay[0] > 0 {
		frameDelay = loops[0].Delay[0]
	}

	return encodeGif(frames, frameDelay, outPath)
}

// composeStackedFrame stacks one frame index across all loops: header from
// the first panel, cropped bodies top-to-bottom with 1px dividers, narrower
// panels centered, header relocated to the bottom left-aligned.
func composeStackedFrame(panels []*image.NRGBA, stale bool, face font.Face) *image.Paletted {
	first := panels[0].Bounds()
	header := panels[0].SubImage(image.Rect(0, 0, first.Dx(), headerHeight))

	bodies := make([]image.Image, len(panels))
	totalWidth := 0
	totalHeight := headerHeight + (len(panels)-1)*dividerHeight
	for i, panel := range panels {
		b := panel.Bounds()
		body := panel.SubImage(image.Rect(0, headerHeight, b.Dx(), b.Dy()))
		bodies[i] = body
		if body.Bounds().Dx() > totalWidth {
			totalWidth = body.Bounds().Dx()
		}
		totalHeight += body.Bounds().Dy()
	}

	canvas := blackCanvas(totalWidth, totalHeight)
	y := 0
	for i, body := range bodies {
		b := body.Bounds()
		x := (totalWidth - b.Dx()) / 2
		draw.Draw(canvas, image.Rect(x, y, x+b.Dx(), y+b.Dy()), body, b.Min, draw.Over)
		y += b.Dy()
		if i < len(bodies)-1 {
			y += dividerHeight
		}
	}

	hb := header.Bounds()
	draw.Draw(canvas, image.Rect(0, y, hb.Dx(), y+hb.Dy()), header, hb.Min, draw.Over)

	if stale {
		drawBadge(canvas, badgeRect(totalWidth, badgeTopInset, face), face)
	}

	return quantizeFrame(canvas)
}

// anyStale reports whether any loop's sidecar timestamp is more than 15
// minutes behind now. Missing or unparsable sidecars are tolerated with a
// warning and contribute nothing.
func anyStale(paths []string, now time.Time) bool {
	for _, path := range paths {
		timestamp, err := readSidecar(path)
		if err != nil {
			log.Printf("Warning: no usable sidecar for %s: %v", path, err)
			continue
		}
		captured, err := time.ParseInLocation(timestampLayout, timestamp, time.UTC)
		if err != nil {
			log.Printf("Warning: unparsable timestamp %q in sidecar for %s: %v", timestamp, path, err)
			continue
		}
		if now.Sub(captured) > staleThreshold {
			log.Printf("Loop %s captured at %s is stale", path, captured.Format(time.RFC3339))
			return true
		}
	}
	return false
}

func decodeGif(path string) (*gif.GIF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open loop %s: %w", path, err)
	}
	defer f.Close()

	loop, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode loop %s: %w", path, err)
	}
	if len(loop.Image) == 0 {
		return nil, fmt.Errorf("loop %s contains no frames", path)
	}
	return loop, nil
}

// flattenFrame renders frame i of a decoded loop onto an opaque full-canvas
// bitmap. Frames may cover only part of the logical screen.
func flattenFrame(loop *gif.GIF, i int) *image.NRGBA {
	width, height := loop.Config.Width, loop.Config.Height
	if width == 0 || height == 0 {
		b := loop.Image[0].Bounds()
		width, height = b.Dx(), b.Dy()
	}

	canvas := blackCanvas(width, height)
	frame := loop.Image[i]
	draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	return canvas
}
