package gif

import (
	"image"
	"image/color"
	"log"
	"os"
	"runtime"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const badgeLabel = "radar capture outdated"

const (
	badgePadding = 6
	badgeRadius  = 3
	iconWidth    = 16
	iconHeight   = 14
	iconGap      = 6
)

var (
	badgeFill    = color.NRGBA{255, 255, 255, 255}
	badgeOutline = color.NRGBA{204, 0, 0, 255}
	badgeRed     = color.NRGBA{204, 0, 0, 255}
	badgeWhite   = color.NRGBA{255, 255, 255, 255}
)

// FontResolver maps an ordered list of font candidates to a usable face.
// Injected into the stacker so tests can pin a fixed face.
type FontResolver interface {
	Resolve() font.Face
}

type fontResolver struct {
	candidates []string
}

// NewFontResolver builds a resolver over the given candidate font files, or
// over the platform defaults when none are given. Resolve returns the first
// candidate that loads, falling back to the built-in basicfont face.
func NewFontResolver(candidates ...string) FontResolver {
	if len(candidates) == 0 {
		candidates = defaultFontCandidates()
	}
	return &fontResolver{candidates: candidates}
}

func (r *fontResolver) Resolve() font.Face {
	for _, path := range r.candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			log.Printf("Warning: failed to parse font %s: %v", path, err)
			continue
		}
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    12,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			log.Printf("Warning: failed to build face from %s: %v", path, err)
			continue
		}
		return face
	}
	return basicfont.Face7x13
}

func defaultFontCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/System/Library/Fonts/Supplemental/Arial.ttf",
			"/System/Library/Fonts/Supplemental/Verdana.ttf",
		}
	case "windows":
		return []string{
			`C:\Windows\Fonts\arial.ttf`,
			`C:\Windows\Fonts\verdana.ttf`,
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		}
	}
}

func badgeSize(face font.Face) (int, int) {
	textWidth := font.MeasureString(face, badgeLabel).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()
	inner := iconHeight
	if textHeight > inner {
		inner = textHeight
	}
	width := badgePadding*2 + iconWidth + iconGap + textWidth
	height := badgePadding*2 + inner
	return width, height
}

// badgeRect positions the badge centered horizontally on a canvas of the
// given width, top pixels down from the top of the body region.
func badgeRect(canvasWidth, top int, face font.Face) image.Rectangle {
	width, height := badgeSize(face)
	x0 := (canvasWidth - width) / 2
	return image.Rect(x0, top, x0+width, top+height)
}

// drawBadge renders the stale-data warning: a white rounded box with a red
// 1px outline, a red warning triangle with a white exclamation mark, and the
// label in solid red with hard glyph edges (no anti-aliasing). Drawing is
// clipped to the canvas and never alters its dimensions.
func drawBadge(dst *image.NRGBA, rect image.Rectangle, face font.Face) {
	// Box fill and outline, corners rounded by badgeRadius.
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !insideRounded(x, y, rect) {
				continue
			}
			onEdge := !insideRounded(x-1, y, rect) || !insideRounded(x+1, y, rect) ||
				!insideRounded(x, y-1, rect) || !insideRounded(x, y+1, rect)
			if onEdge {
				setClipped(dst, x, y, badgeOutline)
			} else {
				setClipped(dst, x, y, badgeFill)
			}
		}
	}

	drawWarningIcon(dst, rect)
	drawLabel(dst, rect, face)
}

// drawWarningIcon fills a red triangle with a white vertical bar and a white
// square dot approximating an exclamation mark.
func drawWarningIcon(dst *image.NRGBA, rect image.Rectangle) {
	x0 := rect.Min.X + badgePadding
	y0 := rect.Min.Y + (rect.Dy()-iconHeight)/2
	cx := x0 + iconWidth/2

	for row := 0; row < iconHeight; row++ {
		half := row * (iconWidth / 2) / iconHeight
		for x := cx - half; x <= cx+half; x++ {
			setClipped(dst, x, y0+row, badgeRed)
		}
	}

	for row := 4; row < iconHeight-5; row++ {
		setClipped(dst, cx-1, y0+row, badgeWhite)
		setClipped(dst, cx, y0+row, badgeWhite)
	}
	for row := iconHeight - 3; row < iconHeight-1; row++ {
		setClipped(dst, cx-1, y0+row, badgeWhite)
		setClipped(dst, cx, y0+row, badgeWhite)
	}
}

// drawLabel renders the badge text through an alpha mask thresholded at 50%
// coverage, so glyphs come out hard-edged in a single solid color.
func drawLabel(dst *image.NRGBA, rect image.Rectangle, face font.Face) {
	textWidth := font.MeasureString(face, badgeLabel).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	mask := image.NewAlpha(image.Rect(0, 0, textWidth, textHeight))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.NewUniform(color.Opaque),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	drawer.DrawString(badgeLabel)

	originX := rect.Min.X + badgePadding + iconWidth + iconGap
	originY := rect.Min.Y + (rect.Dy()-textHeight)/2
	for y := 0; y < textHeight; y++ {
		for x := 0; x < textWidth; x++ {
			if mask.AlphaAt(x, y).A >= 0x80 {
				setClipped(dst, originX+x, originY+y, badgeRed)
			}
		}
	}
}

// insideRounded reports whether the pixel lies within the rounded rectangle.
func insideRounded(x, y int, rect image.Rectangle) bool {
	if !image.Pt(x, y).In(rect) {
		return false
	}
	left := rect.Min.X + badgeRadius
	right := rect.Max.X - 1 - badgeRadius
	top := rect.Min.Y + badgeRadius
	bottom := rect.Max.Y - 1 - badgeRadius

	cornerX, cornerY := 0, 0
	if x < left {
		cornerX = left - x
	} else if x > right {
		cornerX = x - right
	}
	if y < top {
		cornerY = top - y
	} else if y > bottom {
		cornerY = y - bottom
	}
	return cornerX*cornerX+cornerY*cornerY <= badgeRadius*badgeRadius
}

func setClipped(dst *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.SetNRGBA(x, y, c)
	}
}
