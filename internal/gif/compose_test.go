package gif

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	images map[string]*image.NRGBA
}

func (s *stubFetcher) FetchImage(url string) *image.NRGBA {
	return s.images[url]
}

func solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func assertColorAt(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	assert.Equal(t, []uint8{want.R, want.G, want.B}, []uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)},
		"pixel at (%d,%d)", x, y)
}

var (
	red         = color.NRGBA{255, 0, 0, 255}
	green       = color.NRGBA{0, 255, 0, 255}
	blue        = color.NRGBA{0, 0, 255, 255}
	transparent = color.NRGBA{}
)

func TestComposer_BuildFrames(t *testing.T) {
	t.Run("later layers win where opaque", func(t *testing.T) {
		// Radar frame is opaque red at (0,0) only; locations is opaque
		// green at (1,1) only; background is solid blue.
		radarFrame := solid(4, 4, transparent)
		radarFrame.SetNRGBA(0, 0, red)
		radarFrame.SetNRGBA(1, 1, red)
		locations := solid(4, 4, transparent)
		locations.SetNRGBA(1, 1, green)

		fetcher := &stubFetcher{images: map[string]*image.NRGBA{
			"http://radar.test/radar/IDR023.T.202608260000.png": radarFrame,
		}}
		composer := Composer{Fetcher: fetcher}

		frames, timestamp, err := composer.BuildFrames(
			[]string{"http://radar.test/radar/IDR023.T.202608260000.png"},
			Layers{Background: solid(4, 4, blue), Locations: locations},
		)
		require.NoError(t, err)
		require.Len(t, frames, 1)
		assert.Equal(t, "202608260000", timestamp)

		out := frames[0]
		assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
		assertColorAt(t, out, 0, 0, red)   // radar wins over background
		assertColorAt(t, out, 1, 1, green) // locations wins over radar
		assertColorAt(t, out, 2, 2, blue)  // background shows through
	})

	t.Run("undersized layers keep the background canvas", func(t *testing.T) {
		// A radar frame smaller than the background must not shrink the
		// composite to the overlap.
		radarFrame := solid(4, 4, red)
		url := "http://radar.test/radar/IDR023.T.202608260000.png"
		composer := Composer{Fetcher: &stubFetcher{images: map[string]*image.NRGBA{url: radarFrame}}}

		frames, _, err := composer.BuildFrames(
			[]string{url},
			Layers{Background: solid(8, 8, blue), Locations: solid(2, 2, transparent)},
		)
		require.NoError(t, err)
		require.Len(t, frames, 1)

		out := frames[0]
		assert.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())
		assertColorAt(t, out, 1, 1, red)  // radar covers its own extent
		assertColorAt(t, out, 6, 6, blue) // background survives beyond it
	})

	t.Run("failed frames are dropped", func(t *testing.T) {
		radarFrame := solid(4, 4, transparent)
		fetcher := &stubFetcher{images: map[string]*image.NRGBA{
			"http://radar.test/radar/IDR023.T.202608260000.png": radarFrame,
			"http://radar.test/radar/IDR023.T.202608260012.png": radarFrame,
		}}
		composer := Composer{Fetcher: fetcher}

		frames, timestamp, err := composer.BuildFrames(
			[]string{
				"http://radar.test/radar/IDR023.T.202608260000.png",
				"http://radar.test/radar/IDR023.T.202608260006.png", // fetch fails
				"http://radar.test/radar/IDR023.T.202608260012.png",
			},
			Layers{Background: solid(4, 4, blue)},
		)
		require.NoError(t, err)
		assert.Len(t, frames, 2)
		assert.Equal(t, "202608260012", timestamp)
	})

	t.Run("no surviving frames is a failure", func(t *testing.T) {
		composer := Composer{Fetcher: &stubFetcher{}}
		_, _, err := composer.BuildFrames(
			[]string{"http://radar.test/radar/IDR023.T.202608260000.png"},
			Layers{Background: solid(4, 4, blue)},
		)
		assert.ErrorIs(t, err, ErrNoFrames)
	})

	t.Run("missing background gets a black placeholder", func(t *testing.T) {
		// Radar frames are typically smaller than the placeholder; the
		// composite must still span the full placeholder.
		radarFrame := solid(4, 4, transparent)
		url := "http://radar.test/radar/IDR023.T.202608260000.png"
		composer := Composer{Fetcher: &stubFetcher{images: map[string]*image.NRGBA{url: radarFrame}}}

		frames, _, err := composer.BuildFrames([]string{url}, Layers{})
		require.NoError(t, err)
		require.Len(t, frames, 1)
		assert.Equal(t, image.Rect(0, 0, placeholderSize, placeholderSize), frames[0].Bounds())
		assertColorAt(t, frames[0], 10, 10, color.NRGBA{0, 0, 0, 255})
	})

	t.Run("deterministic output for identical input", func(t *testing.T) {
		radarFrame := solid(4, 4, transparent)
		radarFrame.SetNRGBA(0, 0, red)
		url := "http://radar.test/radar/IDR023.T.202608260000.png"
		composer := Composer{Fetcher: &stubFetcher{images: map[string]*image.NRGBA{url: radarFrame}}}

		first, _, err := composer.BuildFrames([]string{url}, Layers{Background: solid(4, 4, blue)})
		require.NoError(t, err)
		second, _, err := composer.BuildFrames([]string{url}, Layers{Background: solid(4, 4, blue)})
		require.NoError(t, err)

		assert.Equal(t, first[0].Palette, second[0].Palette)
		assert.Equal(t, first[0].Pix, second[0].Pix)
	})
}

func TestExtractTimestamp(t *testing.T) {
	assert.Equal(t, "202608260006", ExtractTimestamp("http://radar.test/radar/IDR023.T.202608260006.png"))
	assert.Equal(t, "", ExtractTimestamp("http://radar.test/radar/IDR023.T.latest.png"))
	assert.Equal(t, "", ExtractTimestamp("http://radar.test/radar/IDR023.T.202608260006.jpg"))
}
