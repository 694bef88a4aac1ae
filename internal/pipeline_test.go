package internal

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"testing"
	"time"

	"github.com/rm-hull/bom-radar-loops/internal/gif"
	"github.com/rm-hull/bom-radar-loops/internal/models/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type fakeClient struct {
	pages  map[string]string
	images map[string]*image.NRGBA
}

func (f *fakeClient) FetchPage(url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

func (f *fakeClient) FetchImage(url string) *image.NRGBA {
	return f.images[url]
}

type fixedFonts struct{}

func (fixedFonts) Resolve() font.Face { return basicfont.Face7x13 }

var testNow = time.Date(2026, 8, 26, 3, 0, 0, 0, time.UTC)

func opaque(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// newFakeClient serves two radar products with two recent frames each.
func newFakeClient(t *testing.T) *fakeClient {
	t.Helper()
	client := &fakeClient{
		pages:  map[string]string{},
		images: map[string]*image.NRGBA{},
	}
	frameTime := testNow.Add(-5 * time.Minute).Format("200601021504")
	for _, productId := range []string{"IDR023", "IDR022"} {
		pageUrl := fmt.Sprintf("http://radar.test/products/%s.loop.shtml", productId)
		framePath := func(i int) string {
			return fmt.Sprintf("/radar/%s.T.%s.png", productId, frameTime)
		}
		client.pages[pageUrl] = fmt.Sprintf(`<script>
			theImageNames[0] = "%s";
			theImageNames[1] = "%s";
		</script>`, framePath(0), framePath(1))

		layerUrl := fmt.Sprintf("http://radar.test/products/radar_transparencies/%s.background.png", productId)
		client.images[layerUrl] = opaque(40, 40, color.NRGBA{0, 0, 80, 255})
		client.images["http://radar.test"+framePath(0)] = opaque(40, 40, color.NRGBA{0, 0, 0, 0})
	}
	return client
}

func sydney() radar.City {
	return radar.City{
		Name:         "Sydney",
		FriendlyName: "sydney",
		Views: []radar.View{
			{Range: "64km", Url: "http://radar.test/products/IDR023.loop.shtml"},
			{Range: "128km", Url: "http://radar.test/products/IDR022.loop.shtml"},
		},
	}
}

func newTestPipeline(t *testing.T, captureOnly, processOnly bool) *Pipeline {
	t.Helper()
	pipeline, err := NewPipeline(PipelineOptions{
		Client:      newFakeClient(t),
		Fonts:       fixedFonts{},
		Now:         func() time.Time { return testNow },
		WorkDir:     t.TempDir(),
		OutDir:      t.TempDir(),
		BaseUrl:     "http://radar.test",
		CaptureOnly: captureOnly,
		ProcessOnly: processOnly,
	})
	require.NoError(t, err)
	return pipeline
}

func TestNewPipeline_ExclusiveModes(t *testing.T) {
	_, err := NewPipeline(PipelineOptions{CaptureOnly: true, ProcessOnly: true})
	assert.Error(t, err)
}

func TestPipeline_FullRun(t *testing.T) {
	pipeline := newTestPipeline(t, false, false)
	city := sydney()

	pipeline.Run([]radar.City{city})

	assert.FileExists(t, pipeline.OutputPath("sydney"))

	// Temp loops and their sidecars are cleaned up after a successful stack.
	for _, view := range city.Views {
		tempPath := pipeline.TempPath("sydney", view.Range)
		assert.NoFileExists(t, tempPath)
		assert.NoFileExists(t, gif.SidecarPath(tempPath))
	}
}

func TestPipeline_CaptureOnly(t *testing.T) {
	pipeline := newTestPipeline(t, true, false)
	city := sydney()

	pipeline.Run([]radar.City{city})

	assert.NoFileExists(t, pipeline.OutputPath("sydney"))
	for _, view := range city.Views {
		tempPath := pipeline.TempPath("sydney", view.Range)
		assert.FileExists(t, tempPath)
		assert.FileExists(t, gif.SidecarPath(tempPath))
	}
}

func TestPipeline_ProcessOnly(t *testing.T) {
	capture := newTestPipeline(t, true, false)
	city := sydney()
	capture.Run([]radar.City{city})

	// Stack whatever temp files already exist, without any network activity.
	process, err := NewPipeline(PipelineOptions{
		Client:      &fakeClient{},
		Fonts:       fixedFonts{},
		Now:         func() time.Time { return testNow },
		WorkDir:     capture.workDir,
		OutDir:      capture.outDir,
		ProcessOnly: true,
	})
	require.NoError(t, err)
	process.Run([]radar.City{city})

	assert.FileExists(t, process.OutputPath("sydney"))
	// Process-only mode never cleans up.
	assert.FileExists(t, process.TempPath("sydney", "64km"))
}

func TestPipeline_FailedViewIsIsolated(t *testing.T) {
	pipeline := newTestPipeline(t, false, false)
	client := pipeline.client.(*fakeClient)
	delete(client.pages, "http://radar.test/products/IDR022.loop.shtml")

	pipeline.Run([]radar.City{sydney()})

	// The surviving view still produces a stacked output.
	assert.FileExists(t, pipeline.OutputPath("sydney"))
}

func TestPipeline_NoViews(t *testing.T) {
	pipeline := newTestPipeline(t, false, false)
	pipeline.Run([]radar.City{{Name: "Hobart", FriendlyName: "hobart"}})
	assert.NoFileExists(t, pipeline.OutputPath("hobart"))
}

func TestPipeline_NamingConventions(t *testing.T) {
	pipeline, err := NewPipeline(PipelineOptions{WorkDir: "/tmp/work", OutDir: "/tmp/out"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/work/temp_sydney_64km.gif", pipeline.TempPath("sydney", "64km"))
	assert.Equal(t, "/tmp/out/sydney.gif", pipeline.OutputPath("sydney"))
}

func TestPipeline_CleanupSkippedWhenStackFails(t *testing.T) {
	pipeline := newTestPipeline(t, false, false)
	city := sydney()

	// Make the output path unwritable by pointing it at a directory.
	pipeline.outDir = pipeline.workDir
	require.NoError(t, os.MkdirAll(pipeline.OutputPath("sydney"), 0755))

	pipeline.Run([]radar.City{city})

	// Temp loops survive a failed stack so a later process-only run can retry.
	assert.FileExists(t, pipeline.TempPath("sydney", "64km"))
}
