package internal

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rm-hull/bom-radar-loops/internal/bom"
	"github.com/rm-hull/bom-radar-loops/internal/gif"
	"github.com/rm-hull/bom-radar-loops/internal/models/radar"
)

// PipelineOptions configure a pipeline run. Working directory, output
// directory and base URL are explicit so concurrent or test-isolated runs
// don't collide on the filesystem.
type PipelineOptions struct {
	Client  bom.Client
	Fonts   gif.FontResolver
	Now     func() time.Time
	WorkDir string
	OutDir  string
	BaseUrl string

	// CaptureOnly generates the per-range loops and skips stacking and
	// cleanup; ProcessOnly stacks whatever per-range temp files already
	// exist and skips generation and cleanup.
	CaptureOnly bool
	ProcessOnly bool
}

// Pipeline runs the scrape-composite-stack sequence for each configured city,
// strictly sequentially. Failures below the configuration level are isolated
// per city and per view.
type Pipeline struct {
	client      bom.Client
	fonts       gif.FontResolver
	now         func() time.Time
	workDir     string
	outDir      string
	baseUrl     string
	captureOnly bool
	processOnly bool
}

func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.CaptureOnly && opts.ProcessOnly {
		return nil, errors.New("capture-only and process-only are mutually exclusive")
	}

	client := opts.Client
	if client == nil {
		client = bom.NewClient()
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = gif.NewFontResolver()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = bom.DefaultBaseUrl
	}

	return &Pipeline{
		client:      client,
		fonts:       fonts,
		now:         now,
		workDir:     workDir,
		outDir:      outDir,
		baseUrl:     baseUrl,
		captureOnly: opts.CaptureOnly,
		processOnly: opts.ProcessOnly,
	}, nil
}

// Run processes every city in turn. Per-city and per-view failures are logged
// and skipped, never fatal.
func (p *Pipeline) Run(cities []radar.City) {
	for _, city := range cities {
		log.Printf("Processing %s...", city.Name)
		if len(city.Views) == 0 {
			log.Printf("No views found for %s, skipping", city.Name)
			continue
		}
		p.processCity(city)
	}
}

func (p *Pipeline) processCity(city radar.City) {
	tempPaths := make([]string, 0, len(city.Views))
	for _, view := range city.Views {
		tempPath := p.TempPath(city.FriendlyName, view.Range)

		if p.processOnly {
			if _, err := os.Stat(tempPath); err != nil {
				log.Printf("Process-only: %s missing, cannot stack this view", tempPath)
				continue
			}
			tempPaths = append(tempPaths, tempPath)
			continue
		}

		log.Printf("Generating %s radar loop for %s...", view.Range, city.Name)
		if err := p.captureView(view, tempPath); err != nil {
			log.Printf("Failed to create loop for %s %s: %v", city.Name, view.Range, err)
			continue
		}
		tempPaths = append(tempPaths, tempPath)
	}

	if p.captureOnly {
		return
	}

	if len(tempPaths) == 0 {
		log.Printf("No valid loops generated for %s, nothing to stack", city.Name)
		return
	}

	outPath := p.OutputPath(city.FriendlyName)
	log.Printf("Stacking %d loops into %s...", len(tempPaths), outPath)
	if err := gif.Stack(tempPaths, outPath, gif.StackOptions{Now: p.now, Fonts: p.fonts}); err != nil {
		log.Printf("Stacking failed for %s: %v", city.Name, err)
		return
	}

	if !p.processOnly {
		p.cleanup(tempPaths)
	}
}

// captureView builds one per-range loop: locate the source, fetch the static
// layers, composite the frames and encode the loop with its sidecar.
func (p *Pipeline) captureView(view radar.View, tempPath string) error {
	source := bom.Locate(p.client, view.Url, p.baseUrl)
	if source == nil {
		return fmt.Errorf("no radar source derived from %s", view.Url)
	}

	layers := gif.Layers{
		Background: p.client.FetchImage(source.BackgroundUrl),
		Topography: p.client.FetchImage(source.TopographyUrl),
		Locations:  p.client.FetchImage(source.LocationsUrl),
		Range:      p.client.FetchImage(source.RangeUrl),
	}

	composer := gif.Composer{Fetcher: p.client}
	frames, timestamp, err := composer.BuildFrames(source.FrameUrls, layers)
	if err != nil {
		return err
	}

	return gif.EncodeLoop(frames, timestamp, tempPath)
}

// cleanup is best-effort: the stacked output already exists, so a leftover
// temp file only wastes disk.
func (p *Pipeline) cleanup(tempPaths []string) {
	for _, path := range tempPaths {
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove %s: %v", path, err)
		}
		if err := os.Remove(gif.SidecarPath(path)); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove %s: %v", gif.SidecarPath(path), err)
		}
	}
}

// TempPath is the per-range loop filename convention.
func (p *Pipeline) TempPath(friendlyName, rangeLabel string) string {
	return filepath.Join(p.workDir, fmt.Sprintf("temp_%s_%s.gif", friendlyName, rangeLabel))
}

// OutputPath is the per-city stacked loop filename convention.
func (p *Pipeline) OutputPath(friendlyName string) string {
	return filepath.Join(p.outDir, friendlyName+".gif")
}
