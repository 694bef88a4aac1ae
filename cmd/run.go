package cmd

import (
	"fmt"
	"os"

	"github.com/rm-hull/bom-radar-loops/internal"
	"github.com/rm-hull/bom-radar-loops/internal/models/radar"
)

// Run executes the full pipeline once: load the city configuration, generate
// per-range loops, stack them per city and clean up. A missing configuration
// file is the only fatal condition; everything below it is logged and skipped.
func Run(configPath, workDir, outDir string, captureOnly, processOnly bool) error {
	internal.StartupInfo()

	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("configuration file %s not found: %w", configPath, err)
	}

	cities, err := radar.Load(configPath)
	if err != nil {
		return err
	}

	pipeline, err := internal.NewPipeline(internal.PipelineOptions{
		WorkDir:     workDir,
		OutDir:      outDir,
		CaptureOnly: captureOnly,
		ProcessOnly: processOnly,
	})
	if err != nil {
		return err
	}

	pipeline.Run(cities)
	return nil
}
