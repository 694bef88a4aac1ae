package internal

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rm-hull/bom-radar-loops/internal/models/radar"
)

const refreshInterval = 10 * time.Minute

// NewScheduler runs the pipeline once synchronously (failing fast if the
// configuration is unusable) and then keeps the output directory fresh by
// re-running it every ten minutes, roughly the bureau's radar cadence.
func NewScheduler(pipeline *Pipeline, configPath string) (gocron.Scheduler, error) {
	if err := refresh(pipeline, configPath); err != nil {
		return nil, fmt.Errorf("initial run of job failed: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(refreshInterval),
		gocron.NewTask(func() {
			if err := refresh(pipeline, configPath); err != nil {
				log.Printf("Scheduled refresh failed: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}

func refresh(pipeline *Pipeline, configPath string) error {
	cities, err := radar.Load(configPath)
	if err != nil {
		return err
	}
	pipeline.Run(cities)
	return nil
}
