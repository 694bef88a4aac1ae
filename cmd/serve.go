package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rm-hull/bom-radar-loops/internal"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

// Serve regenerates the stacked loops on a schedule and serves the output
// directory over HTTP, with prometheus metrics and a healthcheck endpoint.
func Serve(configPath, workDir, outDir string, port int, debug bool) {
	pipeline, err := internal.NewPipeline(internal.PipelineOptions{
		WorkDir: workDir,
		OutDir:  outDir,
	})
	if err != nil {
		log.Fatal(err)
	}

	sched, err := internal.NewScheduler(pipeline, configPath)
	if err != nil {
		log.Fatal(err)
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	if err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{}); err != nil {
		log.Fatalf("failed to initialize healthcheck: %v", err)
	}

	r.Static("/v1/bom/radar", outDir)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed to start on port %d: %v", port, err)
	}

	if err := sched.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown scheduler: %v", err)
	}
}
