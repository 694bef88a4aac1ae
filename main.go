package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/rm-hull/bom-radar-loops/cmd"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	var workDir string
	var outDir string
	var captureOnly bool
	var processOnly bool
	var port int
	var debug bool

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	rootCmd := &cobra.Command{
		Use:  "bom-radar-loops",
		Long: `Scrapes BOM radar loop pages and builds stacked animated GIFs per city`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Run(configPath, workDir, outDir, captureOnly, processOnly)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "bom_radars.json", "Path to the city configuration file")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", ".", "Directory for per-range temp loops and sidecars")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", ".", "Directory for stacked output loops")
	rootCmd.Flags().BoolVar(&captureOnly, "capture-only", false, "Generate per-range loops, skip stacking and cleanup")
	rootCmd.Flags().BoolVar(&processOnly, "process-only", false, "Stack existing per-range loops, skip generation and cleanup")

	serveCmd := &cobra.Command{
		Use:   "serve [--port <port>] [--debug]",
		Short: "Regenerate loops on a schedule and serve them over HTTP",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.Serve(configPath, workDir, outDir, port, debug)
		},
	}

	serveCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
