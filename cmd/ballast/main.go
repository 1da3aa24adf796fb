package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ballastio/ballast/internal/loader"
	adapt "github.com/ballastio/ballast/pkg/adapter"
	"github.com/ballastio/ballast/pkg/adapter/csvfile"
	"github.com/ballastio/ballast/pkg/config"
	"github.com/ballastio/ballast/pkg/logger"

	// Import the remaining adapters to register them
	_ "github.com/ballastio/ballast/pkg/adapter/memory"
	_ "github.com/ballastio/ballast/pkg/adapter/parquet"
	_ "github.com/ballastio/ballast/pkg/adapter/postgres"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	root := &cobra.Command{
		Use:   "ballast",
		Short: "Ballast - verified load stage for tabular pipelines",
		Long: `Ballast persists transformed datasets into row-oriented and columnar
representations, verifies each copy against its source (record counts, column
sets, types and sampled content) and measures storage efficiency across
formats.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Ballast v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List registered format adapters",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Registered format adapters:")
			for _, format := range adapt.Formats() {
				fmt.Printf("  - %s\n", format)
			}
		},
	})

	var configFile, fullFile, incrementalFile, outputFile string
	var timeout time.Duration

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a verified load",
		Long: `Run a verified load of the full and incremental datasets into every
configured destination. The run report is written as JSON.

Example:
  ballast run --config load.yaml --full full.csv --incremental incremental.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(configFile, fullFile, incrementalFile, outputFile, timeout)
		},
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to load configuration YAML file (required)")
	runCmd.Flags().StringVar(&fullFile, "full", "", "Path to the full dataset CSV (required)")
	runCmd.Flags().StringVar(&incrementalFile, "incremental", "", "Path to the incremental dataset CSV")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Path for the JSON run report (default: stdout)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Load run timeout")
	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("full")

	root.AddCommand(runCmd)

	var initFile string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter load configuration",
		Long: `Write a starter load configuration with a CSV baseline and a parquet
destination. Edit the destinations to match your environment before running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeStarterConfig(initFile)
		},
	}
	initCmd.Flags().StringVarP(&initFile, "output", "o", "load.yaml", "Path for the generated configuration")
	root.AddCommand(initCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// writeStarterConfig generates a configuration that runs out of the box
// against local files, so new users have something concrete to edit.
func writeStarterConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}

	cfg := config.NewLoadConfig("example-load")
	cfg.Destinations = []adapt.DestinationSpec{
		{Format: "csv", Path: "out/data.csv"},
		{Format: "parquet", Path: "out/data.parquet", Options: map[string]string{"compression": "snappy"}},
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func runLoad(configFile, fullFile, incrementalFile, outputFile string, timeout time.Duration) error {
	cfg := config.NewLoadConfig("")
	if err := config.Load(configFile, cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	}); err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(zap.String("component", "ballast-cli"), zap.String("run", cfg.Name))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Instantiate one adapter per format named in the destinations
	adapters := make(map[string]adapt.Adapter)
	for _, dest := range cfg.Destinations {
		if _, ok := adapters[dest.Format]; ok {
			continue
		}
		ad, err := adapt.Create(dest.Format, dest.Options)
		if err != nil {
			return fmt.Errorf("failed to create %q adapter: %w", dest.Format, err)
		}
		adapters[dest.Format] = ad
	}

	jobs, err := buildJobs(ctx, cfg, fullFile, incrementalFile)
	if err != nil {
		return err
	}

	orchestrator, err := loader.New(cfg, adapters, log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	log.Info("starting load run",
		zap.String("config", configFile),
		zap.Int("datasets", len(jobs)),
		zap.Int("destinations", len(cfg.Destinations)))

	report := orchestrator.Run(ctx, jobs)

	out, err := report.JSON()
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if outputFile == "" {
		fmt.Println(string(out))
	} else if err := os.WriteFile(outputFile, out, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if report.Failed() {
		return fmt.Errorf("load run %s failed: %s", report.RunID, report.Error)
	}
	return nil
}

// buildJobs reads the input datasets and derives per-dataset destination
// specs from the configured templates, so the full and incremental copies
// never share a physical destination.
func buildJobs(ctx context.Context, cfg *config.LoadConfig, fullFile, incrementalFile string) ([]loader.Job, error) {
	reader, err := csvfile.New(nil)
	if err != nil {
		return nil, err
	}

	inputs := []struct {
		name string
		path string
	}{
		{name: "full", path: fullFile},
	}
	if incrementalFile != "" {
		inputs = append(inputs, struct {
			name string
			path string
		}{name: "incremental", path: incrementalFile})
	}

	var jobs []loader.Job
	for _, in := range inputs {
		ds, err := reader.Read(ctx, adapt.DestinationSpec{Format: csvfile.FormatName, Path: in.path})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dataset: %w", in.name, err)
		}
		ds.Name = in.name

		specs := make([]adapt.DestinationSpec, len(cfg.Destinations))
		for i, template := range cfg.Destinations {
			specs[i] = destinationFor(template, in.name)
		}
		jobs = append(jobs, loader.Job{Dataset: ds, Destinations: specs})
	}

	return jobs, nil
}

// destinationFor specializes a destination template for a named dataset
func destinationFor(template adapt.DestinationSpec, name string) adapt.DestinationSpec {
	spec := template
	if spec.Path != "" {
		ext := filepath.Ext(spec.Path)
		spec.Path = strings.TrimSuffix(spec.Path, ext) + "_" + name + ext
	}
	if spec.Table != "" {
		spec.Table = spec.Table + "_" + name
	}
	return spec
}
