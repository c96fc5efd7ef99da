package main

import (
	"fmt"
	"os"
	"time"

	"jsadapt/internal/config"
	"jsadapt/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	projectDir string
	timeout    time.Duration

	// Logger
	logger *zap.Logger

	// project is loaded once before any command runs.
	project *config.Project
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jsadapt",
	Short: "Adapt JavaScript bundles to the Liferay AMD loader",
	Long: `jsadapt turns the output of a JavaScript bundler into modules for the
namespaced AMD loader.

Internal require calls of every bundle become parameters of a loader
envelope, imported packages are namespaced with their provider, and the
source maps are rewritten so that they keep pointing at the project sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		project, err = loadProject(projectDir)
		if err != nil {
			return err
		}

		logger, err = buildLogger(project.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Initialize(logger)
		logging.BootDebug("logging at %s", logger.Level())
		logging.Boot("project %s@%s in %s", project.Name, project.Version, project.Dir)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func loadProject(dir string) (*config.Project, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	return config.LoadDir(dir)
}

func buildLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Project directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	// Add commands to root
	rootCmd.AddCommand(adaptCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(relocateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
