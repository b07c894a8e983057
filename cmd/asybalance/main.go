package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/config"
	"github.com/GriffinCanCode/asybalance/internal/infrastructure/logging"
)

var (
	verbose bool
	dev     bool

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "asybalance",
	Short: "Run AnyBalance providers outside the app",
	Long: `asybalance executes AnyBalance provider programs in a sandbox.

Use "run" to execute a provider once and print its results, or "serve" to
start the execution API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		logCfg := logging.DefaultConfig()
		if dev || cfg.Logging.Development {
			logCfg = logging.DevelopmentConfig()
		}
		logCfg.Level = cfg.Logging.Level
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&dev, "dev", false, "human readable logs")

	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
