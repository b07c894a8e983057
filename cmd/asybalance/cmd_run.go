package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/bundle"
	"github.com/GriffinCanCode/asybalance/internal/config"
	"github.com/GriffinCanCode/asybalance/internal/host"
	"github.com/GriffinCanCode/asybalance/internal/runner"
)

var (
	prefsFile   string
	optionsFile string
	accountID   string
	task        string
	runTimeout  time.Duration
	interactive bool
)

var runCmd = &cobra.Command{
	Use:   "run [script.js | bundle]",
	Short: "Execute a provider once and print its results",
	Long: `Executes a provider program and prints the session report as JSON.

The argument is either a single .js file or a provider bundle (a directory
or zip archive with anybalance-manifest.xml).

Example:
  asybalance run ./provider.zip --prefs prefs.yaml --options options.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProvider,
}

func init() {
	runCmd.Flags().StringVarP(&prefsFile, "prefs", "p", "", "preferences file (json, yaml or toml)")
	runCmd.Flags().StringVarP(&optionsFile, "options", "o", "", "options file (json, yaml or toml)")
	runCmd.Flags().StringVar(&accountID, "account", "", "account id (default: derived from preferences)")
	runCmd.Flags().StringVar(&task, "task", "", "task passed to main()")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "wall-clock budget (default: SESSION_TIMEOUT)")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "answer retrieveCode prompts on the terminal")
}

func runProvider(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, masked, closeJob, err := loadJob(args[0])
	if err != nil {
		return err
	}
	defer closeJob()

	if prefsFile != "" {
		job.Preferences, err = config.LoadPreferences(prefsFile)
		if err != nil {
			return err
		}
	}
	if optionsFile != "" {
		job.Options, err = config.LoadOptions(optionsFile)
		if err != nil {
			return err
		}
	}
	logger.Debug("Preferences loaded", zap.Any("preferences", bundle.Mask(job.Preferences, masked)))
	job.AccountID = accountID
	job.Task = task
	job.Timeout = runTimeout

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	var retriever host.Retriever
	if interactive {
		retriever = newTerminalRetriever(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	r := runner.New(runnerConfig(cfg, store, nil, retriever, logger.Logger))
	resp, err := r.Run(ctx, job)
	if resp == nil {
		return err
	}

	out, mErr := sonic.ConfigStd.MarshalIndent(resp, "", "  ")
	if mErr != nil {
		return mErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// loadJob reads a script file or a provider bundle. The returned keys name
// preferences that must be masked in logs.
func loadJob(path string) (runner.Job, []string, func(), error) {
	noop := func() {}

	if strings.EqualFold(filepath.Ext(path), ".js") {
		script, err := os.ReadFile(path)
		if err != nil {
			return runner.Job{}, nil, noop, err
		}
		return runner.Job{Script: string(script), Name: filepath.Base(path)}, nil, noop, nil
	}

	b, err := bundle.Open(path)
	if err != nil {
		return runner.Job{}, nil, noop, err
	}
	closeBundle := func() { _ = b.Close() }

	script, err := b.Script()
	if err != nil {
		closeBundle()
		return runner.Job{}, nil, noop, err
	}
	masked, err := b.MaskedPreferences()
	if err != nil {
		logger.Warn("Unreadable preferences screen", zap.String("provider", b.ID), zap.Error(err))
	}

	logger.Info("Bundle loaded", zap.String("provider", b.ID), zap.Int("version", b.Version))
	return runner.Job{Script: script, Name: b.ID}, masked, closeBundle, nil
}
