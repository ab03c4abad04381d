package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"forgeqa/internal/config"
	"forgeqa/internal/logger"
	"forgeqa/internal/registry"
	"forgeqa/internal/storage"
)

// Exit codes: a gate that ran and failed is distinct from a gate that could not run.
const (
	exitPass  = 0
	exitFail  = 1
	exitError = 2
)

// Artifact names written by `run`.
const (
	staticArtifact  = "static.findings.json"
	archArtifact    = "arch.findings.json"
	patternArtifact = "pattern.matches.json"
	verdictArtifact = "qa.report.json"
)

var (
	rootCmd = &cobra.Command{
		Use:           "forgeqa",
		Short:         "Quality gate for generated Rust crates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("json-log") {
				cfg.Log.JSON = jsonLog
			}
			if verbose {
				cfg.Log.Verbose = true
			}
			if ledgerPath != "" {
				cfg.Ledger.Path = ledgerPath
			}
			return logger.Initialize(cfg.Log.JSON, cfg.Log.Verbose)
		},
	}

	configPath string
	jsonLog    bool
	verbose    bool
	ledgerPath string

	cfg *config.Config
	// exitCode is set by a command whose gate ran to completion.
	exitCode = exitPass
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "💡", hint)
		}
		os.Exit(exitError)
	}
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the forgeqa config file")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Emit logs as JSON on stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Record verdicts in this SQLite ledger")

	rootCmd.AddCommand(staticCmd)
	rootCmd.AddCommand(archCmd)
	rootCmd.AddCommand(patternCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadRegistry reads the signature table from path, the configured file, or the built-in
// archetypes, in that order.
func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		path = cfg.Registry.Path
	}
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

// openLedger returns nil when no ledger is configured.
func openLedger() (*storage.SQLiteStore, error) {
	if cfg.Ledger.Path == "" {
		return nil, nil
	}
	return storage.NewSQLiteStore(cfg.Ledger.Path)
}

func failUnless(passed bool) {
	if !passed {
		exitCode = exitFail
	}
}
