package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"forgeqa/internal/display"
	"forgeqa/internal/storage"
)

var (
	historyLimit  int
	historyLatest bool
)

var historyCmd = &cobra.Command{
	Use:   "history <crate_name>",
	Short: "Show the recorded verdicts of a crate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		if ledger == nil {
			return errors.WithHint(errors.New("no ledger configured"),
				"pass --ledger, set FORGEQA_LEDGER or ledger.path in forgeqa.yaml")
		}
		defer ledger.Close()

		if historyLatest {
			return showLatest(cmd.Context(), ledger, args[0])
		}

		entries, err := ledger.History(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return err
		}
		return display.History(args[0], entries)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Show at most this many runs (0 for all)")
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "Show only the newest run with its dimension breakdown")
}

func showLatest(ctx context.Context, ledger storage.Ledger, crateName string) error {
	entry, err := ledger.Latest(ctx, crateName)
	if errors.Is(err, storage.ErrNoRuns) {
		return display.History(crateName, nil)
	}
	if err != nil {
		return err
	}
	dims, err := ledger.Dimensions(ctx, entry.RunID)
	if err != nil {
		return err
	}
	return display.Run(entry, dims)
}
