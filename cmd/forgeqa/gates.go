package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"forgeqa/internal/aggregate"
	"forgeqa/internal/arch"
	"forgeqa/internal/cargo"
	"forgeqa/internal/display"
	"forgeqa/internal/logger"
	"forgeqa/internal/pattern"
	"forgeqa/internal/report"
	"forgeqa/internal/static"
)

var staticCmd = &cobra.Command{
	Use:   "static <crate> <out.json>",
	Short: "Check crate layout, file sizes and compiler diagnostics",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runStatic(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		passed := static.Passed(r)
		display.GateResult(display.StaticLine(r), passed)
		failUnless(passed)
		return nil
	},
}

var archCmd = &cobra.Command{
	Use:   "arch <crate> <out.json>",
	Short: "Check ECS layering and forbidden imports",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runArch(args[0], args[1])
		if err != nil {
			return err
		}
		passed := arch.Passed(r)
		display.GateResult(display.ArchLine(r), passed)
		failUnless(passed)
		return nil
	},
}

var patternCmd = &cobra.Command{
	Use:   "pattern <crate> [registry.yaml] <out.json>",
	Short: "Classify functions against the canonical archetypes",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		registryPath, out := "", args[len(args)-1]
		if len(args) == 3 {
			registryPath = args[1]
		}
		r, err := runPattern(args[0], registryPath, out)
		if err != nil {
			return err
		}
		display.GateResult(display.PatternLine(r), true)
		return nil
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <static.json> <arch.json> <pattern.json> <out.json> <crate_name>",
	Short: "Grade a crate from the three gate reports",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := aggregate.Paths{Static: args[0], Arch: args[1], Pattern: args[2]}
		v, err := runAggregate(cmd.Context(), paths, args[3], args[4])
		if err != nil {
			return err
		}
		failUnless(v.Pass)
		return nil
	},
}

func runStatic(ctx context.Context, crate, out string) (*report.StaticReport, error) {
	gate, err := static.NewGate(cargo.NewRunner(cfg.Cargo.Binary))
	if err != nil {
		return nil, err
	}
	r, err := gate.Run(ctx, crate, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "static gate")
	}
	return r, report.SaveStatic(out, r)
}

func runArch(crate, out string) (*report.ArchReport, error) {
	r, err := arch.Run(crate, arch.DefaultRules(), time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "arch gate")
	}
	return r, report.SaveArch(out, r)
}

func runPattern(crate, registryPath, out string) (*report.PatternReport, error) {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	r, err := pattern.Run(crate, reg, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, "pattern gate")
	}
	return r, report.SavePattern(out, r)
}

// runAggregate grades the crate, writes the verdict, prints it and records it in the ledger
// when one is configured.
func runAggregate(ctx context.Context, paths aggregate.Paths, out, crateName string) (*report.Verdict, error) {
	in, err := aggregate.LoadInputs(paths, crateName)
	if err != nil {
		return nil, errors.WithHint(err, "re-run the gate that produced the malformed report")
	}

	policy := aggregate.DefaultPolicy()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	v := aggregate.Aggregate(policy, in, time.Now())
	if err := report.SaveVerdict(out, v); err != nil {
		return nil, err
	}
	if err := display.Verdict(v); err != nil {
		return nil, err
	}

	ledger, err := openLedger()
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		defer ledger.Close()
		runID, err := ledger.Record(ctx, v, time.Now())
		if err != nil {
			return nil, errors.Wrap(err, "record verdict")
		}
		logger.Named("aggregate").Infow("verdict recorded",
			logger.FieldCrate, crateName,
			"run_id", runID,
			logger.FieldGrade, string(v.Grade))
	}
	return v, nil
}
