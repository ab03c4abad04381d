package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"forgeqa/internal/aggregate"
	"forgeqa/internal/arch"
	"forgeqa/internal/display"
	"forgeqa/internal/logger"
	"forgeqa/internal/static"
)

var (
	runOutDir    string
	runCrateName string
)

var runCmd = &cobra.Command{
	Use:   "run <crate>",
	Short: "Run every gate on a crate and grade it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crate, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		outDir := runOutDir
		if outDir == "" {
			outDir = filepath.Join(crate, cfg.Output.Dir)
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", outDir)
		}
		name := runCrateName
		if name == "" {
			name = filepath.Base(crate)
		}

		paths := aggregate.Paths{
			Static:  filepath.Join(outDir, staticArtifact),
			Arch:    filepath.Join(outDir, archArtifact),
			Pattern: filepath.Join(outDir, patternArtifact),
		}
		log := logger.Named("run")
		start := time.Now()

		// The three gates share nothing but the read-only source tree.
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			r, err := runStatic(ctx, crate, paths.Static)
			if err == nil {
				display.GateResult(display.StaticLine(r), static.Passed(r))
			}
			return err
		})
		g.Go(func() error {
			r, err := runArch(crate, paths.Arch)
			if err == nil {
				display.GateResult(display.ArchLine(r), arch.Passed(r))
			}
			return err
		})
		g.Go(func() error {
			r, err := runPattern(crate, "", paths.Pattern)
			if err == nil {
				display.GateResult(display.PatternLine(r), true)
			}
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}
		log.Debugw("gates finished", logger.FieldDurationMS, time.Since(start).Milliseconds())

		v, err := runAggregate(cmd.Context(), paths, filepath.Join(outDir, verdictArtifact), name)
		if err != nil {
			return err
		}
		failUnless(v.Pass)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "Directory for the gate artifacts (default <crate>/.forgeqa)")
	runCmd.Flags().StringVarP(&runCrateName, "name", "n", "", "Crate name on the verdict (default: directory name)")
}
