package main

import (
	"fmt"

	"fntablegen/internal/generation"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var errDrift = errors.New("generated artifacts are out of date")

var checkCmd = &cobra.Command{
	Use:   "check [header]",
	Short: "Fail when the artifacts on disk differ from a fresh render",
	Long: `Render every artifact in memory and compare it with the file on disk.
Nothing is written. The exit status is 2 when any artifact drifted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	result, err := render(cmd.Context(), inputPath(args))
	if err != nil {
		return err
	}

	drifts, err := generation.Compare(resolvedOutputDir(), result.Artifacts)
	if err != nil {
		return err
	}
	for _, drift := range drifts {
		if drift.Missing {
			logger.Errorw("artifact missing", "path", drift.Path)
			continue
		}
		logger.Errorw("artifact out of date", "path", drift.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "--- %s (-disk +generated)\n%s\n", drift.Path, drift.Diff)
	}
	if len(drifts) > 0 {
		return errors.WithHint(
			errors.Wrapf(errDrift, "%d of %d artifacts", len(drifts), len(result.Artifacts)),
			"run fntablegen generate and commit the result")
	}
	logger.Infow("artifacts up to date", "count", len(result.Artifacts))
	return nil
}
