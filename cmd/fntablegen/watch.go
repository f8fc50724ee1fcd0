package main

import (
	"os/signal"
	"syscall"
	"time"

	"fntablegen/internal/config"
	"fntablegen/internal/generation"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [header]",
	Short: "Regenerate whenever the header or the config changes",
	Long: `Generate once, then watch the header and the config file and regenerate
after every change. A failed run is logged and the previous artifacts stay
in place. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	input := inputPath(args)
	if metadata.IsRemote(input) {
		return errors.Newf("cannot watch remote header %s", input)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regenerate := func() {
		if configPath != "" {
			reloaded, err := config.Load(configPath)
			if err != nil {
				logger.Errorw("config rejected, keeping previous one", "error", err)
			} else {
				cfg = reloaded
			}
		}
		result, err := render(ctx, input)
		if err != nil {
			logger.Errorw("generation failed, artifacts left untouched", "error", err)
			return
		}
		if err := generation.Write(resolvedOutputDir(), result.Artifacts); err != nil {
			logger.Errorw("writing artifacts failed", "error", err)
			return
		}
		logger.Infow("regenerated", "methods", result.Methods.Len())
	}

	regenerate()
	return generation.NewWatcher([]string{input, configPath}, watchDebounce, logger, regenerate).Run(ctx)
}
