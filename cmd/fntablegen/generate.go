package main

import (
	"context"

	"fntablegen/internal/generation"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

const defaultInput = "server.h"

var (
	outputDir      string
	goBindingsPath string
)

var generateCmd = &cobra.Command{
	Use:   "generate [header]",
	Short: "Write all artifacts, or none when anything fails",
	Long: `Parse the header once and write every artifact. The header may be a
local path or an http(s) URL and defaults to server.h.

Examples:
  fntablegen generate
  fntablegen generate module/server.h --out module/
  fntablegen generate server.h --go-bindings ffi/fn_table.go`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	for _, cmd := range []*cobra.Command{generateCmd, checkCmd, watchCmd} {
		cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (default: output.dir from the config, else the working directory)")
		cmd.Flags().StringVar(&goBindingsPath, "go-bindings", "", "Also emit Go bindings to this path, relative to the output directory")
	}
}

func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultInput
}

func resolvedOutputDir() string {
	switch {
	case outputDir != "":
		return outputDir
	case cfg.Output.Dir != "":
		return cfg.Output.Dir
	}
	return "."
}

// render reads the header and produces every artifact in memory.
func render(ctx context.Context, input string) (*generation.Result, error) {
	if goBindingsPath != "" {
		cfg.Output.GoBindings = goBindingsPath
	}
	lines, err := metadata.ReadSource(ctx, input)
	if err != nil {
		return nil, err
	}
	result, err := generation.NewGenerator(cfg, logger).Generate(lines)
	if err != nil {
		return nil, errors.Wrapf(err, "generating from %s", input)
	}
	return result, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	input := inputPath(args)
	result, err := render(cmd.Context(), input)
	if err != nil {
		return err
	}

	dir := resolvedOutputDir()
	if err := generation.Write(dir, result.Artifacts); err != nil {
		return err
	}
	for _, artifact := range result.Artifacts {
		logger.Infow("wrote artifact", "path", artifact.Path, "dir", dir, "bytes", len(artifact.Content))
	}
	logger.Infow("generation complete",
		"input", input,
		"methods", result.Methods.Len(),
		"call_table", result.CallTable.Len(),
		"overrides", result.Overrides.Len())
	return nil
}
