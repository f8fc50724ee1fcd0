package main

import (
	"os"
	"path/filepath"
	"strings"

	"fntablegen/internal/config"
	"fntablegen/internal/generation"
	"fntablegen/internal/schema"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	bindOutput  string
	bindFormat  string
	bindPackage string
)

var bindCmd = &cobra.Command{
	Use:   "bind <schema>",
	Short: "Generate Go bindings from a schema document",
	Long: `Read a schema written by generate and emit a Go package mirroring the
call table: one uintptr slot per method and one struct per plain-data type.

Examples:
  fntablegen bind api.json                     # Print to stdout
  fntablegen bind api.yaml -o ffi/fn_table.go  # Write to a file`,
	Args: cobra.ExactArgs(1),
	RunE: runBind,
}

func init() {
	bindCmd.Flags().StringVarP(&bindOutput, "output", "o", "", "Output file (default: stdout)")
	bindCmd.Flags().StringVar(&bindFormat, "format", "", "Schema format, json or yaml (default: from the file extension)")
	bindCmd.Flags().StringVar(&bindPackage, "package", "", "Go package name (default: bindings.package from the config)")
}

func runBind(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading schema %s", args[0])
	}

	format := bindFormat
	if format == "" {
		format = config.SchemaFormatJSON
		if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".yaml" || ext == ".yml" {
			format = config.SchemaFormatYAML
		}
	}
	document, err := schema.Decode(data, format)
	if err != nil {
		return errors.Wrapf(err, "schema %s", args[0])
	}

	if bindPackage != "" {
		cfg.Bindings.Package = bindPackage
	}
	source, err := generation.NewGoBindings(cfg).Emit(document)
	if err != nil {
		return err
	}

	if bindOutput == "" {
		_, err = cmd.OutOrStdout().Write(source)
		return err
	}
	if err := generation.Write(filepath.Dir(bindOutput), []generation.Artifact{
		{Path: filepath.Base(bindOutput), Content: source},
	}); err != nil {
		return err
	}
	logger.Infow("wrote go bindings", "path", bindOutput, "methods", len(document.Methods))
	return nil
}
