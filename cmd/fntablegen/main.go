// Command fntablegen derives the call table header, the override bodies and
// the schema of a pluggable server from its header.
package main

import (
	"fmt"
	"os"

	"fntablegen/internal/config"
	"fntablegen/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	logJSON    bool

	cfg    *config.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "fntablegen",
	Short: "Generate a C call table, forwarding overrides and a schema from a C++ header",
	Long: `fntablegen reads the pure virtual methods of a server header and derives,
from one parse, three artifacts that must stay in step:

  fn_table.h      struct of C function pointers plus plain-data structs
  server_gen.cpp  overrides that forward each method through the table
  api.json        schema for bindings maintained in another language

Examples:
  fntablegen generate server.h             # Write the artifacts next to the config
  fntablegen generate server.h -o build/   # Write into build/
  fntablegen check server.h                # Fail when committed artifacts are stale
  fntablegen watch server.h                # Regenerate on every save
  fntablegen bind api.json -o ffi.go       # Go bindings from a schema`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = logging.New(verbose, logJSON); err != nil {
			return errors.Wrap(err, "initializing logger")
		}
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file layered over the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(generateCmd, checkCmd, watchCmd, bindCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errDrift) {
		return 2
	}
	return 1
}
