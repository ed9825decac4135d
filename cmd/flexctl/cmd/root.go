package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rawbytedev/flexus"
)

var (
	schemaPath string
	traceFlag  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flexctl",
	Short: "Inspect and build binary data from flexus schema files",
	Long: `flexctl loads a declarative schema document (TOML or YAML) and uses
it to decode binary files into readable records or to encode JSON records
back into bytes.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if traceFlag {
			l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(zerolog.TraceLevel).
				With().Timestamp().Logger()
			flexus.SetTraceLogger(l)
		}
	},
}

// Execute runs the command tree. It is called once, by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "schema document (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "trace the pass field by field on stderr")
	rootCmd.MarkPersistentFlagRequired("schema")
}
