// Command marginalia annotates SQL statements and decodes the annotations
// found in query logs.
//
//	marginalia annotate -c app=blog -c controller=posts "select * from posts"
//	select * from posts /*app=blog,controller=posts*/
//
//	tail -f postgresql.log | marginalia parse
//	{"line":12,"components":[{"name":"app","value":"blog"},...]}
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("marginalia failed")
		os.Exit(1)
	}
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "marginalia",
		Short:         "Annotate SQL statements with application context",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			cmd.SetContext(logger.Level(level).WithContext(cmd.Context()))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log skipped input lines")

	root.AddCommand(newAnnotateCmd(), newParseCmd())
	return root
}
