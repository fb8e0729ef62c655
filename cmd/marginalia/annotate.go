package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/spf13/cobra"
)

func newAnnotateCmd() *cobra.Command {
	var (
		pairs []string
		app   string
	)

	cmd := &cobra.Command{
		Use:   "annotate [SQL]",
		Short: "Append a comment to a statement",
		Long: `Appends /*name=value,...*/ built from the given components to the
statement, before a trailing ';'. The statement is read from stdin when no
argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := parseComponents(app, pairs)
			if err != nil {
				return err
			}

			var sql string
			if len(args) == 1 {
				sql = args[0]
			} else {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read statement: %w", err)
				}
				sql = strings.TrimRight(string(in), "\n")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), comment.Annotate(sql, comment.Format(components)))
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "component", "c", nil, "component as name=value, repeatable")
	cmd.Flags().StringVar(&app, "app", "", `value of the "app" component`)
	return cmd
}

func parseComponents(app string, pairs []string) (comment.Components, error) {
	var components comment.Components
	if app != "" {
		components = components.Merge(comment.Components{{Name: comment.ApplicationKey, Value: app}})
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid component %q: want name=value", pair)
		}
		components = components.Merge(comment.Components{{Name: name, Value: value}})
	}
	return components, nil
}
