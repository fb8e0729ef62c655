package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const maxLineSize = 1 << 20

type component struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type parsedLine struct {
	Line       int         `json:"line"`
	Components []component `json:"components"`
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Decode statement comments from a query log",
		Long: `Reads log lines from stdin and prints one JSON object per line that
carries a statement comment. Text a logger writes after the statement, such as
a duration, is ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := zerolog.Ctx(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

			n := 0
			for scanner.Scan() {
				n++
				components, ok := parseLine(scanner.Text())
				if !ok {
					logger.Debug().Int("line", n).Msg("no statement comment")
					continue
				}

				out := parsedLine{Line: n, Components: make([]component, 0, len(components))}
				for _, c := range components {
					out.Components = append(out.Components, component{Name: c.Name, Value: c.Value})
				}
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("failed to write line %d: %w", n, err)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		},
	}
}

// parseLine decodes the last comment of line, cutting whatever follows it.
func parseLine(line string) (comment.Components, bool) {
	end := strings.LastIndex(line, "*/")
	if end < 0 {
		return nil, false
	}
	return comment.Parse(line[:end+len("*/")])
}
