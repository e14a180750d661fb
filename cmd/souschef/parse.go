package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/conversation"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "parse <transcript>",
		Short:   "Classify a transcript and print the resulting command",
		Example: `  souschef parse "set a pasta timer to 8 minutes"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := conversation.NewKeywordParser(a.log.Named("parser"))
			c, err := parser.Parse(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("parsing transcript: %w", err)
			}
			printCommand(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printCommand(w io.Writer, c domain.Command) {
	fmt.Fprintf(w, "command: %s\n", c.Kind)
	if c.Kind != domain.CommandCreateTimer {
		return
	}
	fmt.Fprintf(w, "label:   %s\n", c.Label)
	fmt.Fprintf(w, "seconds: %d\n", c.Seconds)
	fmt.Fprintf(w, "reply:   %s\n", engine.LineTimerStarted(c.Label, c.Quantity, c.Unit))
}
