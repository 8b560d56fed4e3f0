package main

import (
	"fmt"
	"io"

	"github.com/effective-security/searchagent/pkg/llmutils"
	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/spf13/cobra"
)

func newSchemaCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the search_web function declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := websearch.FunctionsConfig()
			c.print(cmd.OutOrStdout(), cfg, func(w io.Writer) {
				fmt.Fprintln(w, llmutils.ToJSONIndent(cfg))
			})
			return nil
		},
	}
}
