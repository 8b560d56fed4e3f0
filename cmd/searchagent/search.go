package main

import (
	"io"
	"strings"

	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/spf13/cobra"
)

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web with the search_web tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := c.providerFactory()
			if err != nil {
				return err
			}

			tool := websearch.New(c.credentials(), websearch.WithProviderFactory(factory))
			res, err := tool.Run(contextFor(cmd), &websearch.Request{
				Query: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			c.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				printResult(w, res)
			})
			return nil
		},
	}
}
