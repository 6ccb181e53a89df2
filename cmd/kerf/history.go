package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent requests from the transcript database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.pipeline.History(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("%w (set KERF_HISTORY_PATH or --history)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.render.History(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}
