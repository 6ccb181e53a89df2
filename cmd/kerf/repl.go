package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func replCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read requests line by line against one session",
		Long: `Each line is interpreted and built in the same kernel session.
:reset discards every solid, :live lists solids not yet consumed,
:quit exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			prompt := color.HiBlackString("kerf> ")

			fmt.Fprint(out, prompt)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
				case ":quit", ":q":
					return nil
				case ":reset":
					c.pipeline.Reset()
					fmt.Fprintln(out, "session reset")
				case ":live":
					ids, err := c.pipeline.Executor().Live(ctx)
					if err != nil {
						fmt.Fprintln(out, color.RedString(err.Error()))
						break
					}
					for _, id := range ids {
						fmt.Fprintln(out, id)
					}
				default:
					fmt.Fprint(out, c.render.Entry(c.pipeline.Submit(ctx, line).Entry))
				}
				fmt.Fprint(out, prompt)
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}
}
