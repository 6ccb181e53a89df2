package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/kerf/pkg/cad"
)

func runCmd(c *cli) *cobra.Command {
	var (
		file string
		stl  string
	)
	cmd := &cobra.Command{
		Use:   "run [request...]",
		Short: "Interpret one request or script and build it",
		Example: `  kerf run a box 10 20 30 then fillet the edges 1
  kerf run --file examples/bracket.kerf --stl bracket.stl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to run: pass a request or --file")
			}

			ctx := cmd.Context()
			out := c.pipeline.Submit(ctx, text)
			fmt.Fprint(cmd.OutOrStdout(), c.render.Entry(out.Entry))
			if out.Entry.Failed() {
				return errors.New(out.Entry.Error)
			}

			if stl != "" {
				paths, err := c.writeSTL(ctx, out.Solids, stl)
				for _, p := range paths {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the request or script from a file")
	cmd.Flags().StringVar(&stl, "stl", "", "write the result to an STL file")
	return cmd
}

// writeSTL writes one STL per solid. Several solids get numbered names:
// part.stl becomes part-1.stl, part-2.stl, ...
func (c *cli) writeSTL(ctx context.Context, ids []cad.SolidID, path string) ([]string, error) {
	var written []string
	for i, id := range ids {
		p := path
		if len(ids) > 1 {
			ext := filepath.Ext(path)
			p = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
		}
		if err := c.pipeline.Executor().STL(ctx, id, p); err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}
