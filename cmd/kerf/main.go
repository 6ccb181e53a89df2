// Command kerf interprets CAD requests from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/pipeline"
)

var version = "dev"

// cli holds state shared by every subcommand.
type cli struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	render   *renderer

	kernel  string
	history string
	asJSON  bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:     "kerf",
		Short:   "Turn plain-language requests into solids",
		Version: version,
		Long: `kerf interprets requests such as "a box 10 20 30 then fillet the edges 1"
or scripts such as (fillet (union (box 10 10 10) (sphere 6)) :radius 1)
and builds them with the configured geometry kernel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.pipeline != nil {
				if err := c.pipeline.Close(); err != nil {
					c.logger.Warn("close pipeline", "error", err)
				}
			}
		},
	}

	root.PersistentFlags().StringVar(&c.kernel, "kernel", "", "geometry kernel (sdfx or manifold); overrides KERF_KERNEL")
	root.PersistentFlags().StringVar(&c.history, "history", "", "transcript database path; overrides KERF_HISTORY_PATH")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print entries as JSON")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(runCmd(c), replCmd(c), historyCmd(c))
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.kernel != "" {
		cfg.Kernel = c.kernel
	}
	if c.history != "" {
		cfg.HistoryPath = c.history
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.noColor {
		color.NoColor = true
	}

	c.cfg = cfg
	c.logger = cfg.Logger(os.Stderr)
	c.render = &renderer{json: c.asJSON}
	c.pipeline, err = pipeline.New(cfg, c.logger, pipeline.WithMeshing(false))
	return err
}
