package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/navtree"
	"github.com/vango-dev/waypoint/internal/script"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/middleware"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "run <config> <script>",
		Short: "Replay a navigation script against a route tree",
		Long: `Build the route tree declared in the config on in-memory history
and replay the script, printing where every router ends up and whether
each expectation holds.

Examples:
  waypoint run tree.yaml flow.nav
  waypoint run tree.json flow.nav --snapshot
  waypoint run tree.yaml flow.nav --log-level=debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			logger, err := flags.logger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			s, err := script.ParseFile(args[1])
			if err != nil {
				return err
			}

			root := middleware.Logging(history.NewMemory(cfg.Initial...), logger.With("router", "root"))
			tree, err := navtree.Build(cfg, root,
				navtree.WithLogger(logger),
				navtree.WithChildWrapper(func(name string, h history.History) history.History {
					return middleware.Logging(h, logger.With("router", name))
				}),
			)
			if err != nil {
				return err
			}
			defer tree.Close()

			out := cmd.OutOrStdout()
			_, runErr := script.Run(s, tree, out)
			if snapshot {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(tree.Snapshot()); err != nil {
					return fmt.Errorf("encode snapshot: %w", err)
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "Print the final state of every route as JSON")

	return cmd
}
