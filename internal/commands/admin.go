package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/output"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and size statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				st, err := s.Stats()
				if err != nil {
					return err
				}
				return output.PrintSuccess(st)
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every row in the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fast, _ := cmd.Flags().GetBool("fast")
			return withStore(cmd, func(s *tablekv.Store) error {
				if fast {
					if err := s.Truncate(); err != nil {
						return err
					}
					return output.PrintSuccess(map[string]any{"cleared": true})
				}
				n, err := s.Clear()
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"cleared": true, "deleted": n})
			})
		},
	}
	cmd.Flags().Bool("fast", false, "Use the backend's bulk truncate path (no row count)")
	return cmd
}

func newVacuumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim storage after deletes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				if err := s.Vacuum(); err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"vacuumed": true})
			})
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Refresh planner statistics for the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				if err := s.Analyze(); err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"analyzed": true})
			})
		},
	}
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the backing table and expiry index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recreate, _ := cmd.Flags().GetBool("recreate")
			return withStore(cmd, func(s *tablekv.Store) error {
				// Open already ran the idempotent DDL; only a forced rebuild
				// needs extra work.
				if recreate {
					if err := s.RecreateTable(); err != nil {
						return err
					}
				}
				return output.PrintSuccess(map[string]any{"table": s.Config().Table(), "recreated": recreate})
			})
		},
	}
	cmd.Flags().Bool("recreate", false, "Drop and recreate the table, discarding all data")
	return cmd
}
