package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/output"
)

func newIncrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incr <key>",
		Short: "Atomically increment a counter and return the new value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			by, _ := cmd.Flags().GetInt64("by")
			return withStore(cmd, func(s *tablekv.Store) error {
				n, err := s.Increment(args[0], by)
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"value": n})
			})
		},
	}
	cmd.Flags().Int64("by", 1, "Amount to add")
	return cmd
}

func newDecrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decr <key>",
		Short: "Atomically decrement a counter and return the new value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			by, _ := cmd.Flags().GetInt64("by")
			return withStore(cmd, func(s *tablekv.Store) error {
				n, err := s.Decrement(args[0], by)
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"value": n})
			})
		},
	}
	cmd.Flags().Int64("by", 1, "Amount to subtract")
	return cmd
}
