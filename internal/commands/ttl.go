package commands

import (
	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/output"
)

func newTTLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <key>",
		Short: "Show the remaining time before a key expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				remaining, ok, err := s.TTL(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return output.PrintSuccess(map[string]any{"has_ttl": false})
				}
				type resp struct {
					HasTTL           bool    `json:"has_ttl"`
					Remaining        string  `json:"remaining"`
					RemainingSeconds float64 `json:"remaining_seconds"`
				}
				return output.PrintSuccess(resp{
					HasTTL:           true,
					Remaining:        remaining.String(),
					RemainingSeconds: remaining.Seconds(),
				})
			})
		},
	}
}

func newExpireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expire <key>",
		Short: "Set or overwrite a key's expiration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			return withStore(cmd, func(s *tablekv.Store) error {
				ok, err := s.Expire(args[0], ttl)
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"updated": ok})
			})
		},
	}
	cmd.Flags().Duration("ttl", 0, "Duration until expiration (e.g. 30m, 24h)")
	_ = cmd.MarkFlagRequired("ttl")
	return cmd
}

func newPersistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "persist <key>",
		Short: "Remove a key's expiration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				ok, err := s.Persist(args[0])
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"updated": ok})
			})
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete every expired row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				removed, err := s.CleanupExpired()
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"removed": removed})
			})
		},
	}
}
