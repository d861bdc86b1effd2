package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/output"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get the value stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withMeta, _ := cmd.Flags().GetBool("meta")
			return withStore(cmd, func(s *tablekv.Store) error {
				if withMeta {
					entry, err := s.GetEntry(args[0])
					if err != nil {
						return err
					}
					if entry == nil {
						return output.PrintSuccess(map[string]any{"found": false})
					}
					type resp struct {
						Found bool `json:"found"`
						valueJSON
						ExpiresAt *time.Time `json:"expires_at,omitempty"`
						CreatedAt time.Time  `json:"created_at"`
						UpdatedAt time.Time  `json:"updated_at"`
					}
					return output.PrintSuccess(resp{
						Found:     true,
						valueJSON: encodeValue(entry.Value),
						ExpiresAt: entry.ExpiresAt,
						CreatedAt: entry.CreatedAt,
						UpdatedAt: entry.UpdatedAt,
					})
				}

				value, found, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if !found {
					return output.PrintSuccess(map[string]any{"found": false})
				}
				type resp struct {
					Found bool `json:"found"`
					valueJSON
				}
				return output.PrintSuccess(resp{Found: true, valueJSON: encodeValue(value)})
			})
		},
	}
	cmd.Flags().Bool("meta", false, "Include expiry and timestamp metadata")
	return cmd
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			isBase64, _ := cmd.Flags().GetBool("base64")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			ifAbsent, _ := cmd.Flags().GetBool("if-absent")

			value, err := decodeValue(args[1], isBase64)
			if err != nil {
				return cmdErr(err)
			}

			return withStore(cmd, func(s *tablekv.Store) error {
				if ifAbsent {
					var inserted bool
					var err error
					if ttl > 0 {
						inserted, err = s.SetNXEx(args[0], value, ttl)
					} else {
						inserted, err = s.SetNX(args[0], value)
					}
					if err != nil {
						return err
					}
					return output.PrintSuccess(map[string]any{"inserted": inserted})
				}

				if ttl > 0 {
					err = s.SetEx(args[0], value, ttl)
				} else {
					err = s.Set(args[0], value)
				}
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"stored": true})
			})
		},
	}
	cmd.Flags().Bool("base64", false, "Treat the value argument as base64-encoded binary")
	cmd.Flags().Duration("ttl", 0, "Expire the key after this duration (e.g. 30m, 24h)")
	cmd.Flags().Bool("if-absent", false, "Only store when the key does not exist")
	return cmd
}

func newDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>...",
		Short: "Delete one or more keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				deleted, err := s.DeleteMany(args)
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"deleted": deleted})
			})
		},
	}
}

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Check whether a key exists and is live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				exists, err := s.Exists(args[0])
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"exists": exists})
			})
		},
	}
}

func newGetSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getset <key> <value>",
		Short: "Store a value and return the previous one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			isBase64, _ := cmd.Flags().GetBool("base64")
			value, err := decodeValue(args[1], isBase64)
			if err != nil {
				return cmdErr(err)
			}
			return withStore(cmd, func(s *tablekv.Store) error {
				old, found, err := s.GetAndSet(args[0], value)
				if err != nil {
					return err
				}
				if !found {
					return output.PrintSuccess(map[string]any{"found": false})
				}
				type resp struct {
					Found bool `json:"found"`
					valueJSON
				}
				return output.PrintSuccess(resp{Found: true, valueJSON: encodeValue(old)})
			})
		},
	}
	cmd.Flags().Bool("base64", false, "Treat the value argument as base64-encoded binary")
	return cmd
}

func newGetDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "getdel <key>",
		Short: "Delete a key and return the value it held",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				old, found, err := s.GetAndDelete(args[0])
				if err != nil {
					return err
				}
				if !found {
					return output.PrintSuccess(map[string]any{"found": false})
				}
				type resp struct {
					Found bool `json:"found"`
					valueJSON
				}
				return output.PrintSuccess(resp{Found: true, valueJSON: encodeValue(old)})
			})
		},
	}
}
