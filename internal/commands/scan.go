package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/output"
)

func scanOptions(cmd *cobra.Command) tablekv.ScanOptions {
	prefix, _ := cmd.Flags().GetString("prefix")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	includeExpired, _ := cmd.Flags().GetBool("include-expired")
	return tablekv.ScanOptions{
		Prefix:         prefix,
		Limit:          limit,
		Offset:         offset,
		IncludeExpired: includeExpired,
	}
}

func addScanFlags(flags *pflag.FlagSet) {
	flags.String("prefix", "", "Restrict to keys with this literal prefix")
	flags.Int("limit", 0, "Maximum number of results (0 = unlimited)")
	flags.Int("offset", 0, "Skip this many results for pagination")
	flags.Bool("include-expired", false, "Include rows past their expiration")
}

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List keys, ordered lexicographically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				keys, err := s.Keys(scanOptions(cmd))
				if err != nil {
					return err
				}
				type resp struct {
					Keys  []string `json:"keys"`
					Count int      `json:"count"`
				}
				return output.PrintSuccess(resp{Keys: keys, Count: len(keys)})
			})
		},
	}
	addScanFlags(cmd.Flags())
	return cmd
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List key-value pairs, ordered by key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				kvs, err := s.Scan(scanOptions(cmd))
				if err != nil {
					return err
				}
				type item struct {
					Key string `json:"key"`
					valueJSON
				}
				items := make([]item, 0, len(kvs))
				for _, kv := range kvs {
					items = append(items, item{Key: kv.Key, valueJSON: encodeValue(kv.Value)})
				}
				type resp struct {
					Items []item `json:"items"`
					Count int    `json:"count"`
				}
				return output.PrintSuccess(resp{Items: items, Count: len(items)})
			})
		},
	}
	addScanFlags(cmd.Flags())
	return cmd
}

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count keys matching the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				n, err := s.Count(scanOptions(cmd))
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"count": n})
			})
		},
	}
	addScanFlags(cmd.Flags())
	return cmd
}

func newDelPrefixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delprefix <prefix>",
		Short: "Delete every key with the given prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *tablekv.Store) error {
				deleted, err := s.DeletePrefix(args[0])
				if err != nil {
					return err
				}
				return output.PrintSuccess(map[string]any{"deleted": deleted})
			})
		},
	}
}
