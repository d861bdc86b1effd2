package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv/internal/app"
	"github.com/dotcommander/tablekv/internal/output"
)

// Execute runs the CLI application.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "tablekv",
		Short:         "Key-value operations on a relational table (get/set, TTL, counters, scans)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.EnsureConfigDir()
		},
	}

	root.PersistentFlags().String("dsn", "", "Connection string (default: $TABLEKV_DSN or config.yaml)")
	root.PersistentFlags().String("config", "", "Explicit settings file (default: standard config.yaml lookup)")
	root.PersistentFlags().String("driver", "", "Backend driver: postgres or sqlite")
	root.PersistentFlags().String("table", "", "Table name (default: kv_store)")
	root.PersistentFlags().String("schema", "", "Schema qualifying the table")
	root.PersistentFlags().String("table-type", "", "Durability for auto-created tables: unlogged or regular")
	root.PersistentFlags().String("cleanup", "", "Expired-row handling: on_read, manual, or disabled")
	root.Flags().BoolP("version", "v", false, "version for tablekv")

	root.AddCommand(newGetCmd())
	root.AddCommand(newSetCmd())
	root.AddCommand(newDelCmd())
	root.AddCommand(newExistsCmd())
	root.AddCommand(newGetSetCmd())
	root.AddCommand(newGetDelCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newCountCmd())
	root.AddCommand(newDelPrefixCmd())
	root.AddCommand(newIncrCmd())
	root.AddCommand(newDecrCmd())
	root.AddCommand(newTTLCmd())
	root.AddCommand(newExpireCmd())
	root.AddCommand(newPersistCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newVacuumCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newInitCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Error("command failed", "error", err.Error())
		}
	}
	return err
}
