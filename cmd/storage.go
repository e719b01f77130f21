package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old articles and signals from the store",
	Long: `Delete articles and signals older than the retention period.

Uses the retention value from config unless overridden with --older-than.
With no retention configured, --older-than is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		retention := a.cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			h, err := parseHours(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = hoursDuration(h)
		}
		if retention <= 0 {
			return fmt.Errorf("no retention configured; set retention in the config or pass --older-than")
		}
		if retention.Hours() < a.cfg.TrainingLookbackHours {
			fmt.Printf("Note: keeping less than training_lookback_hours (%gh) of history.\n", a.cfg.TrainingLookbackHours)
		}

		deleted, err := a.store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d article(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func formatDuration(d time.Duration) string {
	h := d.Hours()
	days := int(h / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(h))
}
