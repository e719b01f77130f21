package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/report"
	"github.com/lankasignal/lankasignal/internal/window"
)

var (
	flagStatsHours    string
	flagStatsHoursEnd string
	flagStatsSources  []string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store, model and window statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		older, err := parseHours(flagStatsHours)
		if err != nil {
			return fmt.Errorf("invalid --hours value: %w", err)
		}
		newer := 0.0
		if flagStatsHoursEnd != "" {
			if newer, err = parseHours(flagStatsHoursEnd); err != nil {
				return fmt.Errorf("invalid --hours-end value: %w", err)
			}
		}

		dsn := a.cfg.DatabaseDSN()
		count, size, err := a.store.Stats(dsn)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		if strings.HasPrefix(dsn, "postgres") {
			fmt.Println("Store: postgres")
		} else {
			fmt.Printf("Store: %s (%s)\n", dsn, formatBytes(size))
		}
		fmt.Printf("Articles: %d\n", count)

		if err := a.classifier.Load(); err == nil {
			info := a.classifier.Info()
			fmt.Printf("Model: %s (accuracy %.1f%%, %d terms, trained %s)\n",
				info.Path, info.Accuracy*100, info.Vocabulary, info.TrainedAt.Local().Format("Jan 2 15:04"))
		} else {
			fmt.Println("Model: not trained")
		}

		sum, err := analytics.New(a.store).Summary(window.Between(older, newer), flagStatsSources, a.cfg.Trending.TopN, a.cfg.Trending.MinOccurrences)
		if err != nil {
			return err
		}
		fmt.Println(report.Summary(sum))
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&flagStatsHours, "hours", "24h", "start of the window, as an age (e.g., 24h, 7d)")
	statsCmd.Flags().StringVar(&flagStatsHoursEnd, "hours-end", "", "end of the window, as an age (default now)")
	statsCmd.Flags().StringSliceVar(&flagStatsSources, "source", nil, "restrict to these sources (repeatable)")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
