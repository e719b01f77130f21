package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lankasignal/lankasignal/internal/report"
	"github.com/lankasignal/lankasignal/internal/snapshot"
	"github.com/lankasignal/lankasignal/internal/window"
)

var (
	flagSignalHours   string
	flagSignalSources []string
	flagSignalLimit   int
	flagSignalJSON    bool
	flagPersist       bool
	flagPublish       bool
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Detect risks, opportunities, trends and anomalies",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d := a.detector()
		w := d.Lookback()
		if flagSignalHours != "" {
			h, err := parseHours(flagSignalHours)
			if err != nil {
				return fmt.Errorf("invalid --hours value: %w", err)
			}
			w = window.Last(h)
		}

		bundle, err := d.Generate(w, flagSignalSources)
		if err != nil {
			return fmt.Errorf("detecting signals: %w", err)
		}

		if flagPersist {
			n := 0
			for _, s := range bundle.Signals() {
				if _, err := a.store.AddSignal(s); err != nil {
					return fmt.Errorf("persisting signals: %w", err)
				}
				n++
			}
			fmt.Fprintf(os.Stderr, "Persisted %d signals\n", n)
		}

		if flagPublish {
			if a.cfg.Redis.Addr == "" {
				return fmt.Errorf("--publish needs redis.addr in the config")
			}
			ctx := context.Background()
			client, err := snapshot.Connect(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer client.Close()
			pub := snapshot.New(client, a.cfg.Redis.Key, a.cfg.RedisTTL())
			if err := pub.Publish(ctx, bundle); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Published snapshot to %s\n", pub.Key())
		}

		if flagSignalJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		}
		fmt.Println(report.Signals(bundle, flagSignalLimit))
		return nil
	},
}

func init() {
	signalsCmd.Flags().StringVar(&flagSignalHours, "hours", "", "lookback window (e.g., 24h, 3d); defaults to signal_lookback_hours")
	signalsCmd.Flags().StringSliceVar(&flagSignalSources, "source", nil, "restrict to these sources (repeatable)")
	signalsCmd.Flags().IntVar(&flagSignalLimit, "limit", 10, "entries shown per section (0 for all)")
	signalsCmd.Flags().BoolVar(&flagSignalJSON, "json", false, "print the bundle as JSON")
	signalsCmd.Flags().BoolVar(&flagPersist, "persist", false, "store the detected signals")
	signalsCmd.Flags().BoolVar(&flagPublish, "publish", false, "publish the bundle to Redis")
}
