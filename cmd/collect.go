package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lankasignal/lankasignal/internal/analytics"
	"github.com/lankasignal/lankasignal/internal/feed"
	"github.com/lankasignal/lankasignal/internal/report"
)

var (
	flagOnce     bool
	flagForce    bool
	flagInterval string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect, categorize and analyze news",
	Long: `Run collection cycles: fetch every enabled source, categorize and score new
articles, then print the current signals.

Without --once the cycle repeats every refresh_interval until interrupted.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&flagOnce, "once", false, "run a single cycle and exit")
	collectCmd.Flags().BoolVar(&flagForce, "force", false, "fetch even if sources were refreshed recently")
	collectCmd.Flags().StringVar(&flagInterval, "interval", "", "override refresh_interval (e.g., 30m)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	interval := a.cfg.RefreshDuration()
	if flagInterval != "" {
		d, err := time.ParseDuration(flagInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid --interval value %q", flagInterval)
		}
		interval = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := feed.NewCollector(a.store, a.cfg, slog.Default())
	if flagOnce {
		return runCycle(ctx, a, collector, flagForce || a.store.NeedsRefresh(interval))
	}

	slog.Info("starting continuous collection", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	force := true
	for {
		if err := runCycle(ctx, a, collector, force); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("collection cycle failed", "error", err)
		}
		force = false
		select {
		case <-ctx.Done():
			slog.Info("stopping collection")
			return nil
		case <-ticker.C:
			force = true
		}
	}
}

// runCycle fetches (when fetch is set), processes pending articles and
// prints the signals.
func runCycle(ctx context.Context, a *app, collector *feed.Collector, fetch bool) error {
	runID := uuid.New().String()
	logger := slog.Default().With("run_id", runID)
	start := time.Now()

	if fetch {
		sources := a.cfg.EnabledSources()
		fmt.Printf("Fetching %d sources...\n", len(sources))
		res := collector.Collect(ctx, sources)
		for _, e := range res.Errors() {
			fmt.Printf("  [warn] %v\n", e)
		}
		fmt.Printf("Found %d articles (%d new)\n", res.Found, res.Added)
		if err := a.store.SetLastRefresh(); err != nil {
			logger.Warn("recording refresh time failed", "error", err)
		}
		autoPrune(a.store, a.cfg.RetentionDuration(), logger)
	} else {
		fmt.Println("Sources refreshed recently, skipping fetch (use --force).")
	}

	proc, train := a.processor()
	if !train.OK {
		logger.Warn("statistical classifier unavailable", "reason", train.Reason)
	}
	processed, err := proc.ProcessArticles(ctx)
	if err != nil {
		return fmt.Errorf("processing articles: %w", err)
	}
	fmt.Printf("Processed %d articles\n", len(processed))

	d := a.detector()
	if top, err := analytics.New(a.store).ActiveSources(d.Lookback(), 3); err != nil {
		logger.Warn("ranking sources failed", "error", err)
	} else {
		fmt.Printf("Most active: %s\n", report.ActiveSources(top))
	}

	bundle, err := d.GenerateAll()
	if err != nil {
		return fmt.Errorf("detecting signals: %w", err)
	}
	fmt.Println(report.Signals(bundle, 5))

	logger.Info("cycle complete", "processed", len(processed), "duration", time.Since(start).String())
	return nil
}

type pruner interface {
	Prune(olderThan time.Duration) (int64, error)
}

// autoPrune applies the configured retention. Zero retention keeps every
// article.
func autoPrune(p pruner, retention time.Duration, logger *slog.Logger) int64 {
	if retention <= 0 {
		return 0
	}
	n, err := p.Prune(retention)
	if err != nil {
		logger.Warn("auto-prune failed", "error", err)
		return 0
	}
	if n > 0 {
		logger.Info("pruned old articles", "count", n, "retention", retention.String())
	}
	return n
}
