package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/lankasignal/lankasignal/internal/api"
	"github.com/lankasignal/lankasignal/internal/snapshot"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON query API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.API.Addr
		if flagAddr != "" {
			addr = flagAddr
		}
		if addr == "" {
			addr = ":8080"
		}

		if parseLevel(a.cfg.Log.Level) > slog.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}

		h := api.NewHandler(a.store, a.detector(), api.Options{
			DefaultHours:   a.cfg.SignalLookbackHours,
			TopN:           a.cfg.Trending.TopN,
			MinOccurrences: a.cfg.Trending.MinOccurrences,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if a.cfg.Redis.Addr != "" {
			client, err := snapshot.Connect(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
			if err != nil {
				slog.Warn("redis unavailable, /signals/latest disabled", "error", err)
			} else {
				defer client.Close()
				h.SetSnapshots(snapshot.New(client, a.cfg.Redis.Key, a.cfg.RedisTTL()))
			}
		}

		srv := &http.Server{
			Addr:         addr,
			Handler:      api.NewRouter(h, a.cfg.API.CORSOrigins),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("api listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serving api: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from api.addr)")
}
