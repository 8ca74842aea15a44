package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/server"
	"github.com/hyperjump/ingat/internal/watcher"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on the configured address.

With --watch, files created or modified under ingest.directories are
ingested automatically, and existing files are synced on startup.

Examples:
  ingat serve
  ingat serve --addr 0.0.0.0:9000 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			watch, _ := cmd.Flags().GetBool("watch")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			cfg := c.Config
			if addr == "" {
				addr = cfg.Server.Addr()
			}

			if watch {
				if len(cfg.Ingest.Directories) == 0 {
					return errors.New("--watch needs at least one entry in ingest.directories")
				}
				w := watcher.New(cfg.Ingest.Directories, c.Ingester.Accepts, func(path string) {
					if _, err := c.Ingester.IngestFile(ctx, path); err != nil {
						c.Logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
					}
				},
					watcher.WithLogger(c.Logger),
					watcher.WithDebounce(cfg.Ingest.Debounce),
				)
				if err := w.Start(ctx); err != nil {
					return fmt.Errorf("failed to start watcher: %w", err)
				}
				defer w.Stop()

				syncCtx, cancelSync := context.WithCancel(ctx)
				syncDone := make(chan struct{})
				go func() {
					defer close(syncDone)
					start := time.Now()
					n := w.SyncExisting(syncCtx)
					c.Logger.Info("initial sync finished",
						zap.Strings("roots", w.Roots()),
						zap.Int("files", n),
						zap.Duration("took", time.Since(start)))
				}()
				defer func() {
					cancelSync()
					<-syncDone
				}()
				c.Logger.Info("initial sync started in background", zap.Strings("roots", w.Roots()))
			}

			srv := server.NewServer(c.Memory, c.Chat, server.Options{
				Addr:           addr,
				TopK:           c.Chat.TopK(),
				DatabasePath:   cfg.Storage.DatabasePath,
				IndexType:      cfg.Vector.IndexType,
				EmbeddingModel: cfg.Embedding.Model,
				RequestTimeout: cfg.Embedding.Timeout + cfg.Generation.Timeout + 30*time.Second,
			}, c.Logger)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			c.Logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from server.host and server.port)")
	cmd.Flags().Bool("watch", false, "Ingest files from ingest.directories as they change")
	return cmd
}
