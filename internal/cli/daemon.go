// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/http/server"
	"newsfeed.app/internal/metric"
	"newsfeed.app/internal/newsfeed"
	"newsfeed.app/internal/storage"
)

var daemonCmd = cobra.Command{
	Use:   "daemon",
	Short: "Refresh feeds periodically and serve stored items over HTTP",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewDaemon().Run(cmd.Context()); err != nil {
			slog.Error("daemon exited with error", slog.Any("error", err))
			return err
		}
		return nil
	},
}

func NewDaemon() *Daemon { return &Daemon{} }

type Daemon struct {
	store      *storage.Storage
	g          *errgroup.Group
	httpServer *http.Server
}

func (self *Daemon) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	slog.Info("Starting daemon...")
	defer self.close(ctx)

	if err := self.configure(ctx); err != nil {
		return err
	}

	ctx, err := self.start(ctx)
	if err != nil {
		return err
	}
	return self.wait(ctx)
}

func (self *Daemon) close(ctx context.Context) {
	if self.store != nil {
		self.store.Close(ctx)
	}
}

func (self *Daemon) configure(ctx context.Context) error {
	store, err := makeStorage(ctx)
	if err != nil {
		return err
	}
	self.store = store

	if config.Opts.RunMigrations() {
		if err := self.store.Migrate(ctx); err != nil {
			return err
		}
	}
	return self.store.SchemaUpToDate(ctx)
}

// start starts the scheduler and HTTP server. Returned context is canceled
// when any of them fails.
func (self *Daemon) start(ctx context.Context) (context.Context, error) {
	listener, err := server.Listener()
	if err != nil {
		return nil, err
	}

	if config.Opts.HasMetricsCollector() {
		metric.RegisterMetrics()
		self.store.RegisterMetrics()
	}

	self.g, ctx = errgroup.WithContext(ctx)
	self.runScheduler(ctx, self.store)
	self.httpServer = server.StartWebServer(ctx, self.store, self.g, listener)
	return ctx, nil
}

func (self *Daemon) runScheduler(ctx context.Context, store schedulerStore) {
	slog.Info("Starting background scheduler...")
	svc := newsfeed.New(config.Opts.FeedURLs()...)

	self.g.Go(func() error {
		feedScheduler(ctx, store, svc, config.Opts.PollingFrequency())
		return nil
	})

	self.g.Go(func() error {
		cleanupScheduler(ctx, store, config.Opts.CleanupArchiveDays(),
			cleanupFrequency)
		return nil
	})
}

func (self *Daemon) wait(ctx context.Context) error {
	<-ctx.Done()
	if self.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Shutting down the process gracefully...")
		if err := self.httpServer.Shutdown(ctx); err != nil {
			slog.Error("failed shutdown http server", slog.Any("error", err))
		}
	}

	if err := self.g.Wait(); err != nil {
		slog.Error("process stopped with error", slog.Any("error", err))
		return fmt.Errorf("process stopped with error: %w", err)
	}
	slog.Info("Process gracefully stopped")
	return nil
}
