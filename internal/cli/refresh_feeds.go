// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/model"
	"newsfeed.app/internal/newsfeed"
	"newsfeed.app/internal/storage"
)

var refreshCmd = cobra.Command{
	Use:   "refresh",
	Short: "Refresh all feeds, store their items and exit",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(),
			func(ctx context.Context, store *storage.Storage) error {
				if err := store.SchemaUpToDate(ctx); err != nil {
					return err
				}
				svc := newsfeed.New(config.Opts.FeedURLs()...)
				return refreshFeeds(ctx, store, svc)
			})
	},
}

type itemStorer interface {
	StoreItems(ctx context.Context, items model.Items) (int64, error)
}

func refreshFeeds(ctx context.Context, store itemStorer,
	svc *newsfeed.Service,
) error {
	startTime := time.Now()
	items, err := svc.GetNewsFeed(ctx)
	if err != nil {
		return err
	}

	affected, err := store.StoreItems(ctx, items)
	if err != nil {
		return fmt.Errorf("cli: refresh feeds: %w", err)
	}

	logging.FromContext(ctx).Info("Feeds refreshed",
		slog.Int("feeds", len(svc.FeedURLs())),
		slog.Int("items", len(items)),
		slog.Int64("stored", affected),
		slog.Duration("elapsed", time.Since(startTime)))
	return nil
}
