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
	"newsfeed.app/internal/storage"
)

var cleanupCmd = cobra.Command{
	Use:   "cleanup",
	Short: "Remove items older than CLEANUP_ARCHIVE_DAYS",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(),
			func(ctx context.Context, store *storage.Storage) error {
				return runCleanupTasks(ctx, store,
					config.Opts.CleanupArchiveDays())
			})
	},
}

type itemCleaner interface {
	CleanupItems(ctx context.Context, olderThan time.Time) (int64, error)
}

func runCleanupTasks(ctx context.Context, store itemCleaner, days int) error {
	log := logging.FromContext(ctx)
	if days == 0 {
		log.Debug("Items cleanup disabled")
		return nil
	}

	startTime := time.Now()
	olderThan := startTime.AddDate(0, 0, -days)
	removed, err := store.CleanupItems(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("cli: cleanup items: %w", err)
	}

	log.Info("Items cleanup completed",
		slog.Int64("removed", removed),
		slog.Time("older_than", olderThan),
		slog.Duration("elapsed", time.Since(startTime)))
	return nil
}
