// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"context"
	"log/slog"
	"time"

	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/newsfeed"
)

const cleanupFrequency = 24 * time.Hour

type schedulerStore interface {
	itemStorer
	itemCleaner
}

// feedScheduler refreshes all feeds right away and after that every freq,
// until ctx canceled.
func feedScheduler(ctx context.Context, store itemStorer,
	svc *newsfeed.Service, freq time.Duration,
) {
	log := logging.FromContext(ctx)
	log.Info("feed scheduler started", slog.Duration("freq", freq))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("feed scheduler stopped",
				slog.Any("reason", context.Cause(ctx)))
			return
		case <-timer.C:
			log.Debug("feed scheduler got tick")
			if err := refreshFeeds(ctx, store, svc); err != nil {
				log.Error("Unable to refresh feeds", slog.Any("error", err))
			}
		}
		timer.Reset(freq)
	}
}

func cleanupScheduler(ctx context.Context, store itemCleaner, days int,
	freq time.Duration,
) {
	log := logging.FromContext(ctx)
	log.Info("cleanup scheduler started", slog.Duration("freq", freq))

	ticker := time.NewTicker(freq)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("cleanup scheduler stopped")
			return
		case <-ticker.C:
			if err := runCleanupTasks(ctx, store, days); err != nil {
				log.Error("Unable to cleanup items", slog.Any("error", err))
			}
		}
	}
}
