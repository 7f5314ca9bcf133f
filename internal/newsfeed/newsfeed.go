// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package newsfeed // import "newsfeed.app/internal/newsfeed"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/metric"
	"newsfeed.app/internal/model"
	"newsfeed.app/internal/reader/excerpt"
	"newsfeed.app/internal/reader/fetcher"
	"newsfeed.app/internal/reader/parser"
)

// FetchFunc downloads body of a feed.
type FetchFunc func(ctx context.Context, feedURL string) ([]byte, error)

// New returns Service for feedURLs, which uses configured excerpt length and
// worker pool size.
func New(feedURLs ...string) *Service {
	return &Service{
		feedURLs:      feedURLs,
		excerptLength: config.Opts.ExcerptLength(),
		workers:       config.Opts.WorkerPoolSize(),
		fetch:         fetcher.Fetch,
	}
}

// Service collects news items from a set of feeds.
type Service struct {
	feedURLs      []string
	excerptLength int
	workers       int
	fetch         FetchFunc
}

func (self *Service) WithExcerptLength(n int) *Service {
	self.excerptLength = n
	return self
}

func (self *Service) WithWorkers(n int) *Service {
	self.workers = n
	return self
}

func (self *Service) WithFetch(fn FetchFunc) *Service {
	self.fetch = fn
	return self
}

func (self *Service) FeedURLs() []string { return self.feedURLs }

// GetNewsFeed fetches all feeds concurrently and returns their items, newest
// first. A feed, which failed, is logged and skipped. An error is returned
// only if every feed failed, or ctx was canceled.
func (self *Service) GetNewsFeed(ctx context.Context) (model.Items, error) {
	if len(self.feedURLs) == 0 {
		return nil, nil
	}

	log := logging.FromContext(ctx).With(slog.Int("feeds", len(self.feedURLs)))
	log.Debug("newsfeed: refreshing feeds")
	startTime := time.Now()

	var g errgroup.Group
	if self.workers > 0 {
		g.SetLimit(self.workers)
	}

	// Results are kept in configured feed order, so items with equal dates
	// don't depend on which feed was fetched first.
	perFeed := make([]model.Items, len(self.feedURLs))
	errs := make([]error, len(self.feedURLs))

	for i, feedURL := range self.feedURLs {
		g.Go(func() error {
			perFeed[i], errs[i] = self.refreshFeed(
				logging.WithFeed(ctx, feedURL), feedURL)
			return nil
		})
	}
	_ = g.Wait()

	err := self.joinErrors(errs)
	status := metric.StatusSuccess
	if err != nil {
		status = metric.StatusError
	}
	elapsed := time.Since(startTime)
	metric.RefreshDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	if err != nil {
		return nil, err
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("newsfeed: refresh canceled: %w", err)
	}

	items := model.Items(slices.Concat(perFeed...))
	items.SortByDate()
	log.Info("newsfeed: refreshed feeds",
		slog.Int("items", len(items)),
		slog.Duration("elapsed", elapsed))
	return items, nil
}

func (self *Service) refreshFeed(ctx context.Context, feedURL string,
) (model.Items, error) {
	log := logging.FromContext(ctx)
	b, err := self.fetch(ctx, feedURL)
	if err != nil {
		log.Error("newsfeed: unable to fetch feed", slog.Any("error", err))
		return nil, fmt.Errorf("newsfeed: fetch %q: %w", feedURL, err)
	}

	feed, err := parser.ParseBytes(feedURL, b)
	if err != nil {
		log.Error("newsfeed: unable to parse feed", slog.Any("error", err))
		return nil, fmt.Errorf("newsfeed: parse %q: %w", feedURL, err)
	}

	items := make(model.Items, len(feed.Entries))
	for i, entry := range feed.Entries {
		items[i] = model.NewItem(feed, entry, self.excerpt(entry.Description))
	}
	log.Debug("newsfeed: feed parsed",
		slog.String("title", feed.Title), slog.Int("items", len(items)))
	return items, nil
}

func (self *Service) excerpt(description string) string {
	s, cut := excerpt.Truncate(excerpt.StripHTML(description), self.excerptLength)
	metric.ExcerptCuts.WithLabelValues(cut.String()).Inc()
	return s
}

func (self *Service) joinErrors(errs []error) error {
	for _, err := range errs {
		if err == nil {
			return nil
		}
	}
	return errors.Join(errs...)
}
