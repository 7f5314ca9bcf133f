// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/model"
)

const upsertItemSQL = `
INSERT INTO items (hash, feed_url, title, excerpt, url, published_at)
VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (hash) DO UPDATE
   SET feed_url = excluded.feed_url,
       title = excluded.title,
       excerpt = excluded.excerpt,
       url = excluded.url,
       published_at = excluded.published_at,
       changed_at = now()
 WHERE (items.title, items.excerpt, items.url, items.published_at)
       IS DISTINCT FROM
       (excluded.title, excluded.excerpt, excluded.url, excluded.published_at)`

// StoreItems inserts new items and updates known ones, matching them by hash.
// Everything is sent in one batch and one transaction. It returns the number
// of rows, which were inserted or changed.
func (s *Storage) StoreItems(ctx context.Context, items model.Items,
) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	// Only the first of items with the same hash is stored. Items come sorted
	// newest first.
	b := new(pgx.Batch)
	for _, item := range items.Unique() {
		b.Queue(upsertItemSQL, item.Hash, item.FeedURL, item.Title,
			item.Excerpt, item.URL, item.PublishDate)
	}

	var affected int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, b)
		for range b.Len() {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return err
			}
			affected += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("storage: store %d items: %w", b.Len(), err)
	}

	logging.FromContext(ctx).Debug("storage: stored items",
		slog.Int("items", b.Len()),
		slog.Int64("affected", affected))
	return affected, nil
}

// Items returns up to limit stored items, newest first. Items with the same
// publish date are returned in order they were stored.
func (s *Storage) Items(ctx context.Context, limit int) (model.Items, error) {
	rows, _ := s.db.Query(ctx, `
SELECT title, excerpt, published_at, url, hash, feed_url
  FROM items
 ORDER BY published_at DESC, id ASC
 LIMIT $1`, limit)

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Item])
	if err != nil {
		return nil, fmt.Errorf("storage: fetch items: %w", err)
	}
	for _, item := range items {
		item.PublishDate = item.PublishDate.UTC()
	}
	return items, nil
}

// CleanupItems removes items published before olderThan and returns how many
// were removed.
func (s *Storage) CleanupItems(ctx context.Context, olderThan time.Time,
) (int64, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM items WHERE published_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("storage: cleanup items older than %v: %w",
			olderThan, err)
	}
	return result.RowsAffected(), nil
}

// CountItems returns the number of stored items.
func (s *Storage) CountItems(ctx context.Context) (int, error) {
	rows, _ := s.db.Query(ctx, `SELECT count(*) FROM items`)
	n, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: count items: %w", err)
	}
	return n, nil
}
