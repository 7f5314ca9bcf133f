// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// migration changes database schema inside a transaction.
type migration interface {
	Do(ctx context.Context, tx pgx.Tx) error
}

type sqlMigration string

func (self sqlMigration) Do(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, string(self)); err != nil {
		return fmt.Errorf("exec SQL: %w", err)
	}
	return nil
}

//go:embed schema.sql
var fullSchema string

var schemaVersion = len(migrations)

// migrations[i] upgrades schema from version i to i+1. Append new ones only.
var migrations = []migration{
	sqlMigration(fullSchema),

	sqlMigration(`
CREATE INDEX items_published_at_idx ON items (published_at DESC, id);
CREATE INDEX items_feed_url_idx ON items (feed_url);`),
}
