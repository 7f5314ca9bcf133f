// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"

	"newsfeed.app/internal/logging"
)

// migrateLockID is the key of advisory lock, which serializes migrations of
// daemons started together.
const migrateLockID = 0x6e657773

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Migrate applies all migrations, which the database doesn't have yet. Every
// migration runs in its own transaction.
func (s *Storage) Migrate(ctx context.Context) error {
	current, err := schemaVersionOf(ctx, s.db)
	if err != nil {
		return err
	}

	log := logging.FromContext(ctx).With(
		slog.Int("latest_version", schemaVersion))
	if current >= schemaVersion {
		log.Info("storage: database schema is up to date",
			slog.Int("current_version", current))
		return nil
	}
	log.Info("storage: running database migrations",
		slog.Int("current_version", current))

	for v := current; v < schemaVersion; v++ {
		applied, err := s.applyVersion(ctx, v)
		if err != nil {
			return err
		} else if applied {
			log.Info("storage: migration applied", slog.Int("version", v+1))
		}
	}
	return nil
}

// applyVersion migrates schema from version v to v+1. It returns false, if
// somebody else has done it already.
func (s *Storage) applyVersion(ctx context.Context, v int) (bool, error) {
	var applied bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockID)
		if err != nil {
			return fmt.Errorf("lock: %w", err)
		}

		current, err := schemaVersionOf(ctx, tx)
		if err != nil {
			return err
		} else if current > v {
			return nil
		}

		if err := migrations[v].Do(ctx, tx); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE schema_version SET version = $1`,
			strconv.Itoa(v+1))
		if err != nil {
			return fmt.Errorf("update version: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("storage: migration %d -> %d: %w", v, v+1, err)
	}
	return applied, nil
}

// schemaVersionOf returns version of database schema, or 0 for an empty
// database.
func schemaVersionOf(ctx context.Context, q querier) (int, error) {
	rows, _ := q.Query(ctx, `SELECT to_regclass('schema_version') IS NOT NULL`)
	exists, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return 0, fmt.Errorf("storage: looking for schema_version table: %w", err)
	} else if !exists {
		return 0, nil
	}

	rows, _ = q.Query(ctx, `SELECT CAST(version AS INTEGER) FROM schema_version`)
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: unable fetch schema version: %w", err)
	}
	return v, nil
}

// SchemaUpToDate returns an error, if database schema needs migrations.
func (s *Storage) SchemaUpToDate(ctx context.Context) error {
	current, err := schemaVersionOf(ctx, s.db)
	if err != nil {
		return err
	} else if current < schemaVersion {
		return fmt.Errorf(
			"storage: database schema is not up to date: current=v%d expected=v%d, run migrate",
			current, schemaVersion)
	}
	return nil
}
