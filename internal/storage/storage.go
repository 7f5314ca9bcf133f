// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsfeed.app/internal/logging"
)

const (
	applicationName = "newsfeed"
	pingTimeout     = 5 * time.Second
)

// Option tunes the connection pool before it's created.
type Option func(c *pgxpool.Config)

// WithConns limits the pool to maxConns connections and keeps at least
// minConns of them open.
func WithConns(maxConns, minConns int) Option {
	return func(c *pgxpool.Config) {
		c.MaxConns = int32(maxConns)
		c.MinConns = int32(minConns)
	}
}

// WithLifetime closes connections older than d.
func WithLifetime(d time.Duration) Option {
	return func(c *pgxpool.Config) { c.MaxConnLifetime = d }
}

// Storage keeps news items in PostgreSQL.
type Storage struct {
	db *pgxpool.Pool
}

// New parses connString, applies opts and opens a lazy connection pool.
func New(ctx context.Context, connString string, opts ...Option,
) (*Storage, error) {
	c, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("storage: parse connection string: %w", err)
	}

	params := c.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	c.ConnConfig.Tracer = queryTracer{}
	for _, fn := range opts {
		fn(c)
	}

	p, err := pgxpool.NewWithConfig(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	return &Storage{db: p}, nil
}

// Connect is New followed by Ping. The pool is closed when the database
// doesn't answer.
func Connect(ctx context.Context, connString string, opts ...Option,
) (*Storage, error) {
	s, err := New(ctx, connString, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.Ping(ctx); err != nil {
		s.db.Close()
		return nil, err
	}

	logging.FromContext(ctx).Info("Connected to database",
		slog.String("server_version", s.DatabaseVersion(ctx)),
		slog.Int("max_conns", int(s.db.Config().MaxConns)))
	return s, nil
}

// Close logs pool statistics and closes all connections.
func (s *Storage) Close(ctx context.Context) {
	logging.FromContext(ctx).Info("Database pool closed",
		slog.Group("pool", poolStatAttrs(s.db.Stat())...))
	s.db.Close()
}

func poolStatAttrs(stat *pgxpool.Stat) []any {
	return []any{
		slog.Int64("acquired", stat.AcquireCount()),
		slog.Duration("acquire_time", stat.AcquireDuration()),
		slog.Int64("canceled", stat.CanceledAcquireCount()),
		slog.Int64("waited", stat.EmptyAcquireCount()),
		slog.Duration("wait_time", stat.EmptyAcquireWaitTime()),
		slog.Int64("opened", stat.NewConnsCount()),
		slog.Int("total", int(stat.TotalConns())),
		slog.Int("idle", int(stat.IdleConns())),
	}
}

// DatabaseVersion returns server_version of the database, or the error text
// when it can't be queried.
func (s *Storage) DatabaseVersion(ctx context.Context) string {
	rows, _ := s.db.Query(ctx, `SHOW server_version`)
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[string])
	if err != nil {
		return err.Error()
	}
	return v
}

// Ping checks the database answers within a few seconds.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("storage: ping: %w", err)
	}
	return nil
}
