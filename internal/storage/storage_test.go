// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed.app/internal/model"
)

// newTestStorage connects to TEST_DATABASE_URL, migrates the schema and
// truncates items. The test is skipped without it.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := t.Context()
	s, err := Connect(ctx, dbURL, WithConns(4, 0), WithLifetime(time.Minute))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SchemaUpToDate(ctx))
	_, err = s.db.Exec(ctx, `TRUNCATE items`)
	require.NoError(t, err)
	return s
}

func hashes(items model.Items) []string {
	s := make([]string, len(items))
	for i, item := range items {
		s[i] = item.Hash
	}
	return s
}

func testItem(hash string, date time.Time) *model.Item {
	return &model.Item{
		Title:       "Title " + hash,
		Excerpt:     "Excerpt " + hash,
		PublishDate: date,
		URL:         "https://example.org/" + hash,
		Hash:        hash,
		FeedURL:     "https://example.org/rss",
	}
}

func TestStorage_StoreItems(t *testing.T) {
	s := newTestStorage(t)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Second)

	items := model.Items{
		testItem("a", now.Add(-time.Hour)),
		testItem("b", now),
		testItem("c", now.Add(-time.Hour)),
	}
	n, err := s.StoreItems(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	stored, err := s.Items(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, hashes(stored))
	assert.Equal(t, items[1], stored[0])

	count, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Unchanged items aren't touched, changed ones updated.
	changed := testItem("a", now.Add(-time.Hour))
	changed.Title = "New title"
	n, err = s.StoreItems(ctx, model.Items{changed, testItem("c", now.Add(-time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err = s.Items(ctx, 2)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "New title", stored[1].Title)
}

func TestStorage_StoreItems_duplicates(t *testing.T) {
	s := newTestStorage(t)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Second)

	first := testItem("a", now)
	second := testItem("a", now.Add(-time.Hour))
	second.Title = "Second"

	n, err := s.StoreItems(ctx, model.Items{first, second})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := s.Items(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.Title, stored[0].Title)
}

func TestStorage_StoreItems_empty(t *testing.T) {
	s := new(Storage)
	n, err := s.StoreItems(t.Context(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorage_CleanupItems(t *testing.T) {
	s := newTestStorage(t)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.StoreItems(ctx, model.Items{
		testItem("new", now),
		testItem("old", now.AddDate(0, 0, -40)),
	})
	require.NoError(t, err)

	n, err := s.CleanupItems(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := s.Items(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, hashes(stored))
}

func TestStorage_TraceStat(t *testing.T) {
	s := newTestStorage(t)
	ctx, stat := WithTraceStat(t.Context())

	_, err := s.CountItems(ctx)
	require.NoError(t, err)
	_, err = s.StoreItems(ctx, model.Items{testItem("a", time.Now())})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, stat.Queries(), int64(2))
	assert.Positive(t, stat.Elapsed())
	assert.Same(t, stat, TraceStatFrom(ctx))
}

func TestTraceStatFrom_missing(t *testing.T) {
	assert.Nil(t, TraceStatFrom(t.Context()))
}

func TestStorage_Migrate_again(t *testing.T) {
	s := newTestStorage(t)
	ctx := t.Context()

	require.NoError(t, s.Migrate(ctx))
	applied, err := s.applyVersion(ctx, 0)
	require.NoError(t, err)
	assert.False(t, applied, "applied migration shouldn't run twice")

	v, err := schemaVersionOf(ctx, s.db)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)
}

func TestNew_options(t *testing.T) {
	s, err := New(t.Context(), "postgres://user@localhost/newsfeed",
		WithConns(7, 2), WithLifetime(time.Hour))
	require.NoError(t, err)
	defer s.db.Close()

	c := s.db.Config()
	assert.Equal(t, int32(7), c.MaxConns)
	assert.Equal(t, int32(2), c.MinConns)
	assert.Equal(t, time.Hour, c.MaxConnLifetime)
	assert.Equal(t, applicationName,
		c.ConnConfig.RuntimeParams["application_name"])
}

func TestNew_applicationName(t *testing.T) {
	s, err := New(t.Context(),
		"postgres://user@localhost/newsfeed?application_name=other")
	require.NoError(t, err)
	defer s.db.Close()
	assert.Equal(t, "other",
		s.db.Config().ConnConfig.RuntimeParams["application_name"])
}

func TestNew_invalid(t *testing.T) {
	_, err := New(t.Context(), "postgres://user@localhost:port/")
	require.Error(t, err)
	assert.ErrorContains(t, err, "storage: parse connection string")
}

func TestStorage_DatabaseVersion(t *testing.T) {
	s := newTestStorage(t)
	assert.Regexp(t, `^\d+`, s.DatabaseVersion(t.Context()))
}

func TestStorage_poolCollectors(t *testing.T) {
	s, err := New(t.Context(), "postgres://user@localhost/newsfeed",
		WithConns(3, 0))
	require.NoError(t, err)
	defer s.db.Close()

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(s.poolCollectors()[4]))
	assert.Equal(t, float64(3), testutil.ToFloat64(s.poolCollectors()[4]))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "newsfeed_pgx_max_conns", families[0].GetName())
}
