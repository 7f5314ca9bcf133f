// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "newsfeed.app/internal/storage"

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
)

type ctxTraceStat struct{}

var traceStatKey ctxTraceStat = struct{}{}

// TraceStat counts queries made with a context and time spent in them.
type TraceStat struct {
	elapsed atomic.Int64
	queries atomic.Int64
}

func (self *TraceStat) Elapsed() time.Duration {
	return time.Duration(self.elapsed.Load())
}

func (self *TraceStat) Queries() int64 { return self.queries.Load() }

func (self *TraceStat) incQuery(d time.Duration) {
	self.queries.Add(1)
	if d != 0 {
		self.elapsed.Add(d.Nanoseconds())
	}
}

func (self *TraceStat) elapsedSince(t time.Time) {
	self.elapsed.Add(time.Since(t).Nanoseconds())
}

// WithTraceStat returns ctx with attached TraceStat. Every query made with
// returned context is counted there.
func WithTraceStat(ctx context.Context) (context.Context, *TraceStat) {
	s := new(TraceStat)
	return context.WithValue(ctx, traceStatKey, s), s
}

func TraceStatFrom(ctx context.Context) *TraceStat {
	if s, ok := ctx.Value(traceStatKey).(*TraceStat); ok {
		return s
	}
	return nil
}

type ctxTraceQueryData struct{}

var traceQueryDataKey ctxTraceQueryData = struct{}{}

type traceQueryData struct {
	batch     bool
	startTime time.Time
}

func queryDataFrom(ctx context.Context) *traceQueryData {
	if d, ok := ctx.Value(traceQueryDataKey).(*traceQueryData); ok {
		return d
	}
	return &traceQueryData{startTime: time.Now()}
}

type queryTracer struct{}

var (
	_ pgx.BatchTracer = (*queryTracer)(nil)
	_ pgx.QueryTracer = (*queryTracer)(nil)
)

func (self queryTracer) TraceBatchStart(ctx context.Context, conn *pgx.Conn,
	data pgx.TraceBatchStartData,
) context.Context {
	return context.WithValue(ctx, traceQueryDataKey, &traceQueryData{
		batch:     true,
		startTime: time.Now(),
	})
}

func (self queryTracer) TraceBatchQuery(ctx context.Context, conn *pgx.Conn,
	data pgx.TraceBatchQueryData,
) {
	if t := TraceStatFrom(ctx); t != nil {
		t.incQuery(0)
	}
}

func (self queryTracer) TraceBatchEnd(ctx context.Context, conn *pgx.Conn,
	data pgx.TraceBatchEndData,
) {
	if t := TraceStatFrom(ctx); t != nil {
		t.elapsedSince(queryDataFrom(ctx).startTime)
	}
}

func (self queryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	return context.WithValue(ctx, traceQueryDataKey, &traceQueryData{
		startTime: time.Now(),
	})
}

func (self queryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	t := TraceStatFrom(ctx)
	if t == nil {
		return
	}

	// Queries of a batch are counted by TraceBatchQuery.
	if queryDataFrom(ctx).batch {
		return
	}
	t.incQuery(time.Since(queryDataFrom(ctx).startTime))
}
