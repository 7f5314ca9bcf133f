// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "newsfeed.app/internal/reader/fetcher"

import (
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"newsfeed.app/internal/logging"
	"newsfeed.app/internal/metric"
)

// Fetch downloads body of rawURL. Network errors, 429 and 5xx responses are
// retried with exponential backoff, until max elapsed time is reached. Any
// other failure is returned immediately.
func (r *RequestBuilder) Fetch(rawURL string) ([]byte, error) {
	var body []byte
	b := r.backOff()
	log := logging.FromContext(r.Context()).With(slog.String("url", rawURL))

	operation := func() error {
		resp, err := r.Request(rawURL)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer resp.Close()

		if err := resp.CheckStatus(); err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			var tooManyErr *ErrTooManyRequests
			if errors.As(err, &tooManyErr) {
				b.retryAfter = time.Until(tooManyErr.RetryAfter())
			}
			return err
		}

		body, err = resp.ReadBody()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, d time.Duration) {
		metric.FetchRetries.Inc()
		log.Warn("Retry failed request",
			slog.Any("error", err), slog.Duration("delay", d))
	}

	start := time.Now()
	err := backoff.RetryNotify(operation, backoff.WithContext(b, r.Context()),
		notify)
	status := metric.StatusSuccess
	if err != nil {
		status = metric.StatusError
	}
	metric.FetchRequestDuration.WithLabelValues(status).Observe(
		time.Since(start).Seconds())
	return body, err
}

func (r *RequestBuilder) backOff() *retryAfterBackOff {
	if r.maxElapsedTime <= 0 {
		return &retryAfterBackOff{BackOff: &backoff.StopBackOff{}}
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsedTime
	return &retryAfterBackOff{BackOff: b, maxElapsedTime: r.maxElapsedTime}
}

// retryAfterBackOff waits at least as long as server asked in Retry-After.
type retryAfterBackOff struct {
	backoff.BackOff

	maxElapsedTime time.Duration
	retryAfter     time.Duration
}

func (self *retryAfterBackOff) NextBackOff() time.Duration {
	next := self.BackOff.NextBackOff()
	retryAfter := self.retryAfter
	self.retryAfter = 0

	switch {
	case next == backoff.Stop:
		return next
	case retryAfter > self.maxElapsedTime:
		return backoff.Stop
	}
	return max(next, retryAfter)
}
