// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "newsfeed.app/internal/reader/fetcher"

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/logging"
)

var limitPerServer = newLimitPerServer(func(hostname string) config.HostLimits {
	return config.Opts.FindHostLimits(hostname)
})

type weightedRefs struct {
	*semaphore.Weighted
	refs int
}

// limitHosts limits number of concurrent connections and rate of requests per
// host. Semaphores exist while somebody holds or waits for them, limiters live
// forever, because they must remember previous requests.
type limitHosts struct {
	find func(hostname string) config.HostLimits

	mu       sync.Mutex
	servers  map[string]*weightedRefs
	limiters map[string]*rate.Limiter
}

func newLimitPerServer(find func(string) config.HostLimits) *limitHosts {
	return &limitHosts{
		find:     find,
		servers:  map[string]*weightedRefs{},
		limiters: map[string]*rate.Limiter{},
	}
}

// Acquire blocks until a connection to hostname is allowed. The returned
// function must be called, when the connection isn't needed anymore.
func (self *limitHosts) Acquire(ctx context.Context, hostname string,
) (func(), error) {
	s, limiter := self.acquireRefs(hostname)
	log := logging.FromContext(ctx).With(slog.String("hostname", hostname))

	if s != nil && !s.TryAcquire(1) {
		log.Info("max connections limit reached")
		if err := s.Acquire(ctx, 1); err != nil {
			self.unref(hostname)
			return nil, fmt.Errorf(
				"reader/fetcher: acquire semaphore for host %q: %w", hostname, err)
		}
		log.Debug("acquired connection semaphore")
	}

	release := func() {
		self.unref(hostname)
		if s != nil {
			s.Release(1)
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		release()
		return nil, fmt.Errorf(
			"reader/fetcher: wait rate limit of host %q: %w", hostname, err)
	}
	return sync.OnceFunc(release), nil
}

func (self *limitHosts) acquireRefs(hostname string,
) (*weightedRefs, *rate.Limiter) {
	self.mu.Lock()
	defer self.mu.Unlock()

	limits := self.find(hostname)
	limiter := self.limiters[hostname]
	if limiter == nil {
		limiter = newLimiter(limits.Rate)
		self.limiters[hostname] = limiter
	}

	s := self.servers[hostname]
	if s == nil {
		if limits.Connections <= 0 {
			return nil, limiter
		}
		s = &weightedRefs{Weighted: semaphore.NewWeighted(limits.Connections)}
		self.servers[hostname] = s
	}
	s.refs++
	return s, limiter
}

func (self *limitHosts) unref(hostname string) {
	self.mu.Lock()
	defer self.mu.Unlock()

	s := self.servers[hostname]
	if s == nil {
		return
	}
	s.refs--
	if s.refs == 0 {
		delete(self.servers, hostname)
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
