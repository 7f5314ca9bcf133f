// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "newsfeed.app/internal/reader/fetcher"

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var (
	ErrEmptyBody    = errors.New("reader/fetcher: empty response body")
	ErrBodyTooLarge = errors.New("reader/fetcher: response body too large")
)

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Code int
	Text string
}

func (self *StatusError) Error() string {
	return fmt.Sprintf("reader/fetcher: unexpected status code: %d %s",
		self.Code, self.Text)
}

// Temporary returns true for statuses, which may succeed on retry.
func (self *StatusError) Temporary() bool {
	switch self.Code {
	case http.StatusRequestTimeout, http.StatusTooEarly:
		return true
	}
	return self.Code >= 500
}

type ErrTooManyRequests struct {
	hostname   string
	retryAfter time.Time
}

var _ error = (*ErrTooManyRequests)(nil)

func NewErrTooManyRequests(hostname string, retryAfter time.Time,
) *ErrTooManyRequests {
	return &ErrTooManyRequests{
		hostname:   hostname,
		retryAfter: retryAfter,
	}
}

func (self *ErrTooManyRequests) Error() string {
	return fmt.Sprintf(
		"reader/fetcher: host %q rate limited, retry in %s",
		self.hostname, time.Until(self.RetryAfter()).Round(time.Second))
}

func (self *ErrTooManyRequests) RetryAfter() time.Time {
	return self.retryAfter
}

// retryable returns true for errors, which may go away on next attempt.
func retryable(err error) bool {
	var statusErr *StatusError
	var tooManyErr *ErrTooManyRequests
	switch {
	case errors.As(err, &tooManyErr):
		return true
	case errors.As(err, &statusErr):
		return statusErr.Temporary()
	case sslError(err):
		return false
	}
	return networkError(err) || timeoutError(err)
}

func timeoutError(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

func networkError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && (dnsErr.IsTemporary || dnsErr.IsTimeout)
}

func sslError(err error) bool {
	var certErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) {
		return true
	}

	var hostErr *x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}

	var algErr *x509.InsecureAlgorithmError
	return errors.As(err, &algErr)
}
