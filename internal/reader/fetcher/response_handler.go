// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "newsfeed.app/internal/reader/fetcher"

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsfeed.app/internal/logging"
)

func NewResponseHandler(resp *http.Response, err error) *ResponseHandler {
	return &ResponseHandler{httpResponse: resp, clientErr: err}
}

type ResponseHandler struct {
	httpResponse *http.Response
	clientErr    error

	maxBodySize int64
	release     func()
}

func (r *ResponseHandler) WithMaxBodySize(n int64) *ResponseHandler {
	r.maxBodySize = n
	return r
}

func (r *ResponseHandler) Status() string  { return r.httpResponse.Status }
func (r *ResponseHandler) StatusCode() int { return r.httpResponse.StatusCode }

func (r *ResponseHandler) Header(key string) string {
	return r.httpResponse.Header.Get(key)
}

func (r *ResponseHandler) Err() error { return r.clientErr }

func (r *ResponseHandler) URL() *url.URL { return r.httpResponse.Request.URL }

func (r *ResponseHandler) EffectiveURL() string { return r.URL().String() }

func (r *ResponseHandler) ContentType() string {
	return r.httpResponse.Header.Get("Content-Type")
}

func (r *ResponseHandler) parseRetryDelay() time.Duration {
	retryAfter := r.Header("Retry-After")
	if retryAfter == "" {
		return 0
	}

	// First, try to parse as an integer (number of seconds)
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(max(0, seconds)) * time.Second
	}

	// If not an integer, try to parse as an HTTP-date
	t, err := http.ParseTime(retryAfter)
	if err != nil || t.Before(time.Now()) {
		return 0
	}
	return time.Until(t)
}

// CheckStatus returns an error for any response, except 2xx with non-empty
// body. The error is [*ErrTooManyRequests] for 429 and [*StatusError] for
// anything else.
func (r *ResponseHandler) CheckStatus() error {
	if r.clientErr != nil {
		return r.clientErr
	}

	statusCode := r.StatusCode()
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewErrTooManyRequests(r.URL().Hostname(),
			time.Now().Add(r.parseRetryDelay()))
	case statusCode < 200 || statusCode >= 300:
		return &StatusError{Code: statusCode, Text: r.bodyStatusText()}
	case r.httpResponse.ContentLength == 0:
		// Content-Length = -1 when no Content-Length header is sent.
		return ErrEmptyBody
	}
	return nil
}

// Close closes response body and releases connection limit of its host. It's
// safe to call Close more than once.
func (r *ResponseHandler) Close() {
	if r.clientErr == nil && r.httpResponse != nil {
		BodyClose(r.httpResponse.Body)
		r.httpResponse = nil
	}

	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// maxPostHandlerReadBytes is the max number of Request.Body bytes not
// consumed by a handler that the server will read from the client
// in order to keep a connection alive.
//
// See: net/http/server.go
const maxPostHandlerReadBytes = 256 << 10

// https://github.com/golang/go/issues/60240
func BodyClose(r io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, r, maxPostHandlerReadBytes+1)
	r.Close()
}

func (r *ResponseHandler) Body() io.ReadCloser {
	logging.FromContext(r.httpResponse.Request.Context()).Debug(
		"Request response",
		slog.String("effective_url", r.EffectiveURL()),
		slog.String("content_length", r.Header("Content-Length")),
		slog.String("content_encoding", r.Header("Content-Encoding")),
		slog.String("content_type", r.ContentType()))

	if r.maxBodySize <= 0 {
		return r.httpResponse.Body
	}
	return http.MaxBytesReader(nil, r.httpResponse.Body, r.maxBodySize)
}

func (r *ResponseHandler) ReadBody() ([]byte, error) {
	var buffer bytes.Buffer
	if err := r.WriteBodyTo(&buffer); err != nil {
		return nil, err
	}

	if buffer.Len() == 0 {
		return nil, ErrEmptyBody
	}
	return buffer.Bytes(), nil
}

func (r *ResponseHandler) WriteBodyTo(w io.Writer) error {
	_, err := io.Copy(w, r.Body())
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge,
			maxBytesErr.Limit)
	}
	return fmt.Errorf("reader/fetcher: unable to read response body: %w", err)
}

func (r *ResponseHandler) bodyStatusText() string {
	statusText := http.StatusText(r.StatusCode())
	var b bytes.Buffer
	_, _ = io.CopyN(&b, r.httpResponse.Body, 1024)
	if s, _, _ := strings.Cut(b.String(), "\n"); s != "" {
		switch statusText {
		case "":
			return s
		default:
			return statusText + ": " + s
		}
	}
	return statusText
}
