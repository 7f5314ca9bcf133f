// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package json // import "newsfeed.app/internal/http/response/json"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"newsfeed.app/internal/http/middleware"
	"newsfeed.app/internal/http/response"
	"newsfeed.app/internal/logging"
)

const contentTypeHeader = `application/json`

// statusClientClosed is the nginx status code for requests, which client
// closed before the response was ready.
const statusClientClosed = 499

// OK creates a new JSON response with a 200 status code.
func OK(w http.ResponseWriter, r *http.Request, body any) {
	responseBody, err := json.Marshal(body)
	if err != nil {
		ServerError(w, r, fmt.Errorf("http/response/json: marshal body: %w", err))
		return
	}

	response.New(w, r).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(responseBody).
		Write()
}

// ServerError sends an internal error to the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	clientClosed := errors.Is(err, context.Canceled) &&
		errors.Is(r.Context().Err(), context.Canceled)
	if clientClosed {
		requestLogger(r, statusClientClosed, err).Debug("client closed request")
		http.Error(w, err.Error(), statusClientClosed)
		return
	}

	requestLogger(r, http.StatusInternalServerError, err).Error(
		http.StatusText(http.StatusInternalServerError))
	writeError(w, r, http.StatusInternalServerError, err)
}

// BadRequest sends a bad request error to the client.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r, http.StatusBadRequest, err).Warn(
		http.StatusText(http.StatusBadRequest))
	writeError(w, r, http.StatusBadRequest, err)
}

// NotFound sends a page not found error to the client.
func NotFound(w http.ResponseWriter, r *http.Request) {
	err := errors.New("resource not found")
	requestLogger(r, http.StatusNotFound, err).Warn(
		http.StatusText(http.StatusNotFound))
	writeError(w, r, http.StatusNotFound, err)
}

// ErrorMessage is the body of all error responses.
type ErrorMessage struct {
	ErrorMessage string `json:"error_message"`
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	err error,
) {
	body, jsonErr := json.Marshal(ErrorMessage{ErrorMessage: err.Error()})
	if jsonErr != nil {
		logging.FromContext(r.Context()).Error("unable to generate JSON error",
			slog.Any("error", jsonErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	response.New(w, r).
		WithStatus(statusCode).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(body).
		Write()
}

func requestLogger(r *http.Request, statusCode int, err error) *slog.Logger {
	return logging.FromContext(r.Context()).With(
		slog.Any("error", err),
		slog.String("client_ip", middleware.ClientIPFrom(r)),
		slog.Group("request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("user_agent", r.UserAgent())),
		slog.Group("response", slog.Int("status_code", statusCode)))
}
