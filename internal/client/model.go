// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client // import "newsfeed.app/internal/client"

import (
	"fmt"

	"newsfeed.app/internal/model"
)

// ItemsResponse represents the response when fetching items.
type ItemsResponse struct {
	Total int         `json:"total"`
	Items model.Items `json:"items"`
}

// Excerpt represents the result of an excerpt request.
type Excerpt struct {
	Excerpt string `json:"excerpt"`
	Cut     string `json:"cut"`
}

func (e Excerpt) String() string {
	return fmt.Sprintf(`Excerpt=%q, Cut=%q`, e.Excerpt, e.Cut)
}

// VersionResponse represents the version and the build information of the
// server.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Arch      string `json:"arch"`
	OS        string `json:"os"`
}

type errorResponse struct {
	ErrorMessage string `json:"error_message"`
}
