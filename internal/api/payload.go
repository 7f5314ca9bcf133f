// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "newsfeed.app/internal/api"

import "newsfeed.app/internal/model"

type ItemsResponse struct {
	Total int         `json:"total"`
	Items model.Items `json:"items"`
}

type ExcerptResponse struct {
	Excerpt string `json:"excerpt"`
	Cut     string `json:"cut"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Arch      string `json:"arch"`
	OS        string `json:"os"`
}
