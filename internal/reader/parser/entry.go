// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package parser // import "newsfeed.app/internal/reader/parser"

import (
	"net/url"
	"time"

	"newsfeed.app/internal/model"
	"newsfeed.app/internal/reader/sanitizer"
)

// entryBuilder collects fields of one entry, common for all feed formats.
type entryBuilder struct {
	siteURL *url.URL
	now     time.Time

	title       string
	link        string
	id          string
	description string
	published   *time.Time
}

func (self *entryBuilder) Entry() *model.Entry {
	entry := &model.Entry{
		Title:       sanitizer.StripTags(self.title),
		URL:         sanitizer.CleanURL(self.link, self.siteURL),
		Description: self.description,
		Date:        self.now,
	}

	if self.published != nil && !self.published.IsZero() {
		entry.Date = *self.published
	}

	if entry.URL == "" && self.siteURL != nil {
		entry.URL = self.siteURL.String()
	}

	if entry.Title == "" {
		entry.Title = entry.URL
	}

	switch {
	case self.link != "" && entry.URL != "":
		entry.HashFrom(entry.URL)
	case self.id != "":
		entry.HashFrom(self.id)
	default:
		entry.HashFrom(self.title + entry.Description)
	}
	return entry
}
