// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package parser // import "newsfeed.app/internal/reader/parser"

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	"github.com/dsh2dsh/gofeed/v2/atom"
	"github.com/dsh2dsh/gofeed/v2/options"

	"newsfeed.app/internal/model"
	"newsfeed.app/internal/reader/sanitizer"
)

type atomFeed struct {
	baseURL *url.URL
	atom    *atom.Feed
	now     time.Time

	siteURL *url.URL
}

func parseAtom(feedURL *url.URL, b []byte, now time.Time) (*model.Feed, error) {
	parsed, err := atom.NewParser().Parse(bytes.NewReader(b),
		options.WithSkipUnknownElements(true))
	if err != nil {
		return nil, fmt.Errorf("reader/parser: parse Atom feed: %w", err)
	}

	p := atomFeed{baseURL: feedURL, atom: parsed, now: now}
	return p.Feed(), nil
}

func (self *atomFeed) Feed() *model.Feed {
	self.siteURL = resolveURL(absURL(self.baseURL), self.atom.GetLink())
	if self.siteURL == nil {
		self.siteURL = absURL(self.baseURL)
	}

	feed := &model.Feed{
		FeedURL: self.baseURL.String(),
		Title:   sanitizer.StripTags(self.atom.Title),
	}
	if self.siteURL != nil {
		feed.SiteURL = self.siteURL.String()
	}

	if len(self.atom.Entries) != 0 {
		feed.Entries = make([]*model.Entry, len(self.atom.Entries))
		for i, item := range self.atom.Entries {
			feed.Entries[i] = self.entry(item)
		}
	}
	return feed
}

func (self *atomFeed) entry(item *atom.Entry) *model.Entry {
	b := entryBuilder{
		siteURL:     self.siteURL,
		now:         self.now,
		title:       item.Title,
		link:        item.GetLink(),
		id:          item.ID,
		description: item.GetContent(),
		published:   item.GetPublishedParsed(),
	}
	return b.Entry()
}
