// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "newsfeed.app/internal/model"

import (
	"slices"
	"time"
)

// Item is one news item, ready to show: a title, plain text excerpt of its
// description, publish date and a link.
type Item struct {
	Title       string    `json:"title" db:"title"`
	Excerpt     string    `json:"excerpt" db:"excerpt"`
	PublishDate time.Time `json:"publish_date" db:"published_at"`
	URL         string    `json:"url" db:"url"`
	Hash        string    `json:"hash" db:"hash"`
	FeedURL     string    `json:"feed_url" db:"feed_url"`
}

// NewItem returns Item made from entry of feed with given excerpt. Publish
// date is converted to UTC.
func NewItem(feed *Feed, entry *Entry, excerpt string) *Item {
	return &Item{
		Title:       entry.Title,
		Excerpt:     excerpt,
		PublishDate: entry.Date.UTC(),
		URL:         entry.URL,
		Hash:        entry.Hash,
		FeedURL:     feed.FeedURL,
	}
}

type Items []*Item

// SortByDate sorts items by publish date, newest first. Items with equal
// dates keep their order.
func (self Items) SortByDate() {
	slices.SortStableFunc(self, func(a, b *Item) int {
		return b.PublishDate.Compare(a.PublishDate)
	})
}

// Unique returns items without repeated hashes. The first item of every
// hash is kept, in original order.
func (self Items) Unique() Items {
	seen := make(map[string]struct{}, len(self))
	unique := make(Items, 0, len(self))
	for _, item := range self {
		if _, ok := seen[item.Hash]; !ok {
			seen[item.Hash] = struct{}{}
			unique = append(unique, item)
		}
	}
	return unique
}
