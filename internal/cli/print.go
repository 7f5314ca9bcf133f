// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"newsfeed.app/internal/model"
	"newsfeed.app/internal/newsfeed"
)

func printNewsFeed(ctx context.Context, w io.Writer, svc *newsfeed.Service,
) error {
	items, err := svc.GetNewsFeed(ctx)
	if err != nil {
		return err
	}
	return printItems(w, items)
}

// printItems writes every item as title, excerpt and URL lines, followed by
// an empty line.
func printItems(w io.Writer, items model.Items) error {
	bw := bufio.NewWriter(w)
	for _, item := range items {
		fmt.Fprintln(bw, item.Title)
		fmt.Fprintln(bw, item.Excerpt)
		fmt.Fprintln(bw, item.URL)
		fmt.Fprintln(bw)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cli: print %d items: %w", len(items), err)
	}
	return nil
}
