// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "newsfeed.app/internal/cli"

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"newsfeed.app/internal/config"
	"newsfeed.app/internal/reader/excerpt"
)

var flagExcerptLength int

var excerptCmd = cobra.Command{
	Use:   "excerpt [file]",
	Short: "Print plain text excerpt of HTML from file or stdin",
	Args:  cobra.MaximumNArgs(1),

	Example: `
$ echo '<p>Hello &amp; welcome!</p>' | newsfeed excerpt --length 5
`,

	RunE: func(cmd *cobra.Command, args []string) error {
		r := cmd.InOrStdin()
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("cli: open markup: %w", err)
			}
			defer f.Close()
			r = f
		}

		length := flagExcerptLength
		if !cmd.Flags().Changed("length") {
			length = config.Opts.ExcerptLength()
		}
		return printExcerpt(cmd.OutOrStdout(), r, length)
	},
}

func init() {
	excerptCmd.Flags().IntVarP(&flagExcerptLength, "length", "l", 0,
		"Max length of excerpt (default EXCERPT_LENGTH)")
}

func printExcerpt(w io.Writer, r io.Reader, length int) error {
	if length < 0 {
		return errors.New("cli: excerpt length must not be negative")
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("cli: read markup: %w", err)
	}

	if _, err := fmt.Fprintln(w, excerpt.Excerpt(string(b), length)); err != nil {
		return fmt.Errorf("cli: print excerpt: %w", err)
	}
	return nil
}
