// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package excerpt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		want      string
		wantCut   Cut
	}{
		{
			name:      "empty",
			maxLength: 0,
			wantCut:   CutNone,
		},
		{
			name:      "shorter",
			text:      "Short text",
			maxLength: 200,
			want:      "Short text",
			wantCut:   CutNone,
		},
		{
			name:      "exact length",
			text:      "abcde",
			maxLength: 5,
			want:      "abcde",
			wantCut:   CutNone,
		},
		{
			name:      "sentence",
			text:      "One. Two. Three.",
			maxLength: 5,
			want:      "One.",
			wantCut:   CutTerminator,
		},
		{
			name:      "last terminator in range",
			text:      "One. Two. Three.",
			maxLength: 12,
			want:      "One. Two.",
			wantCut:   CutTerminator,
		},
		{
			name:      "terminator at max length",
			text:      "Hello, world",
			maxLength: 5,
			want:      "Hello,",
			wantCut:   CutTerminator,
		},
		{
			name:      "terminator after max length",
			text:      "Hello world, again",
			maxLength: 10,
			want:      "Hello...",
			wantCut:   CutWord,
		},
		{
			name:      "every terminator",
			text:      "a;b:c?d!e,f.g",
			maxLength: 9,
			want:      "a;b:c?d!e,",
			wantCut:   CutTerminator,
		},
		{
			name:      "word boundary",
			text:      "The quick brown fox jumps",
			maxLength: 12,
			want:      "The quick...",
			wantCut:   CutWord,
		},
		{
			name:      "space at max length",
			text:      "The quick brown",
			maxLength: 9,
			want:      "The quick...",
			wantCut:   CutWord,
		},
		{
			name:      "newline is not a word boundary",
			text:      "abc\ndefgh",
			maxLength: 5,
			want:      "abc\nd...",
			wantCut:   CutHard,
		},
		{
			name:      "hard cut",
			text:      "abcdefghij",
			maxLength: 5,
			want:      "abcde...",
			wantCut:   CutHard,
		},
		{
			name:      "zero length hard cut",
			text:      "abc",
			maxLength: 0,
			want:      Ellipsis,
			wantCut:   CutHard,
		},
		{
			name:      "zero length leading space",
			text:      " abc",
			maxLength: 0,
			want:      "...",
			wantCut:   CutWord,
		},
		{
			name:      "zero length leading terminator",
			text:      ".abc",
			maxLength: 0,
			want:      ".",
			wantCut:   CutTerminator,
		},
		{
			name:      "cyrillic counts runes",
			text:      "Привет мир и все",
			maxLength: 8,
			want:      "Привет...",
			wantCut:   CutWord,
		},
		{
			name:      "combining marks stay together",
			text:      "e\u0301e\u0301e\u0301e\u0301",
			maxLength: 3,
			want:      "e\u0301...",
			wantCut:   CutHard,
		},
		{
			name:      "flags stay together",
			text:      "🇺🇸🇺🇸🇺🇸",
			maxLength: 3,
			want:      "🇺🇸...",
			wantCut:   CutHard,
		},
		{
			name:      "terminator with combining mark is not a terminator",
			text:      "ab.\u0301cd efgh",
			maxLength: 7,
			want:      "ab.\u0301cd...",
			wantCut:   CutWord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cut := Truncate(tt.text, tt.maxLength)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCut, cut, cut.String())
			assert.Equal(t, got, TruncatePlainText(tt.text, tt.maxLength))
		})
	}
}

func TestTruncate_negativeMaxLength(t *testing.T) {
	assert.PanicsWithValue(t, "excerpt: negative max length", func() {
		TruncatePlainText("abc", -1)
	})
	assert.PanicsWithValue(t, "excerpt: negative max length", func() {
		Excerpt("", -10)
	})
}

func TestTruncate_bounds(t *testing.T) {
	texts := []string{
		"One. Two. Three.",
		"The quick brown fox jumps over the lazy dog",
		"abcdefghijklmnopqrstuvwxyz",
		"Съешь же ещё этих мягких французских булок, да выпей чаю.",
		"ééé 🇺🇸🇺🇸 👩‍👩‍👧 done!",
	}

	for _, text := range texts {
		for n := range utf8.RuneCountInString(text) + 2 {
			got, cut := Truncate(text, n)
			require.LessOrEqual(t, utf8.RuneCountInString(got), n+len(Ellipsis),
				"text=%q n=%d", text, n)
			require.True(t, utf8.ValidString(got))

			switch cut {
			case CutNone:
				assert.Equal(t, text, got)
			case CutTerminator:
				assert.True(t, strings.HasPrefix(text, got))
				assert.Contains(t, Terminators, got[len(got)-1:])
			default:
				prefix, ok := strings.CutSuffix(got, Ellipsis)
				require.True(t, ok)
				assert.True(t, strings.HasPrefix(text, prefix))
			}
		}
	}
}

func TestCut_String(t *testing.T) {
	assert.Equal(t, "none", CutNone.String())
	assert.Equal(t, "terminator", CutTerminator.String())
	assert.Equal(t, "word", CutWord.String())
	assert.Equal(t, "hard", CutHard.String())
	assert.Equal(t, "unknown", Cut(42).String())
}

func BenchmarkTruncate(b *testing.B) {
	text := strings.Repeat("Lorem ipsum dolor sit amet consectetur ", 32)

	b.ReportAllocs()
	for b.Loop() {
		Truncate(text, 200)
	}
}
