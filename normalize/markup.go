// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// SnippetLength caps snippet text, in runes.
const SnippetLength = 300

// StripMarkup removes HTML tags from s, decodes entities and collapses
// whitespace. Text inside script and style elements is dropped.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return collapse(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	t := string(tag)
	return t == "script" || t == "style"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Snippet strips markup from s and truncates it to SnippetLength runes on a
// word boundary when possible.
func Snippet(s string) string {
	text := StripMarkup(s)
	if utf8.RuneCountInString(text) <= SnippetLength {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:SnippetLength])
	if i := strings.LastIndexByte(cut, ' '); i > SnippetLength/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
