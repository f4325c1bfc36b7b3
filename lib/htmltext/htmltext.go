// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package htmltext

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// thinkingEnd closes the collapsible block the assistant uses for its
// reasoning trace.
const thinkingEnd = "</details>"

var detailsPattern = regexp.MustCompile(`(?s)<details>.*?</details>\s*`)

// Strip returns the text content of fragment with every tag removed
// and entities decoded. Whitespace is preserved as written.
func Strip(fragment string) string {
	var builder strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				builder.Write(tokenizer.Raw())
			}
			return builder.String()
		case html.TextToken:
			builder.Write(tokenizer.Text())
		}
	}
}

// StripDetails removes every <details>…</details> block (and the
// whitespace after it) and trims the result.
func StripDetails(text string) string {
	return strings.TrimSpace(detailsPattern.ReplaceAllString(text, ""))
}

// SplitThinking splits an assistant reply at the end of its reasoning
// block. thinking is the block's text with tags removed; answer is the
// HTML after it. A reply that opens a <details> block which has not
// closed yet has no answer so far; a reply with no block at all is all
// answer.
func SplitThinking(reply string) (thinking, answer string) {
	index := strings.Index(reply, thinkingEnd)
	if index < 0 {
		if strings.HasPrefix(strings.TrimSpace(reply), "<details") {
			return strings.TrimSpace(Strip(reply)), ""
		}
		return "", reply
	}
	return strings.TrimSpace(Strip(reply[:index])), reply[index+len(thinkingEnd):]
}
