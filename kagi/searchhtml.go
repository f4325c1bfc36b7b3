// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"regexp"
	"strings"

	"github.com/kagi-cli/kagi/lib/htmltext"
)

// Search result markup. Each organic result is a div whose class
// contains _0_SRI; inside it the title link, description and date carry
// __sri class prefixes.
var (
	resultBlockPattern = regexp.MustCompile(`<div\s+class="[^"]*_0_SRI[^"]*"`)
	titleLinkPattern   = regexp.MustCompile(`(?s)<a\s+class="[^"]*__sri_title_link[^"]*"[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	descriptionPattern = regexp.MustCompile(`(?s)<div\s+class="[^"]*__sri-desc[^"]*"[^>]*>(.*?)</div>\s*</div>`)
	datePattern        = regexp.MustCompile(`(?s)<span\s+class="[^"]*__sri-time[^"]*"[^>]*>(.*?)</span>`)
	archivePattern     = regexp.MustCompile(`href="(https://web\.archive\.org/[^"]*)"`)
)

// ParseSearchItems extracts the organic results from search result
// HTML. Blocks without a title link are skipped.
func ParseSearchItems(markup string) []SearchItem {
	starts := resultBlockPattern.FindAllStringIndex(markup, -1)
	var items []SearchItem
	for i, start := range starts {
		end := len(markup)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := markup[start[0]:end]

		title := titleLinkPattern.FindStringSubmatch(block)
		if title == nil {
			continue
		}
		item := SearchItem{
			URL:   htmltext.Strip(title[1]),
			Title: text(title[2]),
		}
		if match := descriptionPattern.FindStringSubmatch(block); match != nil {
			item.Description = text(match[1])
		}
		if match := datePattern.FindStringSubmatch(block); match != nil {
			item.Date = text(match[1])
		}
		if match := archivePattern.FindStringSubmatch(block); match != nil {
			item.ArchiveURL = htmltext.Strip(match[1])
		}
		items = append(items, item)
	}
	return items
}

func text(fragment string) string {
	return strings.TrimSpace(htmltext.Strip(fragment))
}
