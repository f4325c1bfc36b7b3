// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"fmt"
	"strings"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/htmltext"
	"github.com/kagi-cli/kagi/stream"
)

// Result is the folded outcome of one operation. Which of the optional
// blocks are set depends on Operation.
type Result struct {
	Operation Kind `json:"operation"`

	// DetectedLanguage is the proofreader's detected source language.
	DetectedLanguage *stream.Language `json:"detected_language,omitempty"`

	// Text is the full resolved text: the proofread output, the
	// summary, the assistant's answer without its reasoning, or the
	// plain text of the search results.
	Text string `json:"text"`

	Analysis *stream.Analysis `json:"analysis,omitempty"`
	Summary  *stream.Summary  `json:"summary,omitempty"`
	Thread   *stream.Thread   `json:"thread,omitempty"`
	Message  *stream.Message  `json:"message,omitempty"`
	Search   *SearchResult    `json:"search,omitempty"`

	// Account is the metadata of the credential that served the
	// request. It is informational only.
	Account *credential.Account `json:"account,omitempty"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	HTML    string              `json:"search_html"`
	Info    stream.SearchInfo   `json:"info"`
	Items   []SearchItem        `json:"items"`
	Domains []stream.DomainInfo `json:"domain_infos"`
}

// SearchItem is one organic search result.
type SearchItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	ArchiveURL  string `json:"web_archive_url,omitempty"`
	Date        string `json:"date,omitempty"`
}

// AssistantResponse extracts the answer from an assistant message,
// without the reasoning block: the Markdown form when Kagi provided
// one, otherwise the reply HTML as text.
func AssistantResponse(message *stream.Message) string {
	if message == nil {
		return ""
	}
	if message.Markdown != "" {
		return htmltext.StripDetails(message.Markdown)
	}
	if message.Reply != "" {
		return strings.TrimSpace(htmltext.Strip(htmltext.StripDetails(message.Reply)))
	}
	return ""
}

// StatusError is the HTTP status of a response Kagi refused. It is
// wrapped in a fault.Error whose kind reflects the status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
