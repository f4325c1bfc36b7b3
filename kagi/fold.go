// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"errors"
	"io"
	"strings"

	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/htmltext"
	"github.com/kagi-cli/kagi/stream"
)

// folder accumulates the events of one stream into a Result.
type folder struct {
	kind   Kind
	result Result
	text   strings.Builder

	searchHTML []string
	searchInfo *stream.SearchInfo
	domains    []stream.DomainInfo
}

// fold drains decoder. It returns the Result once the Done event
// arrives, a stream fault for an Error event, and the decoder's own
// error (unclassified) for read failures and idle timeouts.
func fold(kind Kind, decoder *stream.Decoder, onDelta func(string)) (Result, error) {
	accumulator := folder{kind: kind, result: Result{Operation: kind}}
	for {
		event, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return Result{}, fault.Stream("%s: stream ended without a terminal event", kind)
		}
		if err != nil {
			return Result{}, err
		}

		switch event.Kind {
		case stream.KindDetectedLanguage:
			accumulator.result.DetectedLanguage = event.Language
		case stream.KindTextDelta:
			accumulator.text.WriteString(event.Text)
			if onDelta != nil {
				onDelta(event.Text)
			}
		case stream.KindAnalysis:
			accumulator.result.Analysis = event.Analysis
		case stream.KindSummary:
			accumulator.result.Summary = event.Summary
		case stream.KindThread:
			accumulator.result.Thread = event.Thread
		case stream.KindMessage:
			accumulator.result.Message = event.Message
		case stream.KindSearchBatch:
			accumulator.addBatch(event.Batch)
		case stream.KindError:
			return Result{}, fault.Stream("%s: malformed response stream: %w", kind, event.Err)
		case stream.KindDone:
			return accumulator.finish(), nil
		}
	}
}

func (f *folder) addBatch(batch *stream.SearchBatch) {
	f.searchHTML = append(f.searchHTML, batch.HTML...)
	if batch.Info != nil {
		f.searchInfo = batch.Info
	}
	f.domains = append(f.domains, batch.Domains...)
}

func (f *folder) finish() Result {
	result := f.result
	result.Text = f.text.String()

	switch f.kind {
	case KindSummarize:
		if result.Summary != nil && result.Summary.OutputText != "" {
			result.Text = result.Summary.OutputText
		}
	case KindAsk:
		if response := AssistantResponse(result.Message); response != "" {
			result.Text = response
		}
	case KindSearch:
		search := &SearchResult{
			HTML:    strings.Join(f.searchHTML, "\n"),
			Info:    stream.DefaultSearchInfo(),
			Items:   ParseSearchItems(strings.Join(f.searchHTML, "\n")),
			Domains: f.domains,
		}
		if f.searchInfo != nil {
			search.Info = *f.searchInfo
		}
		if search.Items == nil {
			search.Items = []SearchItem{}
		}
		if search.Domains == nil {
			search.Domains = []stream.DomainInfo{}
		}
		result.Search = search
		result.Text = strings.TrimSpace(htmltext.Strip(search.HTML))
	}
	return result
}
