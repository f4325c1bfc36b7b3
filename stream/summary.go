// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Summary record statuses and types.
const (
	SummaryCompleted = "completed"
	SummaryFinal     = "final"
)

// NewSummaryDecoder decodes the summarizer's "update:"/"final:" record
// stream. Each update carries the whole output so far; the decoder
// emits the extension of the previous snapshot as a TextDelta. The
// final record (or, if the stream ends without one, a completed
// update) yields Summary, TextDone and Done.
func NewSummaryDecoder(reader io.Reader, options ...Option) *Decoder {
	return newDecoder(&summaryFramer{scanner: NewTagScanner(reader)}, options)
}

type summaryFramer struct {
	scanner  *TagScanner
	snapshot string
	last     *Summary
}

// summaryRecord is the wire shape of one summarizer record.
type summaryRecord struct {
	OutputText string `json:"output_text"`
	OutputData struct {
		Status         string           `json:"status"`
		WordStats      WordStats        `json:"word_stats"`
		ElapsedSeconds *float64         `json:"elapsed_seconds"`
		Markdown       string           `json:"markdown"`
		Metadata       ResponseMetadata `json:"response_metadata"`
		Title          string           `json:"title"`
	} `json:"output_data"`
	Tokens int    `json:"tokens"`
	Type   string `json:"type"`
}

func (r summaryRecord) summary() *Summary {
	return &Summary{
		Type:           r.Type,
		Title:          r.OutputData.Title,
		OutputText:     r.OutputText,
		Markdown:       r.OutputData.Markdown,
		Status:         r.OutputData.Status,
		Tokens:         r.Tokens,
		ElapsedSeconds: r.OutputData.ElapsedSeconds,
		WordStats:      r.OutputData.WordStats,
		Metadata:       r.OutputData.Metadata,
	}
}

// ParseSummaryRecord decodes one summarizer record payload.
func ParseSummaryRecord(payload string) (*Summary, error) {
	var record summaryRecord
	if err := strictUnmarshal(json.RawMessage(payload), &record); err != nil {
		return nil, err
	}
	summary := record.summary()
	if summary.Type == "" {
		summary.Type = "update"
	}
	return summary, nil
}

func (f *summaryFramer) fill(emit func(Event)) error {
	record, err := f.scanner.Next()
	if errors.Is(err, io.EOF) {
		if f.last != nil && f.last.Status == SummaryCompleted {
			f.finish(f.last, emit)
			return nil
		}
		protocolError(emit, "summary stream ended before the final record")
		return nil
	}
	if errors.Is(err, ErrFrameTooLarge) {
		protocolError(emit, "%w", err)
		return nil
	}
	if err != nil {
		return err
	}

	if record.Tag != "update" && record.Tag != SummaryFinal {
		return nil
	}
	summary, err := ParseSummaryRecord(record.Payload)
	if err != nil {
		protocolError(emit, "malformed %s record: %w", record.Tag, err)
		return nil
	}
	if record.Tag == SummaryFinal || summary.Type == SummaryFinal {
		f.finish(summary, emit)
		return nil
	}
	f.advance(summary.OutputText, emit)
	f.last = summary
	return nil
}

// advance emits the part of snapshot that extends the previous one. A
// snapshot that rewrites earlier output is adopted without a delta.
func (f *summaryFramer) advance(snapshot string, emit func(Event)) {
	if suffix, ok := strings.CutPrefix(snapshot, f.snapshot); ok && suffix != "" {
		emit(Event{Kind: KindTextDelta, Text: suffix})
	}
	f.snapshot = snapshot
}

func (f *summaryFramer) finish(summary *Summary, emit func(Event)) {
	f.advance(summary.OutputText, emit)
	emit(Event{Kind: KindSummary, Summary: summary})
	emit(Event{Kind: KindTextDone})
	emit(Event{Kind: KindDone})
}
