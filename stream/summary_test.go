// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"strings"
	"testing"
)

func summaryLine(tag, outputText, status, recordType string) string {
	return tag + `:{"output_text":"` + outputText + `","output_data":{"status":"` + status +
		`","title":"Example","markdown":"# ` + outputText + `","word_stats":{"n_words":1200,"n_pages":3,"time_saved":300},` +
		`"response_metadata":{"model":"cecil","tokens":512,"cost":0.0021,"speed":88.5}},"tokens":512,"type":"` + recordType + `"}` + "\n"
}

func TestSummaryDecoderFinalRecord(t *testing.T) {
	t.Parallel()

	input := "hi:{\"v\":\"1\"}\n" +
		summaryLine("update", "Key", "running", "update") +
		summaryLine("update", "Key points", "running", "update") +
		summaryLine("final", "Key points.", "completed", "final")

	events := collect(t, NewSummaryDecoder(strings.NewReader(input)))
	assertKinds(t, events, KindTextDelta, KindTextDelta, KindTextDelta, KindSummary, KindTextDone, KindDone)

	var text strings.Builder
	for _, event := range events[:3] {
		text.WriteString(event.Text)
	}
	if text.String() != "Key points." {
		t.Errorf("deltas join to %q, want %q", text.String(), "Key points.")
	}
	summary := events[3].Summary
	if summary.Title != "Example" || summary.Markdown != "# Key points." || summary.Type != "final" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.WordStats.Words != 1200 || summary.Metadata.Model != "cecil" || *summary.Metadata.Speed != 88.5 {
		t.Errorf("summary metadata = %+v / %+v", summary.WordStats, summary.Metadata)
	}
}

func TestSummaryDecoderCompletedUpdateCloses(t *testing.T) {
	t.Parallel()

	input := summaryLine("update", "Done text", "completed", "update")
	events := collect(t, NewSummaryDecoder(strings.NewReader(input)))
	assertKinds(t, events, KindTextDelta, KindSummary, KindTextDone, KindDone)
	if events[1].Summary.Status != SummaryCompleted {
		t.Errorf("status = %q", events[1].Summary.Status)
	}
}

func TestSummaryDecoderPrematureEnd(t *testing.T) {
	t.Parallel()

	input := summaryLine("update", "Partial", "running", "update")
	assertKinds(t, collect(t, NewSummaryDecoder(strings.NewReader(input))), KindTextDelta, KindError)
}

func TestSummaryDecoderMalformedRecord(t *testing.T) {
	t.Parallel()

	input := summaryLine("update", "Partial", "running", "update") + "update:{not json}\n" +
		summaryLine("final", "Partial", "completed", "final")
	assertKinds(t, collect(t, NewSummaryDecoder(strings.NewReader(input))), KindTextDelta, KindError)
}

func TestSummaryDecoderRewrittenSnapshot(t *testing.T) {
	t.Parallel()

	// The second snapshot does not extend the first; no delta for it.
	input := summaryLine("update", "Draft", "running", "update") +
		summaryLine("update", "Rewritten", "running", "update") +
		summaryLine("final", "Rewritten!", "completed", "final")
	events := collect(t, NewSummaryDecoder(strings.NewReader(input)))
	assertKinds(t, events, KindTextDelta, KindTextDelta, KindSummary, KindTextDone, KindDone)
	if events[1].Text != "!" {
		t.Errorf("second delta = %q, want !", events[1].Text)
	}
}
