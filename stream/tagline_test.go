// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func readRecords(t *testing.T, input string) []Record {
	t.Helper()
	scanner := NewTagScanner(strings.NewReader(input))
	var records []Record
	for {
		record, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			return records
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		records = append(records, record)
	}
}

func TestTagScannerSingleLineRecords(t *testing.T) {
	t.Parallel()

	records := readRecords(t, "hi:{\"v\":\"202509261613\"}\nthread.json:{\"id\":\"abc\"}\ntokens.json:{\"text\":\"hello\"}\n")
	want := []Record{
		{Tag: "hi", Payload: `{"v":"202509261613"}`},
		{Tag: "thread.json", Payload: `{"id":"abc"}`},
		{Tag: "tokens.json", Payload: `{"text":"hello"}`},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestTagScannerContinuationLines(t *testing.T) {
	t.Parallel()

	input := "thread_list.html:<div>\n  <span>one</span>\n\n</div>\nfinal:{}\n"
	records := readRecords(t, input)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}
	if want := "<div>\n  <span>one</span>\n</div>"; records[0].Payload != want {
		t.Errorf("payload = %q, want %q", records[0].Payload, want)
	}
	if records[1].Tag != "final" {
		t.Errorf("records[1].Tag = %q, want final", records[1].Tag)
	}
}

func TestTagScannerDropsLeadingContinuations(t *testing.T) {
	t.Parallel()

	records := readRecords(t, "<garbage>\nupdate:{}")
	if len(records) != 1 || records[0].Tag != "update" || records[0].Payload != "{}" {
		t.Errorf("records = %+v, want one update record", records)
	}
}

func TestTagScannerReaderError(t *testing.T) {
	t.Parallel()

	failure := errors.New("connection reset")
	scanner := NewTagScanner(io.MultiReader(strings.NewReader("update:{}\n"), &failingReader{err: failure}))
	if _, err := scanner.Next(); !errors.Is(err, failure) {
		t.Errorf("err = %v, want %v", err, failure)
	}
}
