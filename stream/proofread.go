// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// NewProofreadDecoder decodes the proofreader's event stream. Every
// block must be a "message" event whose data is a JSON object with
// exactly one of the keys detected_language, delta, text_done,
// analysis, done or error.
func NewProofreadDecoder(reader io.Reader, options ...Option) *Decoder {
	return newDecoder(&proofreadFramer{scanner: NewScanner(reader)}, options)
}

type proofreadFramer struct {
	scanner  *Scanner
	textDone bool
	analysis bool
}

func (f *proofreadFramer) fill(emit func(Event)) error {
	frame, err := f.scanner.Next()
	switch {
	case errors.Is(err, io.EOF):
		protocolError(emit, "proofread stream ended before the done event")
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		protocolError(emit, "proofread stream truncated mid-frame")
		return nil
	case errors.Is(err, ErrFrameTooLarge):
		protocolError(emit, "%w", err)
		return nil
	case err != nil:
		return err
	}

	switch frame.Event {
	case "", "message":
	case "error":
		protocolError(emit, "proofreader reported an error: %s", strings.TrimSpace(frame.Data))
		return nil
	default:
		protocolError(emit, "unexpected proofread event %q", frame.Event)
		return nil
	}
	if !frame.HasData {
		protocolError(emit, "proofread frame has no data")
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(frame.Data), &fields); err != nil {
		protocolError(emit, "proofread frame is not a JSON object: %w", err)
		return nil
	}
	if len(fields) != 1 {
		protocolError(emit, "proofread frame has %d keys, want exactly one", len(fields))
		return nil
	}
	for key, raw := range fields {
		f.decodeField(key, raw, emit)
	}
	return nil
}

func (f *proofreadFramer) decodeField(key string, raw json.RawMessage, emit func(Event)) {
	switch key {
	case "detected_language":
		var language Language
		if err := strictUnmarshal(raw, &language); err != nil || language.ISO == "" {
			protocolError(emit, "malformed detected_language: %s", raw)
			return
		}
		emit(Event{Kind: KindDetectedLanguage, Language: &language})

	case "delta":
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			protocolError(emit, "malformed delta: %w", err)
			return
		}
		if f.textDone {
			protocolError(emit, "delta after text_done")
			return
		}
		emit(Event{Kind: KindTextDelta, Text: text})

	case "text_done":
		if f.textDone {
			protocolError(emit, "duplicate text_done")
			return
		}
		f.textDone = true
		emit(Event{Kind: KindTextDone})

	case "analysis":
		var analysis Analysis
		if err := strictUnmarshal(raw, &analysis); err != nil {
			protocolError(emit, "malformed analysis: %w", err)
			return
		}
		if f.analysis {
			protocolError(emit, "duplicate analysis")
			return
		}
		f.analysis = true
		emit(Event{Kind: KindAnalysis, Analysis: &analysis})

	case "done":
		emit(Event{Kind: KindDone})

	case "error":
		var message string
		if json.Unmarshal(raw, &message) != nil {
			message = string(raw)
		}
		protocolError(emit, "proofreader reported an error: %s", message)

	default:
		protocolError(emit, "unknown proofread frame key %q", key)
	}
}

// strictUnmarshal decodes a JSON object into target, rejecting null and
// non-object values. Unknown fields are allowed.
func strictUnmarshal(raw json.RawMessage, target any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("not a JSON object")
	}
	return json.Unmarshal(trimmed, target)
}
