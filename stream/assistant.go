// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/kagi-cli/kagi/lib/htmltext"
)

// Assistant record tags.
const (
	tagThread  = "thread.json"
	tagMessage = "new_message.json"
	tagTokens  = "tokens.json"
)

// NewAssistantDecoder decodes the assistant's record stream.
// thread.json yields Thread; tokens.json snapshots yield TextDelta for
// the visible answer (the reply after its reasoning block, as text);
// new_message.json yields Message. The stream completes when it ends
// after a message in state "done"; a message in state "error" fails it.
// Other tags are ignored.
func NewAssistantDecoder(reader io.Reader, options ...Option) *Decoder {
	return newDecoder(&assistantFramer{scanner: NewTagScanner(reader)}, options)
}

type assistantFramer struct {
	scanner  *TagScanner
	snapshot string
	thread   bool
	message  *Message
}

// FirstJSON decodes the first JSON value in payload into target and
// ignores whatever follows it.
func FirstJSON(payload string, target any) error {
	return json.NewDecoder(strings.NewReader(payload)).Decode(target)
}

func (f *assistantFramer) fill(emit func(Event)) error {
	record, err := f.scanner.Next()
	if errors.Is(err, io.EOF) {
		f.close(emit)
		return nil
	}
	if errors.Is(err, ErrFrameTooLarge) {
		protocolError(emit, "%w", err)
		return nil
	}
	if err != nil {
		return err
	}

	switch record.Tag {
	case tagThread:
		var thread Thread
		if err := FirstJSON(record.Payload, &thread); err != nil || thread.ID == "" {
			protocolError(emit, "malformed %s record", tagThread)
			return nil
		}
		f.thread = true
		emit(Event{Kind: KindThread, Thread: &thread})

	case tagTokens:
		var tokens struct {
			Text string `json:"text"`
		}
		if err := FirstJSON(record.Payload, &tokens); err != nil {
			protocolError(emit, "malformed %s record: %w", tagTokens, err)
			return nil
		}
		_, answer := htmltext.SplitThinking(tokens.Text)
		f.advance(htmltext.Strip(answer), emit)

	case tagMessage:
		var message Message
		if err := FirstJSON(record.Payload, &message); err != nil || message.ID == "" {
			protocolError(emit, "malformed %s record", tagMessage)
			return nil
		}
		if message.State == MessageError {
			protocolError(emit, "assistant reported an error for message %s", message.ID)
			return nil
		}
		f.message = &message
		emit(Event{Kind: KindMessage, Message: &message})
	}
	return nil
}

// advance emits the extension of the visible answer.
func (f *assistantFramer) advance(snapshot string, emit func(Event)) {
	if suffix, ok := strings.CutPrefix(snapshot, f.snapshot); ok && suffix != "" {
		emit(Event{Kind: KindTextDelta, Text: suffix})
	}
	f.snapshot = snapshot
}

func (f *assistantFramer) close(emit func(Event)) {
	switch {
	case f.message == nil:
		protocolError(emit, "assistant stream ended without a message")
	case f.message.State != MessageDone:
		protocolError(emit, "assistant stream ended with message in state %q", f.message.State)
	case !f.thread:
		protocolError(emit, "assistant stream ended without a thread")
	default:
		emit(Event{Kind: KindTextDone})
		emit(Event{Kind: KindDone})
	}
}
