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

// closeID is the event id of the search socket's closing frame.
const closeID = "CLOSE"

// NewSearchDecoder decodes the search socket's event stream. Each
// frame's data is a JSON array of {tag, payload} items; the search,
// search.info and domain_info items of a frame yield one SearchBatch.
// The stream is complete at the frame with id CLOSE or at a clean end
// of input. Keepalive frames whose data is not JSON are skipped.
func NewSearchDecoder(reader io.Reader, options ...Option) *Decoder {
	return newDecoder(&searchFramer{scanner: NewScanner(reader)}, options)
}

type searchFramer struct {
	scanner *Scanner
}

type searchItem struct {
	Tag     string          `json:"tag"`
	Payload json.RawMessage `json:"payload"`
}

func (f *searchFramer) fill(emit func(Event)) error {
	frame, err := f.scanner.Next()
	switch {
	case errors.Is(err, io.EOF):
		emit(Event{Kind: KindDone})
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		protocolError(emit, "search stream truncated mid-frame")
		return nil
	case errors.Is(err, ErrFrameTooLarge):
		protocolError(emit, "%w", err)
		return nil
	case err != nil:
		return err
	}

	batch, err := decodeSearchFrame(frame.Data)
	if err != nil {
		protocolError(emit, "malformed search frame: %w", err)
		return nil
	}
	if batch != nil {
		emit(Event{Kind: KindSearchBatch, Batch: batch})
	}
	if frame.ID == closeID {
		emit(Event{Kind: KindDone})
	}
	return nil
}

// decodeSearchFrame returns nil for frames that carry no search items.
func decodeSearchFrame(data string) (*SearchBatch, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, nil
	}
	if trimmed[0] == '{' {
		if !json.Valid([]byte(trimmed)) {
			return nil, errors.New("invalid JSON object")
		}
		return nil, nil
	}

	var items []searchItem
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, err
	}

	batch := &SearchBatch{}
	for _, item := range items {
		switch item.Tag {
		case "search":
			content, err := searchContent(item.Payload)
			if err != nil {
				return nil, err
			}
			batch.HTML = append(batch.HTML, content)
		case "search.info":
			info := DefaultSearchInfo()
			if isObject(item.Payload) {
				if err := json.Unmarshal(item.Payload, &info); err != nil {
					return nil, err
				}
				batch.Info = &info
			}
		case "domain_info":
			domains, err := domainInfo(item.Payload)
			if err != nil {
				return nil, err
			}
			batch.Domains = append(batch.Domains, domains...)
		}
	}
	if len(batch.HTML) == 0 && batch.Info == nil && len(batch.Domains) == 0 {
		return nil, nil
	}
	return batch, nil
}

// searchContent accepts {"content": "..."} or a bare string.
func searchContent(payload json.RawMessage) (string, error) {
	var text string
	if json.Unmarshal(payload, &text) == nil {
		return text, nil
	}
	var object struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(payload, &object); err != nil {
		return "", err
	}
	return object.Content, nil
}

// domainInfo accepts the domain document as JSON or as a string
// containing JSON.
func domainInfo(payload json.RawMessage) ([]DomainInfo, error) {
	var encoded string
	if json.Unmarshal(payload, &encoded) == nil {
		payload = json.RawMessage(encoded)
	}
	if !isObject(payload) {
		return nil, nil
	}
	var document struct {
		Data []DomainInfo `json:"data"`
	}
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, err
	}
	return document.Data, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
