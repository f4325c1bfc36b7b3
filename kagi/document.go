// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/stream"
)

// proofreadDocument is the proofreader's non-streaming response.
type proofreadDocument struct {
	DetectedLanguage *stream.Language `json:"detected_language"`
	Text             *string          `json:"text"`
	Analysis         *stream.Analysis `json:"analysis"`
	Error            string           `json:"error"`
}

// ParseDocument parses a complete response body for kind into a
// Result. It is a pure function of its input: equal bytes give equal
// Results. A JSON document is read as the endpoint's non-streaming
// response; anything else is decoded as a complete event stream.
func ParseDocument(kind Kind, data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, fault.Stream("%s: empty response", kind)
	}
	if trimmed[0] != '{' {
		return fold(kind, newDecoder(kind, bytes.NewReader(data)), nil)
	}

	result := Result{Operation: kind}
	switch kind {
	case KindProofread:
		var document proofreadDocument
		if err := json.Unmarshal(trimmed, &document); err != nil {
			return Result{}, fault.Stream("proofread: malformed response document: %w", err)
		}
		if document.Error != "" {
			return Result{}, fault.Stream("proofread: proofreader reported an error: %s", document.Error)
		}
		if document.Text == nil && document.Analysis == nil {
			return Result{}, fault.Stream("proofread: response document has neither text nor analysis")
		}
		result.DetectedLanguage = document.DetectedLanguage
		result.Analysis = document.Analysis
		switch {
		case document.Text != nil:
			result.Text = *document.Text
		default:
			result.Text = document.Analysis.CorrectedText
		}

	case KindSummarize:
		summary, err := stream.ParseSummaryRecord(string(trimmed))
		if err != nil {
			return Result{}, fault.Stream("summarize: malformed response document: %w", err)
		}
		result.Summary = summary
		result.Text = summary.OutputText

	default:
		return Result{}, fault.Stream("%s: %w", kind, errNoDocumentForm)
	}
	return result, nil
}

var errNoDocumentForm = errors.New("endpoint has no JSON document form")
