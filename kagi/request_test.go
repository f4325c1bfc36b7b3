// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"testing"

	"github.com/kagi-cli/kagi/lib/fault"
)

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request Request
		valid   bool
	}{
		{"proofread", Request{Kind: KindProofread, Input: "Some text."}, true},
		{"proofread empty", Request{Kind: KindProofread, Input: " \n\t"}, false},
		{"proofread style", Request{Kind: KindProofread, Input: "x", Proofread: ProofreadOptions{Style: "pirate"}}, false},
		{"proofread level", Request{Kind: KindProofread, Input: "x", Proofread: ProofreadOptions{Level: "extreme"}}, false},
		{"proofread formality", Request{Kind: KindProofread, Input: "x", Proofread: ProofreadOptions{Formality: "royal"}}, false},
		{"summarize", Request{Kind: KindSummarize, Input: "https://example.com/a?b=c"}, true},
		{"summarize relative", Request{Kind: KindSummarize, Input: "/just/a/path"}, false},
		{"summarize scheme", Request{Kind: KindSummarize, Input: "ftp://example.com/file"}, false},
		{"summarize no host", Request{Kind: KindSummarize, Input: "https://"}, false},
		{"summarize type", Request{Kind: KindSummarize, Input: "https://example.com", Summarize: SummarizeOptions{Type: "haiku"}}, false},
		{"ask", Request{Kind: KindAsk, Input: "Why?"}, true},
		{"ask thread", Request{Kind: KindAsk, Input: "Why?", Ask: AskOptions{ThreadID: "5f0c6a2e-0d7e-4a8f-9a57-3f1b2c4d5e6f"}}, true},
		{"ask bad thread", Request{Kind: KindAsk, Input: "Why?", Ask: AskOptions{ThreadID: "thread-7"}}, false},
		{"ask no stream", Request{Kind: KindAsk, Input: "Why?", NoStream: true}, false},
		{"search", Request{Kind: KindSearch, Input: "golang"}, true},
		{"search batch", Request{Kind: KindSearch, Input: "golang", Search: SearchOptions{Batch: 3}}, true},
		{"search negative batch", Request{Kind: KindSearch, Input: "golang", Search: SearchOptions{Batch: -1}}, false},
		{"search empty", Request{Kind: KindSearch}, false},
		{"no kind", Request{Input: "x"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := test.request.WithDefaults().Validate()
			if test.valid && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !test.valid && !fault.Is(err, fault.KindValidation) {
				t.Errorf("Validate() = %v, want a validation fault", err)
			}
		})
	}
}

func TestRequestWithDefaults(t *testing.T) {
	t.Parallel()

	request := Request{Kind: KindProofread, Proofread: ProofreadOptions{Style: "business"}}.WithDefaults()
	if request.Proofread.Style != "business" {
		t.Errorf("Style = %q, explicit value overwritten", request.Proofread.Style)
	}
	if request.Proofread.Language != DefaultProofreadLanguage || request.Ask.Model != DefaultAssistantModel {
		t.Errorf("defaults not applied: %+v", request)
	}
}
