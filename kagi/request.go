// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kagi-cli/kagi/lib/fault"
)

// Kind identifies an operation.
type Kind string

const (
	KindProofread Kind = "proofread"
	KindSummarize Kind = "summarize"
	KindAsk       Kind = "ask"
	KindSearch    Kind = "search"
)

// Kinds lists every operation.
var Kinds = []Kind{KindProofread, KindSummarize, KindAsk, KindSearch}

// Proofread option values accepted by the translate service.
var (
	ProofreadStyles      = []string{"general", "academic", "business", "casual", "creative", "technical"}
	ProofreadLevels      = []string{"light", "standard", "thorough"}
	ProofreadFormalities = []string{"default", "more", "less"}
	SummaryTypes         = []string{"takeaway", "summary"}
)

// Default option values, matching the web clients.
const (
	DefaultProofreadLanguage  = "auto"
	DefaultProofreadStyle     = "general"
	DefaultProofreadLevel     = "standard"
	DefaultProofreadFormality = "default"
	DefaultProofreadModel     = "standard"
	DefaultSummaryType        = "takeaway"
	DefaultAssistantModel     = "gpt-5-mini"
)

// Request is one operation invocation.
type Request struct {
	Kind Kind

	// Input is the text to proofread, the URL to summarize, the prompt
	// or the search query, depending on Kind.
	Input string

	// NoStream asks the endpoint for a single JSON document instead of
	// an event stream. Only proofread and summarize support it.
	NoStream bool

	Proofread ProofreadOptions
	Summarize SummarizeOptions
	Ask       AskOptions
	Search    SearchOptions
}

// ProofreadOptions tune a proofread request. Empty fields take the
// Default* values.
type ProofreadOptions struct {
	Language  string
	Style     string
	Level     string
	Formality string
	Context   string
	Model     string
}

// SummarizeOptions tune a summarize request.
type SummarizeOptions struct {
	// Type is "takeaway" (bullet points) or "summary" (prose).
	Type string

	// TargetLanguage is the summary's language; empty means the
	// document's own.
	TargetLanguage string
}

// AskOptions tune an assistant prompt.
type AskOptions struct {
	Model string

	// ThreadID continues an existing thread when set.
	ThreadID string

	NoInternet bool
}

// SearchOptions tune a search request.
type SearchOptions struct {
	// Batch requests a later page; zero requests the first.
	Batch int
}

// WithDefaults returns a copy of r with empty options filled in.
func (r Request) WithDefaults() Request {
	setDefault(&r.Proofread.Language, DefaultProofreadLanguage)
	setDefault(&r.Proofread.Style, DefaultProofreadStyle)
	setDefault(&r.Proofread.Level, DefaultProofreadLevel)
	setDefault(&r.Proofread.Formality, DefaultProofreadFormality)
	setDefault(&r.Proofread.Model, DefaultProofreadModel)
	setDefault(&r.Summarize.Type, DefaultSummaryType)
	setDefault(&r.Ask.Model, DefaultAssistantModel)
	return r
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks r for the operation's required fields. It is called
// by RunOperation after WithDefaults, so empty options are only errors
// when the caller skipped the defaults.
func (r Request) Validate() error {
	switch r.Kind {
	case KindProofread:
		if strings.TrimSpace(r.Input) == "" {
			return fault.Validation("proofread: text is empty")
		}
		if strings.TrimSpace(r.Proofread.Language) == "" {
			return fault.Validation("proofread: language is empty")
		}
		if err := oneOf("proofread style", r.Proofread.Style, ProofreadStyles); err != nil {
			return err
		}
		if err := oneOf("proofread level", r.Proofread.Level, ProofreadLevels); err != nil {
			return err
		}
		if err := oneOf("proofread formality", r.Proofread.Formality, ProofreadFormalities); err != nil {
			return err
		}
		if strings.TrimSpace(r.Proofread.Model) == "" {
			return fault.Validation("proofread: model is empty")
		}

	case KindSummarize:
		if err := validateURL(r.Input); err != nil {
			return err
		}
		if err := oneOf("summary type", r.Summarize.Type, SummaryTypes); err != nil {
			return err
		}

	case KindAsk:
		if strings.TrimSpace(r.Input) == "" {
			return fault.Validation("ask: prompt is empty")
		}
		if strings.TrimSpace(r.Ask.Model) == "" {
			return fault.Validation("ask: model is empty")
		}
		if r.Ask.ThreadID != "" {
			if _, err := uuid.Parse(r.Ask.ThreadID); err != nil {
				return fault.Validation("ask: thread ID %q is not a UUID", r.Ask.ThreadID)
			}
		}
		if r.NoStream {
			return fault.Validation("ask: the assistant only streams")
		}

	case KindSearch:
		if strings.TrimSpace(r.Input) == "" {
			return fault.Validation("search: query is empty")
		}
		if r.Search.Batch < 0 {
			return fault.Validation("search: batch %d is negative", r.Search.Batch)
		}
		if r.NoStream {
			return fault.Validation("search: the search socket only streams")
		}

	case "":
		return fault.Validation("operation kind is empty")
	default:
		return fault.Validation("unknown operation %q", r.Kind)
	}
	return nil
}

func oneOf(name, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fault.Validation("%s %q is not one of %s", name, value, strings.Join(allowed, ", "))
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fault.Validation("summarize: URL is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fault.Validation("summarize: malformed URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fault.Validation("summarize: URL %q must be http or https", raw)
	}
	if parsed.Host == "" {
		return fault.Validation("summarize: URL %q has no host", raw)
	}
	return nil
}
