// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kagi-cli/kagi/credential"
)

const (
	mediaEventStream = "text/event-stream"
	mediaKagiStream  = "application/vnd.kagi.stream"
	mediaJSON        = "application/json"

	// assistantBranch is the root branch of a new assistant thread.
	assistantBranch = "00000000-0000-4000-0000-000000000000"
)

type proofreadBody struct {
	Text                string `json:"text"`
	SourceLanguage      string `json:"source_lang"`
	SessionToken        string `json:"session_token"`
	Model               string `json:"model"`
	Stream              bool   `json:"stream"`
	WritingStyle        string `json:"writing_style"`
	CorrectionLevel     string `json:"correction_level"`
	Formality           string `json:"formality"`
	Context             string `json:"context"`
	ExplanationLanguage string `json:"explanation_language"`
}

type assistantBody struct {
	Focus struct {
		ThreadID *string `json:"thread_id"`
		BranchID string  `json:"branch_id"`
		Prompt   string  `json:"prompt"`
	} `json:"focus"`
	Profile struct {
		ID               *string `json:"id"`
		Personalizations bool    `json:"personalizations"`
		InternetAccess   bool    `json:"internet_access"`
		Model            string  `json:"model"`
		LensID           *string `json:"lens_id"`
	} `json:"profile"`
	Threads []assistantThreadOptions `json:"threads"`
}

type assistantThreadOptions struct {
	TagIDs []string `json:"tag_ids"`
	Saved  bool     `json:"saved"`
	Shared bool     `json:"shared"`
}

// newHTTPRequest builds the upstream request for r, authenticated with
// bearer. The request carries no context; Send attaches one.
func (c *Client) newHTTPRequest(r Request, bearer credential.Credential, requestID string) (*http.Request, error) {
	endpoint := c.endpoints.forKind(r.Kind)
	var (
		request *http.Request
		err     error
	)

	switch r.Kind {
	case KindProofread:
		body := proofreadBody{
			Text:                r.Input,
			SourceLanguage:      r.Proofread.Language,
			SessionToken:        bearer.Token,
			Model:               r.Proofread.Model,
			Stream:              !r.NoStream,
			WritingStyle:        r.Proofread.Style,
			CorrectionLevel:     r.Proofread.Level,
			Formality:           r.Proofread.Formality,
			Context:             r.Proofread.Context,
			ExplanationLanguage: "en",
		}
		request, err = newJSONRequest(endpoint, body)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", accept(r.NoStream, mediaEventStream))
		request.Header.Set("Referer", "https://translate.kagi.com/proofread")

	case KindSummarize:
		query := url.Values{}
		query.Set("url", r.Input)
		query.Set("stream", "1")
		if r.NoStream {
			query.Set("stream", "0")
		}
		query.Set("target_language", r.Summarize.TargetLanguage)
		query.Set("summary_type", r.Summarize.Type)
		request, err = http.NewRequest(http.MethodGet, withQuery(endpoint, query), nil)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", accept(r.NoStream, mediaKagiStream))
		request.Header.Set("Referer", "https://kagi.com/summarizer")

	case KindAsk:
		var body assistantBody
		if r.Ask.ThreadID != "" {
			threadID := r.Ask.ThreadID
			body.Focus.ThreadID = &threadID
		}
		body.Focus.BranchID = assistantBranch
		body.Focus.Prompt = r.Input
		body.Profile.Personalizations = true
		body.Profile.InternetAccess = !r.Ask.NoInternet
		body.Profile.Model = r.Ask.Model
		body.Threads = []assistantThreadOptions{{TagIDs: []string{}}}
		request, err = newJSONRequest(endpoint, body)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", mediaKagiStream)
		request.Header.Set("Origin", "https://kagi.com")
		request.Header.Set("Referer", "https://kagi.com/assistant")

	case KindSearch:
		query := url.Values{}
		query.Set("q", r.Input)
		if r.Search.Batch > 0 {
			query.Set("batch", strconv.Itoa(r.Search.Batch))
		} else {
			query.Set("nonce", nonce())
		}
		request, err = http.NewRequest(http.MethodGet, withQuery(endpoint, query), nil)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", mediaEventStream)
		request.Header.Set("X-Kagi-Authorization", c.session.Reveal())
		request.Header.Set("Referer", "https://kagi.com/search?q="+url.QueryEscape(r.Input))

	default:
		return nil, fmt.Errorf("kagi: no request builder for %q", r.Kind)
	}

	request.Header.Set("Authorization", "Bearer "+bearer.Token)
	request.Header.Set("X-Request-Id", requestID)
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}
	request.AddCookie(&http.Cookie{Name: credential.SessionCookie, Value: c.session.Reveal()})
	return request, nil
}

func newJSONRequest(endpoint string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	request, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", mediaJSON)
	return request, nil
}

func accept(noStream bool, streaming string) string {
	if noStream {
		return mediaJSON
	}
	return streaming
}

// withQuery appends query to endpoint, keeping any query the endpoint
// already has.
func withQuery(endpoint string, query url.Values) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	merged := parsed.Query()
	for key, values := range query {
		merged[key] = values
	}
	parsed.RawQuery = merged.Encode()
	return parsed.String()
}

// nonce is the cache-busting token the search socket expects on a
// first page.
func nonce() string {
	var raw [16]byte
	rand.Read(raw[:])
	return hex.EncodeToString(raw[:])
}
