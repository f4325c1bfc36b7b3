// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/stream"
)

const testAnalysis = `{"corrected_text":"ab","changes":[],"corrections_summary":"None needed.",` +
	`"tone_analysis":{"overall_tone":"neutral","description":"Flat."},` +
	`"writing_statistics":{"word_count":1,"character_count":2,"character_count_no_spaces":2,"paragraph_count":1,` +
	`"sentence_count":1,"average_words_per_sentence":1,"average_characters_per_word":2,"vocabulary_diversity":1,` +
	`"reading_time_minutes":0.01,"reading_level":"Elementary","readability_score":100}}`

func proofreadRequest(text string) Request {
	return Request{Kind: KindProofread, Input: text}
}

func TestRunOperationFoldsProofreadStream(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Errorf("decoding request body: %v", err)
			}
			bearer := strings.TrimPrefix(request.Header.Get("Authorization"), "Bearer ")
			if bearer == "" || body["session_token"] != bearer {
				t.Errorf("session_token = %v, want the bearer token", body["session_token"])
			}
			if body["text"] != "ab" || body["writing_style"] != DefaultProofreadStyle || body["stream"] != true {
				t.Errorf("request body = %v", body)
			}
			if request.Header.Get("X-Request-Id") == "" {
				t.Error("X-Request-Id header missing")
			}
			sse(writer,
				`{"detected_language":{"iso":"en","label":"English"}}`,
				`{"delta":"a"}`,
				`{"delta":"b"}`,
				`{"text_done":true}`,
				`{"analysis":`+testAnalysis+`}`,
				`{"done":true}`,
			)
		},
	})
	client := h.client(nil)

	var deltas recorder
	result, err := client.RunOperation(context.Background(), proofreadRequest("ab"), deltas.onDelta)
	if err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	if result.Text != "ab" {
		t.Errorf("Text = %q, want ab", result.Text)
	}
	if !slices.Equal(deltas.deltas, []string{"a", "b"}) {
		t.Errorf("deltas = %q, want [a b]", deltas.deltas)
	}
	if result.DetectedLanguage == nil || result.DetectedLanguage.ISO != "en" {
		t.Errorf("DetectedLanguage = %+v", result.DetectedLanguage)
	}
	if result.Analysis == nil || result.Analysis.CorrectionsSummary != "None needed." {
		t.Errorf("Analysis = %+v", result.Analysis)
	}
	if result.Account == nil || result.Account.SubjectID != "user-1" || result.Account.Extra["theme"] != "dark" {
		t.Errorf("Account = %+v", result.Account)
	}
}

func TestRunOperationMalformedFrame(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			sse(writer, `{"delta":"a"}`, `{"delta":`, `{"done":true}`)
		},
	})
	client := h.client(nil)

	var deltas recorder
	result, err := client.RunOperation(context.Background(), proofreadRequest("a"), deltas.onDelta)
	if !fault.Is(err, fault.KindStream) {
		t.Fatalf("err = %v, want a stream fault", err)
	}
	if !slices.Equal(deltas.deltas, []string{"a"}) {
		t.Errorf("deltas = %q, want [a]", deltas.deltas)
	}
	if result.Operation != "" || result.Text != "" {
		t.Errorf("a partial result was returned: %+v", result)
	}
}

func TestRunOperationAuthRetryBound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			http.Error(writer, "token expired", http.StatusUnauthorized)
		},
	})
	client := h.client(nil)

	_, err := client.RunOperation(context.Background(), proofreadRequest("text"), nil)
	if !fault.Is(err, fault.KindAuth) {
		t.Fatalf("err = %v, want an auth fault", err)
	}
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusUnauthorized {
		t.Errorf("err does not carry the 401 status: %v", err)
	}
	if got := h.requests.Load(); got != 2 {
		t.Errorf("operation requests = %d, want 2", got)
	}
	if got := h.refreshes.Load(); got != 2 {
		t.Errorf("refreshes = %d, want 2", got)
	}
}

func TestRunOperationRetriesOnceAfterRejection(t *testing.T) {
	t.Parallel()

	var (
		mutex  sync.Mutex
		tokens []string
	)
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			mutex.Lock()
			tokens = append(tokens, request.Header.Get("Authorization"))
			call := len(tokens)
			mutex.Unlock()
			if call == 1 {
				http.Error(writer, "revoked", http.StatusForbidden)
				return
			}
			sse(writer, `{"delta":"ok"}`, `{"text_done":true}`, `{"done":true}`)
		},
	})
	client := h.client(nil)

	result, err := client.RunOperation(context.Background(), proofreadRequest("text"), nil)
	if err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want ok", result.Text)
	}
	mutex.Lock()
	defer mutex.Unlock()
	if len(tokens) != 2 || tokens[0] == tokens[1] {
		t.Errorf("authorization headers = %d, want 2 distinct", len(tokens))
	}
}

func TestRunOperationRejectedCachedTokenIsReminted(t *testing.T) {
	t.Parallel()

	var (
		mutex  sync.Mutex
		tokens []string
	)
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			mutex.Lock()
			tokens = append(tokens, request.Header.Get("Authorization"))
			call := len(tokens)
			mutex.Unlock()
			if call == 1 {
				http.Error(writer, "revoked", http.StatusForbidden)
				return
			}
			sse(writer, `{"delta":"ok"}`, `{"text_done":true}`, `{"done":true}`)
		},
	})
	revoked, err := credential.ParseToken(h.mint(0), credential.TokenHints{}, h.clock.Now())
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	cache := &memoryCache{stored: &revoked}
	client := h.client(func(config *Config) { config.Cache = cache })

	if _, err := client.RunOperation(context.Background(), proofreadRequest("text"), nil); err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	mutex.Lock()
	defer mutex.Unlock()
	if len(tokens) != 2 || tokens[0] != "Bearer "+revoked.Token || tokens[1] == tokens[0] {
		t.Errorf("authorization headers = %d, want the cached token then a fresh one", len(tokens))
	}
	if h.refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", h.refreshes.Load())
	}
	if got := cache.token(); got == "" || got == revoked.Token {
		t.Error("cache still holds the rejected token")
	}
}

func TestRunOperationIdleTimeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			sse(writer, `{"delta":"a"}`)
			<-request.Context().Done()
		},
	})
	client := h.client(func(config *Config) {
		config.IdleTimeout = 30 * time.Second
	})

	result := make(chan error, 1)
	go func() {
		_, err := client.RunOperation(context.Background(), proofreadRequest("text"), nil)
		result <- err
	}()

	// The idle watchdog is the only timer: first-byte and refresh
	// timeouts are disabled.
	h.clock.WaitForTimers(1)
	h.clock.Advance(30 * time.Second)

	select {
	case err := <-result:
		if !fault.Is(err, fault.KindNetwork) || !errors.Is(err, stream.ErrIdleTimeout) {
			t.Errorf("err = %v, want a network fault wrapping ErrIdleTimeout", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunOperation hung after the idle timeout")
	}
}

func TestRunOperationFirstByteTimeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			<-request.Context().Done()
		},
	})
	client := h.client(func(config *Config) {
		config.FirstByteTimeout = 10 * time.Second
	})
	h.seed(client)

	result := make(chan error, 1)
	go func() {
		_, err := client.RunOperation(context.Background(), proofreadRequest("text"), nil)
		result <- err
	}()

	h.clock.WaitForTimers(1)
	h.clock.Advance(10 * time.Second)

	select {
	case err := <-result:
		if !fault.Is(err, fault.KindNetwork) || !errors.Is(err, ErrFirstByteTimeout) {
			t.Errorf("err = %v, want a network fault wrapping ErrFirstByteTimeout", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunOperation hung after the first-byte timeout")
	}
	if got := h.refreshes.Load(); got != 0 {
		t.Errorf("refreshes = %d, want 0 with a seeded credential", got)
	}
}

func TestRunOperationCancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			sse(writer, `{"delta":"a"}`)
			<-request.Context().Done()
		},
	})
	client := h.client(nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := client.RunOperation(ctx, proofreadRequest("text"), func(string) { cancel() })
	if !fault.Is(err, fault.KindCancelled) {
		t.Errorf("err = %v, want a cancellation", err)
	}
}

func TestRunOperationValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/": func(writer http.ResponseWriter, request *http.Request) {
			t.Errorf("unexpected request to %s", request.URL.Path)
		},
	})
	client := h.client(nil)

	requests := []Request{
		{Kind: KindProofread, Input: "  "},
		{Kind: KindSummarize, Input: "not a url"},
		{Kind: KindAsk, Input: "hi", Ask: AskOptions{ThreadID: "thread-1"}},
		{Kind: KindSearch},
		{Kind: "translate", Input: "x"},
	}
	for _, request := range requests {
		_, err := client.RunOperation(context.Background(), request, nil)
		if !fault.Is(err, fault.KindValidation) {
			t.Errorf("%s %q: err = %v, want a validation fault", request.Kind, request.Input, err)
		}
	}
	if h.refreshes.Load() != 0 || h.requests.Load() != 0 {
		t.Error("invalid requests reached the network")
	}
}

func TestRunOperationStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   fault.Kind
	}{
		{http.StatusBadRequest, fault.KindValidation},
		{http.StatusUnprocessableEntity, fault.KindValidation},
		{http.StatusTooManyRequests, fault.KindNetwork},
		{http.StatusServiceUnavailable, fault.KindNetwork},
	}
	for _, test := range tests {
		h := newHarness(t, map[string]http.HandlerFunc{
			"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
				http.Error(writer, "upstream says no", test.status)
			},
		})
		_, err := h.client(nil).RunOperation(context.Background(), proofreadRequest("text"), nil)
		if got := fault.KindOf(err); got != test.want {
			t.Errorf("HTTP %d: kind = %q, want %q", test.status, got, test.want)
		}
		var status *StatusError
		if !errors.As(err, &status) || status.StatusCode != test.status || status.Body != "upstream says no" {
			t.Errorf("HTTP %d: status error = %+v", test.status, status)
		}
		if got := h.requests.Load(); got != 1 {
			t.Errorf("HTTP %d: requests = %d, want 1 (no retry)", test.status, got)
		}
	}
}

func TestRunOperationProofreadDocument(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/proofread": func(writer http.ResponseWriter, request *http.Request) {
			if request.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q, want application/json", request.Header.Get("Accept"))
			}
			writer.Header().Set("Content-Type", "application/json; charset=utf-8")
			io.WriteString(writer, `{"detected_language":{"iso":"de","label":"German"},"text":"Hallo","analysis":`+testAnalysis+`}`)
		},
	})
	request := proofreadRequest("Halo")
	request.NoStream = true

	var deltas recorder
	result, err := h.client(nil).RunOperation(context.Background(), request, deltas.onDelta)
	if err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	if result.Text != "Hallo" || result.DetectedLanguage.ISO != "de" || result.Analysis == nil {
		t.Errorf("result = %+v", result)
	}
	if !slices.Equal(deltas.deltas, []string{"Hallo"}) {
		t.Errorf("deltas = %q, want the whole text once", deltas.deltas)
	}
}

func TestRunOperationSummarizeStream(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/mother/summary_labs": func(writer http.ResponseWriter, request *http.Request) {
			query := request.URL.Query()
			if query.Get("url") != "https://example.com/post" || query.Get("stream") != "1" || query.Get("summary_type") != "summary" {
				t.Errorf("query = %v", query)
			}
			if cookie, err := request.Cookie("kagi_session"); err != nil || cookie.Value != testSession {
				t.Errorf("session cookie missing: %v", err)
			}
			writer.Header().Set("Content-Type", "application/vnd.kagi.stream")
			io.WriteString(writer, `update:{"output_text":"Short","output_data":{"status":"running"},"type":"update"}`+"\n")
			io.WriteString(writer, `final:{"output_text":"Short story.","output_data":{"status":"completed","title":"Post","markdown":"Short story."},"type":"final"}`+"\n")
		},
	})
	request := Request{Kind: KindSummarize, Input: "https://example.com/post", Summarize: SummarizeOptions{Type: "summary"}}

	var deltas recorder
	result, err := h.client(nil).RunOperation(context.Background(), request, deltas.onDelta)
	if err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	if result.Text != "Short story." || result.Summary == nil || result.Summary.Title != "Post" {
		t.Errorf("result = %+v", result)
	}
	if strings.Join(deltas.deltas, "") != "Short story." {
		t.Errorf("deltas = %q", deltas.deltas)
	}
}

func TestRunOperationAskStream(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]http.HandlerFunc{
		"/assistant/prompt": func(writer http.ResponseWriter, request *http.Request) {
			var body assistantBody
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			if body.Focus.Prompt != "Say hi" || body.Focus.ThreadID != nil || body.Profile.Model != DefaultAssistantModel || !body.Profile.InternetAccess {
				t.Errorf("body = %+v", body)
			}
			if request.Header.Get("Origin") != "https://kagi.com" {
				t.Errorf("Origin = %q", request.Header.Get("Origin"))
			}
			writer.Header().Set("Content-Type", "application/vnd.kagi.stream")
			io.WriteString(writer, `thread.json:{"id":"t-1","title":"Hi","created_at":"2026-03-01"}`+"\n")
			io.WriteString(writer, `tokens.json:{"text":"<p>Hello</p>"}`+"\n")
			io.WriteString(writer, `new_message.json:{"id":"m-1","created_at":"2026-03-01","state":"done","prompt":"Say hi",`+
				`"reply":"<details><summary>Thinking</summary>x</details><p>Hello</p>","md":"<details><summary>Thinking</summary>x</details>\n\nHello"}`+"\n")
		},
	})

	var deltas recorder
	result, err := h.client(nil).RunOperation(context.Background(), Request{Kind: KindAsk, Input: "Say hi"}, deltas.onDelta)
	if err != nil {
		t.Fatalf("RunOperation: %v", err)
	}
	if result.Text != "Hello" || result.Thread.ID != "t-1" || result.Message.ID != "m-1" {
		t.Errorf("result = %+v", result)
	}
	if !slices.Equal(deltas.deltas, []string{"Hello"}) {
		t.Errorf("deltas = %q", deltas.deltas)
	}
}
