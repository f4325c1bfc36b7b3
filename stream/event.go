// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variants of [Event].
type Kind uint8

const (
	// KindDetectedLanguage carries the source language the proofreader
	// detected.
	KindDetectedLanguage Kind = iota + 1

	// KindTextDelta carries the next fragment of streamed text.
	KindTextDelta

	// KindTextDone marks the end of the text deltas.
	KindTextDone

	// KindAnalysis carries the proofreading analysis.
	KindAnalysis

	// KindDone is the terminal event of a complete stream.
	KindDone

	// KindError is the terminal event of a malformed or aborted stream.
	KindError

	// KindSummary carries the summarizer's final record.
	KindSummary

	// KindThread carries the assistant thread the reply belongs to.
	KindThread

	// KindMessage carries an assistant message snapshot.
	KindMessage

	// KindSearchBatch carries one frame's worth of search results.
	KindSearchBatch
)

var kindNames = [...]string{
	KindDetectedLanguage: "detected_language",
	KindTextDelta:        "text_delta",
	KindTextDone:         "text_done",
	KindAnalysis:         "analysis",
	KindDone:             "done",
	KindError:            "error",
	KindSummary:          "summary",
	KindThread:           "thread",
	KindMessage:          "message",
	KindSearchBatch:      "search_batch",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is one decoded stream event. Kind selects which payload field
// is set; the others are zero.
type Event struct {
	Kind Kind

	// Language is set for KindDetectedLanguage.
	Language *Language

	// Text is set for KindTextDelta.
	Text string

	Analysis *Analysis
	Summary  *Summary
	Thread   *Thread
	Message  *Message
	Batch    *SearchBatch

	// Err describes the protocol violation for KindError.
	Err error
}

// Terminal reports whether e ends the sequence.
func (e Event) Terminal() bool {
	return e.Kind == KindDone || e.Kind == KindError
}

// Language is a detected source language.
type Language struct {
	ISO   string `json:"iso"`
	Label string `json:"label"`
}

// Analysis is the proofreader's report on the submitted text.
type Analysis struct {
	CorrectedText      string            `json:"corrected_text"`
	Changes            []json.RawMessage `json:"changes"`
	CorrectionsSummary string            `json:"corrections_summary"`
	Tone               Tone              `json:"tone_analysis"`
	Statistics         WritingStatistics `json:"writing_statistics"`
}

// Tone is the proofreader's tone assessment.
type Tone struct {
	Overall     string `json:"overall_tone"`
	Description string `json:"description"`
}

// WritingStatistics are the proofreader's text metrics.
type WritingStatistics struct {
	WordCount                int     `json:"word_count"`
	CharacterCount           int     `json:"character_count"`
	CharacterCountNoSpaces   int     `json:"character_count_no_spaces"`
	ParagraphCount           int     `json:"paragraph_count"`
	SentenceCount            int     `json:"sentence_count"`
	AverageWordsPerSentence  float64 `json:"average_words_per_sentence"`
	AverageCharactersPerWord float64 `json:"average_characters_per_word"`
	VocabularyDiversity      float64 `json:"vocabulary_diversity"`
	ReadingTimeMinutes       float64 `json:"reading_time_minutes"`
	ReadingLevel             string  `json:"reading_level"`
	ReadabilityScore         float64 `json:"readability_score"`
}

// Summary is a summarizer record. The final record carries the
// rendered Markdown and the usage metadata.
type Summary struct {
	Type           string           `json:"type"`
	Title          string           `json:"title"`
	OutputText     string           `json:"output_text"`
	Markdown       string           `json:"markdown"`
	Status         string           `json:"status"`
	Tokens         int              `json:"tokens"`
	ElapsedSeconds *float64         `json:"elapsed_seconds,omitempty"`
	WordStats      WordStats        `json:"word_stats"`
	Metadata       ResponseMetadata `json:"response_metadata"`
}

// WordStats describe the summarized document.
type WordStats struct {
	Tokens    int             `json:"n_tokens"`
	Words     int             `json:"n_words"`
	Pages     int             `json:"n_pages"`
	TimeSaved float64         `json:"time_saved"`
	Length    json.RawMessage `json:"length,omitempty"`
}

// ResponseMetadata describes the model run that produced a summary.
type ResponseMetadata struct {
	Speed           *float64 `json:"speed,omitempty"`
	Tokens          int      `json:"tokens"`
	TotalTimeSecond float64  `json:"total_time_second"`
	Model           string   `json:"model"`
	Version         string   `json:"version"`
	Cost            float64  `json:"cost"`
}

// Thread is an assistant conversation thread.
type Thread struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
	Saved     bool   `json:"saved"`
	Shared    bool   `json:"shared"`
}

// Message is an assistant message snapshot. Reply is HTML; Markdown is
// the same reply as Markdown once the message is complete.
type Message struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	State     string `json:"state"`
	Prompt    string `json:"prompt"`
	Reply     string `json:"reply,omitempty"`
	Markdown  string `json:"md,omitempty"`
}

// Message states reported by the assistant.
const (
	MessageDone  = "done"
	MessageError = "error"
)

// SearchBatch is the content of one search frame. HTML holds result
// markup fragments in arrival order; Info is set when the frame carried
// paging information.
type SearchBatch struct {
	HTML    []string
	Info    *SearchInfo
	Domains []DomainInfo
}

// SearchInfo is the paging state of a search response.
type SearchInfo struct {
	ShareURL  string `json:"share_url"`
	CurrBatch int    `json:"curr_batch"`
	CurrPiece int    `json:"curr_piece"`
	NextBatch int    `json:"next_batch"`
	NextPiece int    `json:"next_piece"`
}

// DefaultSearchInfo is the paging state assumed when a response carries
// none: a single page with nothing after it.
func DefaultSearchInfo() SearchInfo {
	return SearchInfo{CurrBatch: 1, CurrPiece: 1, NextBatch: -1, NextPiece: 1}
}

// DomainInfo is Kagi's metadata about a result domain.
type DomainInfo struct {
	Domain           string `json:"domain"`
	FaviconURL       string `json:"favicon_url,omitempty"`
	DomainSecure     *bool  `json:"domain_secure,omitempty"`
	Trackers         any    `json:"trackers,omitempty"`
	RegistrationDate string `json:"registration_date,omitempty"`
	WebsiteSpeed     string `json:"website_speed,omitempty"`
	RuleType         string `json:"rule_type,omitempty"`
	Description      string `json:"description,omitempty"`
}
