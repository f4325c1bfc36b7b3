// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kagi-cli/kagi/kagi"
)

func writeCSV(w io.Writer, results []kagi.Result) error {
	header, rows := csvRows(results)
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func csvRows(results []kagi.Result) ([]string, [][]string) {
	result := results[0]
	switch result.Operation {
	case kagi.KindProofread:
		analysis := result.Analysis
		if analysis == nil {
			return []string{"text"}, [][]string{{result.Text}}
		}
		stats := analysis.Statistics
		return []string{"metric", "value"}, [][]string{
			{"corrected_text", analysis.CorrectedText},
			{"corrections_summary", analysis.CorrectionsSummary},
			{"tone", analysis.Tone.Overall + ": " + analysis.Tone.Description},
			{"word_count", fmt.Sprint(stats.WordCount)},
			{"character_count", fmt.Sprint(stats.CharacterCount)},
			{"sentence_count", fmt.Sprint(stats.SentenceCount)},
			{"paragraph_count", fmt.Sprint(stats.ParagraphCount)},
			{"avg_words_per_sentence", fmt.Sprintf("%.1f", stats.AverageWordsPerSentence)},
			{"vocabulary_diversity", fmt.Sprintf("%.2f", stats.VocabularyDiversity)},
			{"reading_level", stats.ReadingLevel},
			{"readability_score", fmt.Sprintf("%.1f", stats.ReadabilityScore)},
			{"reading_time_minutes", fmt.Sprintf("%.1f", stats.ReadingTimeMinutes)},
		}

	case kagi.KindSummarize:
		summary := result.Summary
		if summary == nil {
			return []string{"field", "value"}, [][]string{{"summary", result.Text}}
		}
		metadata := summary.Metadata
		body := summary.Markdown
		if body == "" {
			body = result.Text
		}
		rows := [][]string{
			{"title", summary.Title},
			{"summary", body},
			{"model", metadata.Model},
			{"tokens", fmt.Sprint(metadata.Tokens)},
			{"cost", fmt.Sprintf("%.4f", metadata.Cost)},
			{"source_words", fmt.Sprint(summary.WordStats.Words)},
			{"source_pages", fmt.Sprint(summary.WordStats.Pages)},
			{"time_saved", formatNumber(summary.WordStats.TimeSaved)},
		}
		if metadata.Speed != nil {
			rows = append(rows, []string{"speed", fmt.Sprintf("%.1f", *metadata.Speed)})
		}
		if summary.ElapsedSeconds != nil {
			rows = append(rows, []string{"elapsed_seconds", fmt.Sprintf("%.1f", *summary.ElapsedSeconds)})
		}
		return []string{"field", "value"}, rows

	case kagi.KindAsk:
		var threadID, messageID, prompt string
		if result.Thread != nil {
			threadID = result.Thread.ID
		}
		if result.Message != nil {
			messageID = result.Message.ID
			prompt = result.Message.Prompt
		}
		return []string{"thread_id", "message_id", "prompt", "response"},
			[][]string{{threadID, messageID, prompt, result.Text}}

	default:
		var rows [][]string
		for _, page := range results {
			if page.Search == nil {
				continue
			}
			for _, item := range page.Search.Items {
				rows = append(rows, []string{item.Title, item.URL, item.Description, item.ArchiveURL, item.Date})
			}
		}
		return []string{"title", "url", "description", "archive_url", "date"}, rows
	}
}
