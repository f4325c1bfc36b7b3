// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"strings"

	"github.com/kagi-cli/kagi/kagi"
	"github.com/kagi-cli/kagi/stream"
)

// markdownDocument renders results as a Markdown document ending in a
// newline. An empty answer renders as nothing.
func markdownDocument(results []kagi.Result) string {
	switch results[0].Operation {
	case kagi.KindProofread:
		return proofreadMarkdown(results[0])
	case kagi.KindSummarize:
		return summaryMarkdown(results[0])
	case kagi.KindAsk:
		if results[0].Text == "" {
			return ""
		}
		return results[0].Text + "\n"
	default:
		return searchMarkdown(results)
	}
}

func proofreadMarkdown(result kagi.Result) string {
	analysis := result.Analysis
	if analysis == nil {
		return result.Text + "\n"
	}
	stats := analysis.Statistics
	parts := []string{
		"## Corrected Text\n\n" + analysis.CorrectedText,
		"## Corrections\n\n" + analysis.CorrectionsSummary,
		fmt.Sprintf("## Tone\n\n**%s** -- %s", analysis.Tone.Overall, analysis.Tone.Description),
		markdownTable("## Writing Statistics", []string{"Metric", "Value"}, statisticsRows(stats)),
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// statisticsRows are the writing statistics shown by every human
// format.
func statisticsRows(stats stream.WritingStatistics) [][]string {
	return [][]string{
		{"Word Count", fmt.Sprint(stats.WordCount)},
		{"Character Count", fmt.Sprint(stats.CharacterCount)},
		{"Sentences", fmt.Sprint(stats.SentenceCount)},
		{"Paragraphs", fmt.Sprint(stats.ParagraphCount)},
		{"Avg Words/Sentence", fmt.Sprintf("%.1f", stats.AverageWordsPerSentence)},
		{"Vocabulary Diversity", fmt.Sprintf("%.2f", stats.VocabularyDiversity)},
		{"Reading Level", stats.ReadingLevel},
		{"Readability Score", fmt.Sprintf("%.1f", stats.ReadabilityScore)},
		{"Reading Time", fmt.Sprintf("%.1f min", stats.ReadingTimeMinutes)},
	}
}

func summaryMarkdown(result kagi.Result) string {
	summary := result.Summary
	if summary == nil {
		return result.Text + "\n"
	}
	body := summary.Markdown
	if body == "" {
		body = result.Text
	}
	parts := []string{
		"# " + summary.Title,
		body,
		markdownTable("## Metadata", []string{"Field", "Value"}, metadataRows(summary)),
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// metadataRows describe the summarizer run. Speed and elapsed time
// appear only when reported.
func metadataRows(summary *stream.Summary) [][]string {
	metadata := summary.Metadata
	rows := [][]string{{"Model", metadata.Model}}
	if metadata.Speed != nil {
		rows = append(rows, []string{"Speed", fmt.Sprintf("%.1f tok/s", *metadata.Speed)})
	}
	rows = append(rows,
		[]string{"Tokens", fmt.Sprint(metadata.Tokens)},
		[]string{"Cost", fmt.Sprintf("$%.4f", metadata.Cost)},
	)
	if summary.ElapsedSeconds != nil {
		rows = append(rows, []string{"Elapsed", fmt.Sprintf("%.1fs", *summary.ElapsedSeconds)})
	}
	return append(rows,
		[]string{"Source Words", fmt.Sprint(summary.WordStats.Words)},
		[]string{"Source Pages", fmt.Sprint(summary.WordStats.Pages)},
		[]string{"Time Saved", fmt.Sprintf("%ss", formatNumber(summary.WordStats.TimeSaved))},
	)
}

func searchMarkdown(results []kagi.Result) string {
	var lines []string
	for _, result := range results {
		search := result.Search
		if search == nil {
			continue
		}
		for i, item := range search.Items {
			lines = append(lines, fmt.Sprintf("### %d. [%s](%s)", i+1, item.Title, item.URL))
			if item.Description != "" {
				lines = append(lines, item.Description)
			}
			if item.ArchiveURL != "" {
				lines = append(lines, fmt.Sprintf("[Archive](%s)", item.ArchiveURL))
			}
			if item.Date != "" {
				lines = append(lines, "*"+item.Date+"*")
			}
			lines = append(lines, "")
		}
		lines = append(lines, "**Share:** "+search.Info.ShareURL)
	}
	return strings.Join(lines, "\n") + "\n"
}

// markdownTable renders a GFM table under heading. Pipes in cells are
// escaped.
func markdownTable(heading string, header []string, rows [][]string) string {
	var builder strings.Builder
	builder.WriteString(heading + "\n\n")
	builder.WriteString("| " + strings.Join(header, " | ") + " |\n")
	separators := make([]string, len(header))
	for i, column := range header {
		separators[i] = strings.Repeat("-", len(column)+2)
	}
	builder.WriteString("|" + strings.Join(separators, "|") + "|")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		builder.WriteString("\n| " + strings.Join(cells, " | ") + " |")
	}
	return builder.String()
}

// formatNumber prints whole numbers without a fraction.
func formatNumber(value float64) string {
	if value == float64(int64(value)) {
		return fmt.Sprint(int64(value))
	}
	return fmt.Sprintf("%g", value)
}
