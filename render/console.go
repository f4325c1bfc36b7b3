// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/kagi-cli/kagi/kagi"
	"github.com/kagi-cli/kagi/lib/htmltext"
	"github.com/kagi-cli/kagi/stream"
)

// console writes results for a person at a terminal.
type console struct {
	w       io.Writer
	styles  *lipgloss.Renderer
	profile termenv.Profile
	theme   *Theme
	width   int
	err     error
}

func newConsole(w io.Writer, options Options) *console {
	styles := lipgloss.NewRenderer(w, termenv.WithProfile(options.Profile))
	styles.SetColorProfile(options.Profile)
	return &console{
		w:       w,
		styles:  styles,
		profile: options.Profile,
		theme:   options.Theme,
		width:   options.Width,
	}
}

// line writes one output line. The first write error sticks and stops
// further output.
func (c *console) line(parts ...string) {
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, strings.Join(parts, "")+"\n")
}

func (c *console) bold(s string) string {
	return c.styles.NewStyle().Bold(true).Render(s)
}

func (c *console) faint(s string) string {
	return c.styles.NewStyle().Foreground(c.theme.FaintText).Render(s)
}

func (c *console) markdown(s string) string {
	return terminalMarkdown(s, c.styles, c.profile, c.theme, c.width-4)
}

// panel draws content in a rounded box with title above it.
func (c *console) panel(title, content string) {
	c.line(c.styles.NewStyle().Bold(true).Foreground(c.theme.Heading).Render(title))
	c.line(c.styles.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.theme.Border).
		Padding(0, 1).
		Width(c.width - 2).
		Render(content))
}

// table draws rows under header with title above it. The first column
// is bold.
func (c *console) table(title string, header []string, rows [][]string) {
	rendered := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(c.styles.NewStyle().Foreground(c.theme.Border)).
		StyleFunc(func(row, column int) lipgloss.Style {
			style := c.styles.NewStyle().Padding(0, 1)
			if row == table.HeaderRow || column == 0 {
				style = style.Bold(true)
			}
			return style
		}).
		Headers(header...).
		Rows(rows...).
		Render()
	if lipgloss.Width(rendered) > c.width {
		rendered = table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(c.styles.NewStyle().Foreground(c.theme.Border)).
			Headers(header...).
			Rows(rows...).
			Width(c.width).
			Render()
	}
	c.line(c.bold(title))
	c.line(rendered)
}

func (c *console) write(results []kagi.Result) error {
	switch results[0].Operation {
	case kagi.KindProofread:
		c.proofread(results[0])
	case kagi.KindSummarize:
		c.summary(results[0])
	case kagi.KindAsk:
		c.answer(results[0])
	default:
		for i, result := range results {
			if i > 0 {
				c.line()
			}
			c.search(result)
		}
	}
	return c.err
}

func (c *console) proofread(result kagi.Result) {
	analysis := result.Analysis
	if analysis == nil {
		c.line(result.Text)
		return
	}
	c.panel("Corrected Text", analysis.CorrectedText)
	c.line()
	if language := result.DetectedLanguage; language != nil && language.Label != "" {
		c.line(c.bold("Language: "), language.Label, c.faint(" ("+language.ISO+")"))
		c.line()
	}
	c.line(c.bold("Corrections: "), analysis.CorrectionsSummary)
	c.line()
	c.line(c.bold("Tone: "), analysis.Tone.Overall, " -- ", analysis.Tone.Description)
	c.line()
	c.table("Writing Statistics", []string{"Metric", "Value"}, statisticsRows(analysis.Statistics))
}

func (c *console) summary(result kagi.Result) {
	summary := result.Summary
	if summary == nil {
		c.line(c.markdown(result.Text))
		return
	}
	body := summary.Markdown
	if body == "" {
		body = result.Text
	}
	if summary.Title != "" {
		c.line(c.bold(summary.Title))
		c.line()
	}
	c.panel("Summary", c.markdown(body))
	c.line()
	c.table("Metadata", []string{"Field", "Value"}, metadataRows(summary))
}

// answer shows the model's thinking dimmed, then the answer as
// Markdown.
func (c *console) answer(result kagi.Result) {
	var thinking string
	answer := result.Text
	if message := result.Message; message != nil && message.Reply != "" {
		var answerHTML string
		thinking, answerHTML = htmltext.SplitThinking(message.Reply)
		if message.Markdown == "" && answerHTML != "" {
			answer = htmltext.ToMarkdown(answerHTML)
		}
	}
	if thinking = strings.TrimSpace(thinking); thinking != "" {
		c.line(c.faint(thinking))
		c.line()
	}
	if answer != "" {
		c.line(c.markdown(answer))
	}
	if result.Thread != nil && result.Thread.ID != "" {
		c.line()
		c.line(c.faint("thread " + result.Thread.ID))
	}
}

func (c *console) search(result kagi.Result) {
	search := result.Search
	if search == nil {
		c.line(result.Text)
		return
	}
	if len(search.Items) == 0 {
		c.panel("Search Results", strings.TrimSpace(result.Text))
		c.line()
	}
	link := c.styles.NewStyle().Foreground(c.theme.Link)
	for i, item := range search.Items {
		c.line(c.bold(fmt.Sprintf("%d. %s", i+1, item.Title)))
		c.line("   ", link.Render(item.URL))
		if item.ArchiveURL != "" {
			c.line("   ", c.faint("Archive: "+item.ArchiveURL))
		}
		if item.Description != "" {
			c.line("   ", item.Description)
		}
		if item.Date != "" {
			c.line("   ", c.faint(item.Date))
		}
		c.line()
	}
	c.line(c.bold("Share: "), search.Info.ShareURL)

	if len(search.Domains) > 0 {
		c.line()
		rows := make([][]string, 0, len(search.Domains))
		for _, domain := range search.Domains {
			rows = append(rows, domainRow(domain))
		}
		c.table("Domains", []string{"Domain", "Speed", "Trackers", "Secure", "Registered"}, rows)
	}
}

func domainRow(domain stream.DomainInfo) []string {
	trackers := ""
	if domain.Trackers != nil {
		trackers = fmt.Sprint(domain.Trackers)
	}
	secure := ""
	if domain.DomainSecure != nil {
		secure = "No"
		if *domain.DomainSecure {
			secure = "Yes"
		}
	}
	return []string{domain.Domain, domain.WebsiteSpeed, trackers, secure, domain.RegistrationDate}
}
