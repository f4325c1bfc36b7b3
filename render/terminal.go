// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kagi-cli/kagi/lib/htmltext"
)

// wrapBreakpoints are the characters, besides spaces, after which a
// long line may be broken.
const wrapBreakpoints = " ,.;-+|"

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func parser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// terminalMarkdown renders Markdown as styled text of at most width
// columns. Soft line breaks become spaces so hard-wrapped answers
// reflow to the terminal.
func terminalMarkdown(input string, styles *lipgloss.Renderer, profile termenv.Profile, theme *Theme, width int) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	walker := &markdownWalker{
		source:  source,
		styles:  styles,
		profile: profile,
		theme:   theme,
		width:   width,
	}
	ast.Walk(document, walker.walk)
	return strings.TrimRight(walker.out.String(), "\n")
}

// markdownWalker accumulates inline content per block and wraps it
// when the block closes. Block containers (quotes, list items) push a
// prefix that is written before every line they contain.
type markdownWalker struct {
	source  []byte
	styles  *lipgloss.Renderer
	profile termenv.Profile
	theme   *Theme
	width   int

	out      strings.Builder
	newlines int // trailing newlines in out
	inline   strings.Builder

	prefixes []string
	bullet   string // replaces the prefix on the next line only
	lists    []listLevel

	bold, italic, struck int
}

type listLevel struct {
	ordered bool
	next    int
	tight   bool
}

func (m *markdownWalker) style() lipgloss.Style { return m.styles.NewStyle() }

func (m *markdownWalker) prefix() string { return strings.Join(m.prefixes, "") }

func (m *markdownWalker) available() int {
	return max(m.width-ansi.StringWidth(m.prefix()), 10)
}

func (m *markdownWalker) tight() bool {
	return len(m.lists) > 0 && m.lists[len(m.lists)-1].tight
}

func (m *markdownWalker) write(s string) {
	if s == "" {
		return
	}
	m.out.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		m.newlines += len(s)
	} else {
		m.newlines = len(s) - len(trimmed)
	}
}

// breakLines ensures at least n newlines end the output, never at its
// start.
func (m *markdownWalker) breakLines(n int) {
	if m.out.Len() == 0 {
		return
	}
	for m.newlines < n {
		m.write("\n")
	}
}

// block writes content line by line under the current prefixes.
func (m *markdownWalker) block(content string) {
	prefix := m.prefix()
	for i, line := range strings.Split(content, "\n") {
		if i == 0 && m.bullet != "" {
			m.write(m.bullet + line + "\n")
			m.bullet = ""
			continue
		}
		m.write(prefix + line + "\n")
	}
}

func (m *markdownWalker) flush() {
	content := m.inline.String()
	m.inline.Reset()
	if content == "" {
		return
	}
	m.block(ansi.Wrap(content, m.available(), wrapBreakpoints))
	if !m.tight() {
		m.breakLines(2)
	}
}

func (m *markdownWalker) styled(content string) string {
	style := m.style().Foreground(m.theme.NormalText)
	if m.bold > 0 {
		style = style.Bold(true)
	}
	if m.italic > 0 {
		style = style.Italic(true)
	}
	if m.struck > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// inlineOf renders node's children into a string without disturbing
// the enclosing block's buffer.
func (m *markdownWalker) inlineOf(node ast.Node) string {
	saved := m.inline.String()
	m.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, m.walk)
	}
	content := m.inline.String()
	m.inline.Reset()
	m.inline.WriteString(saved)
	return content
}

func (m *markdownWalker) lines(node ast.Node) string {
	var builder strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		builder.Write(segment.Value(m.source))
	}
	return builder.String()
}

// highlight colors code with chroma in the output's color depth. Plain
// output and unknown languages fall back to faint text.
func (m *markdownWalker) highlight(code, language string) string {
	faint := m.style().Foreground(m.theme.FaintText)
	formatter := map[termenv.Profile]string{
		termenv.TrueColor: "terminal16m",
		termenv.ANSI256:   "terminal256",
		termenv.ANSI:      "terminal16",
	}[m.profile]
	if language == "" || formatter == "" {
		return faint.Render(code)
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, code, language, formatter, "monokai"); err != nil {
		return faint.Render(code)
	}
	return highlighted.String()
}

func (m *markdownWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			m.inline.Reset()
		} else {
			m.flush()
			m.breakLines(1)
		}

	case *ast.Heading:
		if entering {
			m.inline.Reset()
			return ast.WalkContinue, nil
		}
		content := ansi.Strip(m.inline.String())
		m.inline.Reset()
		style := m.style().Bold(true).Foreground(m.theme.NormalText)
		if node.Level <= 2 {
			style = style.Foreground(m.theme.Heading).Underline(node.Level == 1)
		}
		m.breakLines(2)
		m.block(ansi.Wrap(style.Render(content), m.available(), wrapBreakpoints))
		m.breakLines(2)

	case *ast.FencedCodeBlock:
		if entering {
			code := m.highlight(m.lines(node), string(node.Language(m.source)))
			m.breakLines(2)
			m.block(strings.TrimRight(code, "\n"))
			m.breakLines(2)
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			m.breakLines(2)
			m.block(m.style().Foreground(m.theme.FaintText).Render(strings.TrimRight(m.lines(node), "\n")))
			m.breakLines(2)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			m.prefixes = append(m.prefixes, m.style().Foreground(m.theme.Border).Render("│")+" ")
		} else {
			m.prefixes = m.prefixes[:len(m.prefixes)-1]
			m.breakLines(2)
		}

	case *ast.List:
		if entering {
			m.lists = append(m.lists, listLevel{ordered: node.IsOrdered(), next: node.Start, tight: node.IsTight})
		} else {
			m.lists = m.lists[:len(m.lists)-1]
			if !m.tight() {
				m.breakLines(2)
			}
		}

	case *ast.ListItem:
		if len(m.lists) == 0 {
			break
		}
		if entering {
			level := &m.lists[len(m.lists)-1]
			marker := "• "
			if level.ordered {
				marker = fmt.Sprintf("%d. ", level.next)
				level.next++
			}
			m.bullet = m.prefix() + m.style().Foreground(m.theme.Accent).Render(marker)
			m.prefixes = append(m.prefixes, strings.Repeat(" ", ansi.StringWidth(marker)))
		} else {
			m.prefixes = m.prefixes[:len(m.prefixes)-1]
			if m.tight() {
				m.breakLines(1)
			} else {
				m.breakLines(2)
			}
		}

	case *ast.ThematicBreak:
		if entering {
			m.breakLines(2)
			m.block(m.style().Foreground(m.theme.Border).Render(strings.Repeat("─", m.available())))
			m.breakLines(2)
		}

	case *ast.HTMLBlock:
		if entering {
			if stripped := strings.TrimSpace(htmltext.Strip(m.lines(node))); stripped != "" {
				m.block(m.style().Foreground(m.theme.FaintText).Render(stripped))
				m.breakLines(2)
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			m.inline.WriteString(m.styled(string(node.Segment.Value(m.source))))
			switch {
			case node.HardLineBreak():
				m.inline.WriteString("\n")
			case node.SoftLineBreak():
				m.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			m.inline.WriteString(m.styled(string(node.Value)))
		}

	case *ast.Emphasis:
		counter := &m.italic
		if node.Level >= 2 {
			counter = &m.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case *ast.CodeSpan:
		if entering {
			code := ansi.Strip(m.inlineOf(node))
			m.inline.WriteString(m.style().Foreground(m.theme.Accent).Render(code))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			m.inline.WriteString(m.inlineOf(node))
			if destination := string(node.Destination); destination != "" {
				m.inline.WriteString(" " + m.style().Foreground(m.theme.Link).Render("("+destination+")"))
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			m.inline.WriteString(m.style().Foreground(m.theme.Link).Render(string(node.URL(m.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			faint := m.style().Foreground(m.theme.FaintText)
			m.inline.WriteString(faint.Render("[" + ansi.Strip(m.inlineOf(node)) + "]"))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var raw strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				raw.Write(segment.Value(m.source))
			}
			if stripped := htmltext.Strip(raw.String()); stripped != "" {
				m.inline.WriteString(m.style().Foreground(m.theme.FaintText).Render(stripped))
			}
		}

	case *extast.Strikethrough:
		if entering {
			m.struck++
		} else {
			m.struck--
		}

	case *extast.TaskCheckBox:
		if entering {
			box := "[ ] "
			if node.IsChecked {
				box = "[x] "
			}
			m.inline.WriteString(m.styled(box))
		}

	case *extast.Table:
		if entering {
			m.table(node)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// table renders a GFM table with lipgloss/table, sized to the
// available width.
func (m *markdownWalker) table(node *extast.Table) {
	var header []string
	var rows [][]string
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, m.inlineOf(cell))
		}
		if _, isHeader := child.(*extast.TableHeader); isHeader {
			header = cells
		} else {
			rows = append(rows, cells)
		}
	}

	rendered := m.newTable(header, rows).Render()
	if lipgloss.Width(rendered) > m.available() {
		rendered = m.newTable(header, rows).Width(m.available()).Render()
	}
	m.breakLines(2)
	m.block(rendered)
	m.breakLines(2)
}

func (m *markdownWalker) newTable(header []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.style().Foreground(m.theme.Border)).
		StyleFunc(func(row, column int) lipgloss.Style {
			if row == table.HeaderRow {
				return m.style().Bold(true).Padding(0, 1)
			}
			return m.style().Padding(0, 1)
		}).
		Headers(header...).
		Rows(rows...)
}
