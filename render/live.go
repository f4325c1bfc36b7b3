// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// Messages delivered to the live model.
type (
	deltaMsg  string
	statusMsg struct {
		text  string
		level slog.Level
	}
	stopMsg struct{}
)

// liveModel is the bubbletea model behind Live.
type liveModel struct {
	spinner  spinner.Model
	styles   *lipgloss.Renderer
	theme    *Theme
	title    string
	width    int
	received int
	tail     string
	status   statusMsg
	stopped  bool
}

func newLiveModel(title string, styles *lipgloss.Renderer, theme *Theme) liveModel {
	return liveModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.NewStyle().Foreground(theme.Accent)),
		),
		styles: styles,
		theme:  theme,
		title:  title,
		width:  80,
	}
}

func (m liveModel) Init() tea.Cmd { return m.spinner.Tick }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case deltaMsg:
		m.received += len([]rune(string(msg)))
		m.tail = clip(m.tail + string(msg))
	case statusMsg:
		m.status = msg
	case stopMsg:
		m.stopped = true
		return m, tea.Quit
	}
	return m, nil
}

// View is empty once stopped so the final frame erases the view.
func (m liveModel) View() string {
	if m.stopped {
		return ""
	}
	faint := m.styles.NewStyle().Foreground(m.theme.FaintText)
	header := m.spinner.View() + " " + m.title
	if m.received > 0 {
		header += faint.Render(fmt.Sprintf(" %d characters", m.received))
	}
	lines := []string{header}
	if tail := lastLine(m.tail); tail != "" {
		lines = append(lines, faint.Render(ansi.Truncate(tail, max(m.width-2, 10), "…")))
	}
	if m.status.text != "" {
		color := m.theme.Warning
		if m.status.level >= slog.LevelError {
			color = m.theme.Error
		}
		lines = append(lines, m.styles.NewStyle().Foreground(color).
			Render(ansi.Truncate(m.status.text, max(m.width-2, 10), "…")))
	}
	return strings.Join(lines, "\n")
}

// clip keeps the end of the received text, enough for lastLine.
func clip(s string) string {
	if runes := []rune(s); len(runes) > 1024 {
		return string(runes[len(runes)-1024:])
	}
	return s
}

// lastLine is the last non-blank line of s, trimmed, keeping only what
// a terminal line could show.
func lastLine(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if index := strings.LastIndexByte(s, '\n'); index >= 0 {
		s = s[index+1:]
	}
	if runes := []rune(s); len(runes) > 512 {
		s = string(runes[len(runes)-512:])
	}
	return strings.TrimSpace(s)
}

// Live is a progress view drawn on a terminal while an operation
// streams. Its methods are safe to call from any goroutine.
type Live struct {
	program  *tea.Program
	finished chan struct{}
}

// StartLive starts drawing on output, which should be a terminal.
// It reads no input and installs no signal handlers.
func StartLive(output io.Writer, title string, profile termenv.Profile, theme *Theme) *Live {
	if theme == nil {
		theme = &DefaultTheme
	}
	styles := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	styles.SetColorProfile(profile)

	live := &Live{
		program: tea.NewProgram(newLiveModel(title, styles, theme),
			tea.WithOutput(output),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		finished: make(chan struct{}),
	}
	go func() {
		defer close(live.finished)
		live.program.Run()
	}()
	return live
}

// Delta reports newly received answer text.
func (l *Live) Delta(text string) { l.program.Send(deltaMsg(text)) }

// Status shows a one-line notice under the progress line.
func (l *Live) Status(text string, level slog.Level) {
	l.program.Send(statusMsg{text: text, level: level})
}

// Stop erases the view and waits for the terminal to be released.
func (l *Live) Stop() {
	l.program.Send(stopMsg{})
	<-l.finished
}
