// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import "github.com/charmbracelet/lipgloss"

// Theme is the console palette. Colors are ANSI 256 codes; lipgloss
// degrades them to the output's profile.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Heading    lipgloss.Color
	Border     lipgloss.Color
	Link       lipgloss.Color
	Accent     lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme suits a dark terminal.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Heading:    lipgloss.Color("255"),
	Border:     lipgloss.Color("240"),
	Link:       lipgloss.Color("75"),
	Accent:     lipgloss.Color("214"),
	Warning:    lipgloss.Color("220"),
	Error:      lipgloss.Color("196"),
}
