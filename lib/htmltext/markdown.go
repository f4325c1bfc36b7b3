// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package htmltext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToMarkdown converts an HTML fragment to Markdown. It understands the
// handful of elements assistant replies use: paragraphs, headings,
// lists, emphasis, line breaks, inline code and fenced code blocks
// (with the language taken from a "language-" class). Other tags are
// dropped and their text kept.
func ToMarkdown(fragment string) string {
	converter := markdownWriter{}
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			if tokenizer.Err() != io.EOF {
				converter.text(string(tokenizer.Raw()))
			}
			break
		}
		token := tokenizer.Token()
		switch tokenType {
		case html.StartTagToken:
			converter.start(token)
		case html.SelfClosingTagToken:
			converter.start(token)
			converter.end(token.DataAtom)
		case html.EndTagToken:
			converter.end(token.DataAtom)
		case html.TextToken:
			converter.text(token.Data)
		}
	}
	return strings.TrimSpace(converter.output.String())
}

type markdownWriter struct {
	output strings.Builder

	inPre       bool
	inCodeBlock bool
	// blockClosed suppresses the whitespace-only text between block
	// elements.
	blockClosed bool
}

func (w *markdownWriter) endsWith(suffix string) bool {
	return strings.HasSuffix(w.output.String(), suffix)
}

// blankLine separates block elements by exactly one empty line.
func (w *markdownWriter) blankLine() {
	if w.output.Len() == 0 || w.endsWith("\n\n") {
		return
	}
	if w.endsWith("\n") {
		w.output.WriteString("\n")
	} else {
		w.output.WriteString("\n\n")
	}
}

func (w *markdownWriter) start(token html.Token) {
	w.blockClosed = false
	switch token.DataAtom {
	case atom.Pre:
		w.inPre = true
		w.blankLine()
	case atom.Code:
		if !w.inPre {
			w.output.WriteString("`")
			return
		}
		w.inCodeBlock = true
		language := ""
		for _, attribute := range token.Attr {
			if attribute.Key == "class" {
				if rest, ok := strings.CutPrefix(attribute.Val, "language-"); ok {
					language = rest
				}
			}
		}
		w.output.WriteString("```" + language + "\n")
	case atom.P:
		if !w.inPre {
			w.blankLine()
		}
	case atom.Br:
		w.output.WriteString("\n")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.blankLine()
		w.output.WriteString(strings.Repeat("#", headingLevel(token.DataAtom)) + " ")
	case atom.Li:
		if w.output.Len() > 0 && !w.endsWith("\n") {
			w.output.WriteString("\n")
		}
		w.output.WriteString("- ")
	case atom.Strong, atom.B:
		w.output.WriteString("**")
	case atom.Em, atom.I:
		w.output.WriteString("*")
	}
}

func (w *markdownWriter) end(tag atom.Atom) {
	switch tag {
	case atom.Code:
		if !w.inCodeBlock {
			if !w.inPre {
				w.output.WriteString("`")
			}
			return
		}
		w.inCodeBlock = false
		if w.output.Len() > 0 && !w.endsWith("\n") {
			w.output.WriteString("\n")
		}
		w.output.WriteString("```\n")
		w.blockClosed = true
	case atom.Pre:
		w.inPre = false
	case atom.Strong, atom.B:
		w.output.WriteString("**")
	case atom.Em, atom.I:
		w.output.WriteString("*")
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.blockClosed = true
	}
}

func (w *markdownWriter) text(data string) {
	switch {
	case w.inCodeBlock:
		w.output.WriteString(data)
	case w.blockClosed && strings.TrimSpace(data) == "":
	default:
		w.blockClosed = false
		w.output.WriteString(data)
	}
}

func headingLevel(tag atom.Atom) int {
	switch tag {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	default:
		return 6
	}
}
