// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"slices"

	"github.com/muesli/termenv"

	"github.com/kagi-cli/kagi/kagi"
	"github.com/kagi-cli/kagi/lib/fault"
)

// Format names an output format.
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
)

// Formats lists every Format in flag-help order.
var Formats = []Format{FormatConsole, FormatJSON, FormatMarkdown, FormatCSV}

// ParseFormat validates a --format value.
func ParseFormat(value string) (Format, error) {
	format := Format(value)
	if !slices.Contains(Formats, format) {
		return "", fault.Validation("unknown output format %q (want console, json, md or csv)", value)
	}
	return format, nil
}

// Options configure Write.
type Options struct {
	Format Format

	// Width is the console wrap width. Defaults to 80.
	Width int

	// Profile is the console color profile. The zero value is
	// TrueColor; pass termenv.Ascii for plain text.
	Profile termenv.Profile

	// Theme defaults to DefaultTheme.
	Theme *Theme
}

// Write formats results to w.
func Write(w io.Writer, results []kagi.Result, options Options) error {
	if len(results) == 0 {
		return nil
	}
	kind := results[0].Operation
	for _, result := range results[1:] {
		if result.Operation != kind {
			return fmt.Errorf("render: mixed operations %s and %s", kind, result.Operation)
		}
	}
	if options.Width <= 0 {
		options.Width = 80
	}
	if options.Theme == nil {
		options.Theme = &DefaultTheme
	}

	switch options.Format {
	case FormatJSON:
		return writeJSON(w, results)
	case FormatMarkdown:
		_, err := io.WriteString(w, markdownDocument(results))
		return err
	case FormatCSV:
		return writeCSV(w, results)
	case FormatConsole, "":
		return newConsole(w, options).write(results)
	default:
		return fmt.Errorf("render: unknown format %q", options.Format)
	}
}
