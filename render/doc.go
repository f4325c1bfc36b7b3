// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package render writes operation results for people and for programs.
//
// [Write] formats a slice of kagi.Result in one of four [Format]s:
//
//   - console -- lipgloss panels and tables with Markdown rendered for
//     the terminal (goldmark, chroma highlighting)
//   - json -- the Result itself, indented
//   - md -- a Markdown document
//   - csv -- one row per metric, field or search item
//
// Every Result in one call must be of the same operation. Only search
// produces more than one (one per page).
//
// [Live] is the progress view shown on stderr while an operation
// streams: a spinner, the operation name, and the tail of the text
// received so far. [LiveLogHandler] routes log records into it so they
// do not tear the view.
package render
