// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmltext turns the HTML fragments Kagi returns (assistant
// replies, search results) into plain text or Markdown.
//
// The conversions are lenient: malformed markup never fails, it just
// yields whatever text the tokenizer recovers.
package htmltext
