// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"io"

	"github.com/kagi-cli/kagi/kagi"
)

// writeJSON writes one object, or an array when search returned
// several pages. Markup in search results is written unescaped.
func writeJSON(w io.Writer, results []kagi.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if len(results) == 1 {
		return encoder.Encode(results[0])
	}
	return encoder.Encode(results)
}
