// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/kagi-cli/kagi/lib/fault"
)

// maxInput bounds text read from stdin.
const maxInput = 1 << 20

// readInput joins the positional arguments, or reads stdin when the
// only argument is "-".
func readInput(args []string, stdin io.Reader, what string) (string, error) {
	if len(args) == 0 {
		return "", fault.Validation("%s is required (pass it as arguments, or - to read stdin)", what)
	}
	if len(args) == 1 && args[0] == "-" {
		if stdin == nil {
			return "", fault.Validation("no stdin to read %s from", what)
		}
		data, err := io.ReadAll(io.LimitReader(stdin, maxInput+1))
		if err != nil {
			return "", fmt.Errorf("reading %s from stdin: %w", what, err)
		}
		if len(data) > maxInput {
			return "", fault.Validation("%s on stdin is larger than %d bytes", what, maxInput)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return strings.Join(args, " "), nil
}

// firstNonEmpty returns the first value that is not empty.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
