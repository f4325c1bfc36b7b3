// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/kagi-cli/kagi/lib/fault"
)

// Exit codes by fault kind. Unclassified errors exit 1.
const (
	ExitFailure    = 1
	ExitValidation = 2
	ExitAuth       = 3
	ExitNetwork    = 4
	ExitStream     = 5
	ExitCancelled  = 130
)

// ExitError requests an exit code without printing anything further;
// the command has already reported the failure itself.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps err to the process exit code: 0 for nil, an
// [ExitError]'s own code, otherwise the code for its fault kind.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return ExitValidation
	case fault.KindAuth:
		return ExitAuth
	case fault.KindNetwork:
		return ExitNetwork
	case fault.KindStream:
		return ExitStream
	case fault.KindCancelled:
		return ExitCancelled
	default:
		return ExitFailure
	}
}
