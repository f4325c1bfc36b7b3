// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"iter"
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" hint.
const maxSuggestDistance = 3

// closest returns the candidate nearest to typed, or "" when none is
// within maxSuggestDistance. Ties go to the earlier candidate.
func closest(typed string, candidates iter.Seq[string]) string {
	best, bestDistance := "", maxSuggestDistance+1
	for candidate := range candidates {
		if distance := levenshtein(typed, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

func suggestCommand(unknown string, commands []*Command) string {
	return closest(unknown, func(yield func(string) bool) {
		for _, command := range commands {
			if !command.Hidden && !yield(command.Name) {
				return
			}
		}
	})
}

// suggestFlag looks at the first unknown long flag in args and returns
// the nearest defined one as "--name".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		name, long := strings.CutPrefix(arg, "--")
		if !long {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		var names []string
		flagSet.VisitAll(func(flag *pflag.Flag) { names = append(names, flag.Name) })
		suggestion := closest(name, func(yield func(string) bool) {
			for _, candidate := range names {
				if !yield(candidate) {
					return
				}
			}
		})
		if suggestion == "" {
			return ""
		}
		return "--" + suggestion
	}
	return ""
}

// levenshtein is the byte-wise edit distance between a and b, computed
// with a single rolling row.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}
	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := diagonal
			if a[i-1] != b[j-1] {
				substitution++
			}
			diagonal = row[i]
			row[i] = min(row[i]+1, row[i-1]+1, substitution)
		}
	}
	return row[len(a)]
}
