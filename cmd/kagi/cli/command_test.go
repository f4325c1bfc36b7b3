// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/kagi-cli/kagi/lib/fault"
)

type searchParams struct {
	CommonParams
	All   bool `flag:"all,a" desc:"follow every page"`
	Batch int  `flag:"batch" desc:"first page" default:"1"`
}

func testTree(t *testing.T, called *string, received *[]string) (*Command, *searchParams) {
	t.Helper()
	var params searchParams
	run := func(name string) func(context.Context, []string, *slog.Logger) error {
		return func(_ context.Context, args []string, logger *slog.Logger) error {
			if logger == nil {
				t.Error("Run received a nil logger")
			}
			*called = name
			*received = args
			return nil
		}
	}
	root := &Command{
		Name:   "kagi",
		Stderr: &bytes.Buffer{},
		Subcommands: []*Command{
			{Name: "search", Summary: "Search the web", Params: func() any { return &params }, Run: run("search")},
			{Name: "summarize", Summary: "Summarize a page", Run: run("summarize")},
			{Name: "debug", Hidden: true, Run: run("debug")},
		},
	}
	return root, &params
}

func TestExecuteDispatches(t *testing.T) {
	t.Parallel()

	var called string
	var args []string
	root, params := testTree(t, &called, &args)

	if err := root.Execute(context.Background(), []string{"search", "golang", "-a", "--format", "json", "generics"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "search" {
		t.Errorf("dispatched to %q, want search", called)
	}
	if strings.Join(args, " ") != "golang generics" {
		t.Errorf("args = %q, want [golang generics]", args)
	}
	if !params.All || params.Batch != 1 || params.Format != "json" || params.Live != LiveAuto {
		t.Errorf("params = %+v", *params)
	}
}

func TestExecuteLiveFlagOptionalValue(t *testing.T) {
	t.Parallel()

	var called string
	var args []string
	root, params := testTree(t, &called, &args)
	if err := root.Execute(context.Background(), []string{"search", "--live", "q"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if params.Live != LiveOn || strings.Join(args, " ") != "q" {
		t.Errorf("live = %q, args = %q", params.Live, args)
	}
}

func TestExecuteUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"serch"}, `did you mean "search"?`},
		{"far from everything", []string{"xyzzyplugh"}, `unknown command "xyzzyplugh"`},
		{"hidden command not suggested", []string{"debgu"}, `unknown command "debgu"`},
		{"unknown flag", []string{"search", "--bach", "2"}, "did you mean --batch?"},
		{"bad value", []string{"search", "--batch", "two"}, "invalid argument"},
		{"missing command", nil, "a command is required"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var called string
			var args []string
			root, _ := testTree(t, &called, &args)
			err := root.Execute(context.Background(), test.args)
			if !fault.Is(err, fault.KindValidation) {
				t.Fatalf("Execute(%q) = %v, want a validation fault", test.args, err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not contain %q", err, test.want)
			}
			if test.name == "hidden command not suggested" && strings.Contains(err.Error(), "did you mean") {
				t.Errorf("hidden command suggested: %v", err)
			}
			if called != "" {
				t.Errorf("Run called for %q", test.args)
			}
		})
	}
}

func TestPrintHelp(t *testing.T) {
	t.Parallel()

	var called string
	var args []string
	root, _ := testTree(t, &called, &args)
	if err := root.Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("Execute(--help): %v", err)
	}
	help := root.Stderr.(*bytes.Buffer).String()
	for _, want := range []string{"Usage:\n  kagi <command> [flags]", "search", "Summarize a page"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
	if strings.Contains(help, "debug") {
		t.Errorf("help lists a hidden command:\n%s", help)
	}

	root.Stderr.(*bytes.Buffer).Reset()
	if err := root.Execute(context.Background(), []string{"search", "-h"}); err != nil {
		t.Fatalf("Execute(search -h): %v", err)
	}
	help = root.Stderr.(*bytes.Buffer).String()
	for _, want := range []string{"Usage:\n  kagi search [flags]", "-F, --format", "-a, --all", "--live string[=\"on\"]"} {
		if !strings.Contains(help, want) {
			t.Errorf("search help missing %q:\n%s", want, help)
		}
	}
	if called != "" {
		t.Errorf("help ran %q", called)
	}
}

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"search", "search", 0},
		{"serch", "search", 1},
		{"summarise", "summarize", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
