// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	var document struct {
		Token string `json:"token"`
	}
	if err := DecodeResponse(strings.NewReader(`{"token":"abc"}`), &document); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if document.Token != "abc" {
		t.Errorf("Token = %q, want abc", document.Token)
	}

	err := DecodeResponse(strings.NewReader(`{"token":`), &document)
	var readError *ReadError
	if err == nil || errors.As(err, &readError) {
		t.Errorf("malformed document err = %v, want a decode error", err)
	}

	broken := errors.New("connection reset")
	err = DecodeResponse(iotest.ErrReader(broken), &document)
	if !errors.As(err, &readError) || !errors.Is(err, broken) {
		t.Errorf("read failure err = %v, want a *ReadError wrapping the cause", err)
	}
}

func TestReadResponseLimit(t *testing.T) {
	t.Parallel()

	oversized := io.LimitReader(zeros{}, MaxResponseSize+1)
	if _, err := ReadResponse(oversized); err == nil {
		t.Error("ReadResponse accepted a body over the limit")
	}
	if got := ErrorBody(strings.NewReader("  quota exceeded \n")); got != "quota exceeded" {
		t.Errorf("ErrorBody = %q, want quota exceeded", got)
	}
}

type zeros struct{}

func (zeros) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
