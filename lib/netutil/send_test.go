// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kagi-cli/kagi/lib/clock"
	"github.com/kagi-cli/kagi/lib/fault"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSendReturnsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		io.WriteString(writer, "ok")
	}))
	defer server.Close()

	request, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	exchange, err := Send(context.Background(), server.Client(), request, Watchdog{Clock: clock.Real(), FirstByte: time.Minute})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	defer exchange.Close()

	body, _ := io.ReadAll(exchange.Response.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", body, "ok")
	}
}

func TestSendFirstByteTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		<-request.Context().Done()
	}))
	defer server.Close()

	fake := clock.Fake(epoch)
	request, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	result := make(chan error, 1)
	go func() {
		exchange, err := Send(context.Background(), server.Client(), request, Watchdog{Clock: fake, FirstByte: 10 * time.Second})
		if exchange != nil {
			exchange.Close()
		}
		result <- err
	}()

	fake.WaitForTimers(1)
	fake.Advance(10 * time.Second)

	err := <-result
	if !fault.Is(err, fault.KindNetwork) {
		t.Fatalf("err = %v, want a network fault", err)
	}
	if !errors.Is(err, ErrFirstByteTimeout) {
		t.Errorf("err = %v, want it to wrap ErrFirstByteTimeout", err)
	}
}

func TestSendCallerCancel(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		close(started)
		<-request.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	request, _ := http.NewRequest(http.MethodGet, server.URL, nil)

	result := make(chan error, 1)
	go func() {
		_, err := Send(ctx, server.Client(), request, Watchdog{})
		result <- err
	}()

	<-started
	cancel()
	if err := <-result; !fault.Is(err, fault.KindCancelled) {
		t.Errorf("err = %v, want a cancelled fault", err)
	}
}

func TestExchangeAbortDuringBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
		writer.(http.Flusher).Flush()
		<-request.Context().Done()
	}))
	defer server.Close()

	request, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	exchange, err := Send(context.Background(), server.Client(), request, Watchdog{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	defer exchange.Close()

	stalled := errors.New("stalled")
	exchange.Abort(stalled)
	_, readErr := io.ReadAll(exchange.Response.Body)
	if readErr == nil {
		t.Fatal("body read succeeded after Abort")
	}
	classified := exchange.Classify(readErr, "read")
	if !fault.Is(classified, fault.KindNetwork) || !errors.Is(classified, stalled) {
		t.Errorf("Classify = %v, want a network fault wrapping the abort cause", classified)
	}
}

func TestReadResponseLimitSend(t *testing.T) {
	t.Parallel()

	oversized := strings.NewReader(strings.Repeat("x", int(MaxResponseSize)+1))
	if _, err := ReadResponse(oversized); err == nil {
		t.Error("ReadResponse accepted a body over the limit")
	}
}

func TestErrorBodyTrims(t *testing.T) {
	t.Parallel()

	if got := ErrorBody(strings.NewReader("  unauthorized\n")); got != "unauthorized" {
		t.Errorf("ErrorBody = %q, want %q", got, "unauthorized")
	}
}
