// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kagi-cli/kagi/lib/clock"
	"github.com/kagi-cli/kagi/lib/fault"
)

// ErrFirstByteTimeout is the cause recorded when no response headers
// arrive within the time-to-first-byte bound.
var ErrFirstByteTimeout = errors.New("no response within the time-to-first-byte timeout")

// Watchdog bounds the wait for response headers. A zero FirstByte
// disables it.
type Watchdog struct {
	Clock     clock.Clock
	FirstByte time.Duration
}

// Exchange is an in-flight HTTP exchange whose body may still be
// streaming. The request context belongs to the Exchange: Abort cancels
// it with a cause, Close releases it.
type Exchange struct {
	Response *http.Response

	parent  context.Context
	request context.Context
	cancel  context.CancelCauseFunc
}

// Send issues request under ctx and returns once response headers
// arrive. Failures come back classified: caller cancellation as
// fault.KindCancelled, the watchdog and transport errors as
// fault.KindNetwork.
func Send(ctx context.Context, client *http.Client, request *http.Request, watchdog Watchdog) (*Exchange, error) {
	requestContext, cancel := context.WithCancelCause(ctx)
	exchange := &Exchange{parent: ctx, request: requestContext, cancel: cancel}

	var timer *clock.Timer
	if watchdog.FirstByte > 0 {
		timer = watchdog.Clock.AfterFunc(watchdog.FirstByte, func() {
			cancel(ErrFirstByteTimeout)
		})
	}

	response, err := client.Do(request.WithContext(requestContext))
	if timer != nil {
		timer.Stop()
	}
	if err != nil {
		classified := exchange.Classify(err, request.Method+" "+request.URL.Redacted())
		cancel(nil)
		return nil, classified
	}
	exchange.Response = response
	return exchange, nil
}

// Abort cancels the exchange, recording cause for Classify. The body
// stops yielding data promptly; it is not drained.
func (e *Exchange) Abort(cause error) {
	e.cancel(cause)
}

// Close closes the response body and releases the request context.
func (e *Exchange) Close() error {
	var err error
	if e.Response != nil {
		err = e.Response.Body.Close()
	}
	e.cancel(nil)
	return err
}

// Classify maps an error observed while sending the request or reading
// its body onto the fault taxonomy. Errors caused by Abort keep their
// cause; errors caused by the caller's context become cancellations or
// deadlines; everything else is a network failure.
func (e *Exchange) Classify(err error, action string) error {
	if cause := context.Cause(e.request); cause != nil && e.parent.Err() == nil && !errors.Is(cause, context.Canceled) {
		return fault.Network("%s: %w", action, cause)
	}
	if e.parent.Err() != nil {
		return fault.FromContext(e.parent, action)
	}
	var classified *fault.Error
	if errors.As(err, &classified) {
		return err
	}
	return fault.Network("%s: %w", action, err)
}
