// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kagi-cli/kagi/lib/clock"
)

// ErrIdleTimeout is returned by Next when no event arrived within the
// idle timeout.
var ErrIdleTimeout = errors.New("stream idle timeout: no events received")

// framer reads one unit of input (a frame or a record) and emits the
// events it decodes to. It returns an error only for reader failures;
// protocol violations and the end of input become events.
type framer interface {
	fill(emit func(Event)) error
}

// Decoder yields the events of one response body. It is not safe for
// concurrent use and cannot be restarted.
type Decoder struct {
	framer   framer
	pending  []Event
	finished bool
	err      error

	idle *idleWatch
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithIdleTimeout bounds the gap between events. The watchdog is armed
// by the first call to Next and reset after every event. When it fires
// it calls onIdle, which must unblock the reader (typically by
// cancelling the request), and Next returns ErrIdleTimeout. A
// non-positive timeout disables the watchdog.
func WithIdleTimeout(clk clock.Clock, timeout time.Duration, onIdle func()) Option {
	return func(decoder *Decoder) {
		if timeout <= 0 {
			return
		}
		decoder.idle = &idleWatch{clock: clk, timeout: timeout, onIdle: onIdle}
	}
}

func newDecoder(framer framer, options []Option) *Decoder {
	decoder := &Decoder{framer: framer}
	for _, option := range options {
		option(decoder)
	}
	return decoder
}

// Next returns the next event. After the terminal event (KindDone or
// KindError) it returns io.EOF. A non-EOF error ends the sequence
// without a terminal event; it is either ErrIdleTimeout or the
// underlying reader's error.
func (d *Decoder) Next() (Event, error) {
	if d.idle != nil {
		d.idle.arm()
	}
	for len(d.pending) == 0 {
		if d.finished {
			d.Close()
			if d.err != nil {
				return Event{}, d.err
			}
			return Event{}, io.EOF
		}
		if d.idle != nil && d.idle.expired() {
			d.fail(ErrIdleTimeout)
			continue
		}
		if err := d.framer.fill(d.emit); err != nil {
			if d.idle != nil && d.idle.expired() {
				err = ErrIdleTimeout
			}
			d.fail(err)
		}
	}

	event := d.pending[0]
	d.pending = d.pending[1:]
	switch {
	case event.Terminal():
		d.Close()
	case d.idle != nil:
		d.idle.reset()
	}
	return event, nil
}

// Close stops the idle watchdog. Next calls it once the sequence ends;
// callers that abandon a Decoder early should call it themselves.
func (d *Decoder) Close() {
	if d.idle != nil {
		d.idle.stop()
	}
}

// emit queues event. Nothing is queued after a terminal event.
func (d *Decoder) emit(event Event) {
	if d.finished {
		return
	}
	d.pending = append(d.pending, event)
	if event.Terminal() {
		d.finished = true
	}
}

func (d *Decoder) fail(err error) {
	d.finished = true
	d.err = err
}

// protocolError queues the terminal Error event for a violation.
func protocolError(emit func(Event), format string, args ...any) {
	emit(Event{Kind: KindError, Err: fmt.Errorf(format, args...)})
}

// idleWatch is the inter-event watchdog.
type idleWatch struct {
	clock   clock.Clock
	timeout time.Duration
	onIdle  func()

	mu      sync.Mutex
	timer   *clock.Timer
	fired   bool
	stopped bool
}

func (w *idleWatch) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil || w.stopped {
		return
	}
	w.timer = w.clock.AfterFunc(w.timeout, w.fire)
}

func (w *idleWatch) fire() {
	w.mu.Lock()
	if w.stopped || w.fired {
		w.mu.Unlock()
		return
	}
	w.fired = true
	w.mu.Unlock()
	if w.onIdle != nil {
		w.onIdle()
	}
}

func (w *idleWatch) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil && !w.fired && !w.stopped {
		w.timer.Reset(w.timeout)
	}
}

func (w *idleWatch) expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *idleWatch) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}
