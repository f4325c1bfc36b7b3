// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/netutil"
	"github.com/kagi-cli/kagi/stream"
)

// maxAttempts bounds the request cycle: the first attempt plus one
// retry after Kagi rejects the credential.
const maxAttempts = 2

// errRejected marks an attempt whose credential Kagi refused.
var errRejected = errors.New("credential rejected")

// RunOperation validates request, runs it and folds the response into
// a Result. onDelta (which may be nil) is called once per text delta,
// in order, as the response streams in. Deltas already delivered are
// not retracted if the stream later fails; the Result is returned only
// for a complete stream.
func (c *Client) RunOperation(ctx context.Context, request Request, onDelta func(string)) (Result, error) {
	request = request.WithDefaults()
	if err := request.Validate(); err != nil {
		return Result{}, err
	}

	requestID := uuid.NewString()
	logger := c.logger.With("operation", string(request.Kind), "request_id", requestID)

	var rejection error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		bearer, err := c.store.Valid(ctx, c.refresh)
		if err != nil {
			return Result{}, err
		}

		result, err := c.attempt(ctx, request, bearer, requestID, onDelta, logger.With("attempt", attempt))
		if !errors.Is(err, errRejected) {
			return result, err
		}

		rejection = err
		c.store.Invalidate(ctx, bearer.Token)
		logger.Info("credential rejected, refreshing", "attempt", attempt)
	}
	return Result{}, fault.Auth("%s: Kagi rejected a freshly minted credential; sign in again with \"kagi login\": %w",
		request.Kind, rejection)
}

// attempt runs one request with bearer. A credential rejection returns
// an error wrapping errRejected.
func (c *Client) attempt(ctx context.Context, request Request, bearer credential.Credential, requestID string, onDelta func(string), logger *slog.Logger) (Result, error) {
	httpRequest, err := c.newHTTPRequest(request, bearer, requestID)
	if err != nil {
		return Result{}, err
	}
	action := string(request.Kind)

	logger.Debug("sending request", "method", httpRequest.Method, "url", httpRequest.URL.Redacted())
	exchange, err := netutil.Send(ctx, c.http, httpRequest, netutil.Watchdog{Clock: c.clock, FirstByte: c.firstByte})
	if err != nil {
		return Result{}, err
	}
	defer exchange.Close()

	response := exchange.Response
	if err := checkStatus(request.Kind, response); err != nil {
		return Result{}, err
	}
	logger.Debug("response headers received", "status", response.StatusCode,
		"content_type", response.Header.Get("Content-Type"))

	var result Result
	if isDocument(response) {
		data, err := netutil.ReadResponse(response.Body)
		if err != nil {
			return Result{}, exchange.Classify(err, action)
		}
		result, err = ParseDocument(request.Kind, data)
		if err != nil {
			return Result{}, err
		}
		if onDelta != nil && result.Text != "" {
			onDelta(result.Text)
		}
	} else {
		decoder := c.decoder(request.Kind, response.Body, exchange)
		defer decoder.Close()
		result, err = fold(request.Kind, decoder, onDelta)
		if err != nil {
			if fault.KindOf(err) == "" {
				err = exchange.Classify(err, action)
			}
			return Result{}, err
		}
	}

	account := bearer.Account
	result.Account = &account
	logger.Debug("operation complete", "text_bytes", len(result.Text))
	return result, nil
}

// checkStatus maps a non-200 response onto the fault taxonomy.
func checkStatus(kind Kind, response *http.Response) error {
	if response.StatusCode == http.StatusOK {
		return nil
	}
	status := &StatusError{StatusCode: response.StatusCode, Body: netutil.ErrorBody(response.Body)}
	switch response.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", errRejected, status)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fault.Validation("%s: Kagi refused the request: %w", kind, status)
	default:
		return fault.Network("%s: %w", kind, status)
	}
}

// isDocument reports whether the response is a single JSON document
// rather than an event stream.
func isDocument(response *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(response.Header.Get("Content-Type"))
	return err == nil && mediaType == mediaJSON
}

func (c *Client) decoder(kind Kind, body io.Reader, exchange *netutil.Exchange) *stream.Decoder {
	idle := stream.WithIdleTimeout(c.clock, c.idle, func() {
		exchange.Abort(stream.ErrIdleTimeout)
	})
	return newDecoder(kind, body, idle)
}

func newDecoder(kind Kind, body io.Reader, options ...stream.Option) *stream.Decoder {
	switch kind {
	case KindProofread:
		return stream.NewProofreadDecoder(body, options...)
	case KindSummarize:
		return stream.NewSummaryDecoder(body, options...)
	case KindAsk:
		return stream.NewAssistantDecoder(body, options...)
	default:
		return stream.NewSearchDecoder(body, options...)
	}
}
