// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream decodes Kagi's streaming responses into a pull-based
// sequence of typed [Event] values.
//
// Kagi uses two framings. The translate and search endpoints speak
// Server-Sent Events ([Scanner]); the summarizer and the assistant
// write "tag:payload" lines ([TagScanner]). A [Decoder] sits on top of
// one framing and yields events in arrival order:
//
//	decoder := stream.NewProofreadDecoder(body)
//	for {
//	    event, err := decoder.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        // read failure or idle timeout
//	    }
//	    // handle event
//	}
//
// Every decoded sequence ends with exactly one terminal event: [KindDone]
// for a complete stream, [KindError] for a malformed or truncated one.
// Decoding is fail-fast: after the first protocol violation the decoder
// emits one Error event and stops reading, since a partial frame cannot
// be skipped without risking a corrupted result. Errors returned from
// Next (as opposed to Error events) are I/O failures of the underlying
// reader and [ErrIdleTimeout].
package stream
