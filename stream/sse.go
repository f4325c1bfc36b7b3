// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxFrameSize bounds one frame (or one tag record). Kagi's largest
// frames are search result pages, well below this.
const MaxFrameSize = 8 << 20

// ErrFrameTooLarge is returned when a frame exceeds MaxFrameSize.
var ErrFrameTooLarge = fmt.Errorf("stream frame exceeds %d bytes", MaxFrameSize)

// Frame is one Server-Sent Events block.
type Frame struct {
	// Event is the "event:" field. Empty means the default type,
	// "message".
	Event string

	// Data is the "data:" lines joined with newlines.
	Data string

	// ID is the "id:" field.
	ID string

	// HasData distinguishes a block with an empty data line from a
	// block with none.
	HasData bool
}

// Scanner reads Server-Sent Events blocks from a reader according to
// the W3C event stream format.
//
// Blocks are delimited by blank lines. Comment lines (starting with
// ":") and unknown fields are ignored, and a block made only of those
// is skipped. Unlike a browser, Scanner does not silently drop a block
// cut short by the end of input: if the input ends in the middle of a
// line, Next returns io.ErrUnexpectedEOF.
type Scanner struct {
	reader *bufio.Reader
	err    error
}

// NewScanner creates a scanner that reads blocks from reader.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(reader, 64*1024)}
}

// Next returns the next block. It returns io.EOF once the input ends
// cleanly, io.ErrUnexpectedEOF if it ends mid-line, and the reader's
// error otherwise. Errors are sticky.
func (scanner *Scanner) Next() (Frame, error) {
	if scanner.err != nil {
		return Frame{}, scanner.err
	}
	frame, err := scanner.next()
	if err != nil {
		scanner.err = err
	}
	return frame, err
}

func (scanner *Scanner) next() (Frame, error) {
	var (
		frame     Frame
		dataLines []string
		seen      bool
		size      int
	)
	emit := func() Frame {
		frame.Data = strings.Join(dataLines, "\n")
		return frame
	}

	for {
		line, err := scanner.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Frame{}, err
			}
			if line != "" {
				return Frame{}, io.ErrUnexpectedEOF
			}
			// A final block terminated by its last newline but not by
			// a blank line is complete.
			if seen {
				scanner.err = io.EOF
				return emit(), nil
			}
			return Frame{}, io.EOF
		}

		size += len(line)
		if size > MaxFrameSize {
			return Frame{}, ErrFrameTooLarge
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if seen {
				return emit(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			dataLines = append(dataLines, value)
			frame.HasData = true
			seen = true
		case "event":
			frame.Event = value
			seen = true
		case "id":
			frame.ID = value
			seen = true
		}
	}
}
