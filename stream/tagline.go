// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
)

// tagPattern matches the first line of a tag record: "update:{...}",
// "thread.json:{...}", "thread_list.html:<div>".
var tagPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_.\-]*):(.*)$`)

// Record is one "tag:payload" record.
type Record struct {
	Tag     string
	Payload string
}

// TagScanner reads Kagi's "tag:payload" line framing.
//
// A line matching the tag pattern starts a record. Lines that do not
// match are continuations of the current record and are appended to its
// payload with a newline; continuation lines before the first record
// are dropped. Blank lines are ignored. Because a record only ends when
// the next one starts, each record is returned once the following tag
// line (or the end of input) has been read.
type TagScanner struct {
	reader  *bufio.Reader
	pending *Record
	parts   []string
	size    int
	err     error
}

// NewTagScanner creates a scanner that reads records from reader.
func NewTagScanner(reader io.Reader) *TagScanner {
	return &TagScanner{reader: bufio.NewReaderSize(reader, 64*1024)}
}

// Next returns the next record, or io.EOF after the last one. Reader
// errors are returned as-is and are sticky.
func (scanner *TagScanner) Next() (Record, error) {
	for {
		if scanner.err != nil {
			if scanner.pending != nil {
				return scanner.flush(nil), nil
			}
			return Record{}, scanner.err
		}

		line, err := scanner.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.EOF
			}
			scanner.err = err
			if err != io.EOF {
				// A record interrupted by a read failure is incomplete.
				scanner.pending = nil
				return Record{}, err
			}
			if line == "" {
				continue
			}
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		scanner.size += len(line)
		if scanner.size > MaxFrameSize {
			scanner.err = ErrFrameTooLarge
			scanner.pending = nil
			return Record{}, ErrFrameTooLarge
		}

		match := tagPattern.FindStringSubmatch(line)
		if match == nil {
			if scanner.pending != nil {
				scanner.parts = append(scanner.parts, line)
			}
			continue
		}
		next := &Record{Tag: match[1]}
		if scanner.pending != nil {
			return scanner.flush(next, match[2]), nil
		}
		scanner.pending = next
		scanner.parts = append(scanner.parts[:0], match[2])
		scanner.size = len(line)
	}
}

// flush returns the pending record and starts next (if any) with its
// first payload line.
func (scanner *TagScanner) flush(next *Record, firstLine ...string) Record {
	record := *scanner.pending
	kept := scanner.parts[:0:0]
	for _, part := range scanner.parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	record.Payload = strings.Join(kept, "\n")

	scanner.pending = next
	scanner.parts = append(scanner.parts[:0], firstLine...)
	scanner.size = 0
	for _, part := range scanner.parts {
		scanner.size += len(part)
	}
	return record
}
