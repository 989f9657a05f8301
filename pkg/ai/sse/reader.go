// Package sse reads Server-Sent Events from an HTTP response body.
// Only the event and data fields are surfaced; id, retry and comment lines
// are dropped.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Event is one dispatched SSE event.
type Event struct {
	Type string // "event:" field, empty when absent
	Data string // "data:" lines joined with "\n"
}

// Reader yields events from an underlying stream. Lines of any length are
// accepted; Gemini can emit a whole candidate in a single data line.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next event, or io.EOF once the stream is exhausted.
// A trailing event without a terminating blank line is still dispatched.
func (r *Reader) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		pending bool
	)
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Event{}, err
		}
		eof := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if pending {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			if eof {
				return Event{}, io.EOF
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Type = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		}

		if eof {
			if pending {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			return Event{}, io.EOF
		}
	}
}
