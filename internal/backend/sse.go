package backend

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one server-sent event
type sseEvent struct {
	Type string // "event:" field, empty for the default type
	Data string // "data:" lines joined with \n
}

// sseScanner reads server-sent events from a stream. Comment lines and
// unknown fields are skipped.
//
//	scanner := newSSEScanner(body)
//	for scanner.Next() {
//	    ev := scanner.Event()
//	}
//	err := scanner.Err()
type sseScanner struct {
	reader  *bufio.Reader
	current sseEvent
	err     error
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event and reports whether there is one
func (s *sseScanner) Next() bool {
	s.current = sseEvent{}
	if s.err != nil {
		return false
	}

	var data []string
	var eventType string
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF && hasData {
				// Final event without a trailing blank line
				s.current = sseEvent{Type: eventType, Data: strings.Join(data, "\n")}
				s.err = io.EOF
				return true
			}
			s.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				s.current = sseEvent{Type: eventType, Data: strings.Join(data, "\n")}
				return true
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			field, value = line, ""
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			eventType = value
		}
	}
}

// Event returns the event read by the last successful Next
func (s *sseScanner) Event() sseEvent {
	return s.current
}

// Err returns the read error that stopped the scanner, or nil on a clean EOF
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
