package eventstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	pdderrors "github.com/livp123/pddash/pkg/errors"
)

// ErrBlankLine is returned by ParseLine for lines holding only whitespace.
// ErrBlankLine 在行仅包含空白字符时由 ParseLine 返回。
var ErrBlankLine = errors.New("blank line")

// Event is one JSON value read from the source log, kept in compact form.
// Events are shared read-only between the cache and every observer queue.
// Event 是从源日志读取的一个 JSON 值，以紧凑形式保存。
type Event []byte

// MarshalJSON emits the event verbatim so a slice of events encodes as a JSON array.
func (e Event) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return e, nil
}

// String returns the compact JSON text.
func (e Event) String() string {
	return string(e)
}

// Decode unmarshals the event into a generic Go value.
func (e Event) Decode() (any, error) {
	var v any
	if err := json.Unmarshal(e, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseLine turns one raw log line into an Event.
// It returns ErrBlankLine for whitespace-only lines and an error wrapping
// errors.ErrMalformedLine when the line is not valid JSON.
// ParseLine 将一行原始日志转换为 Event。
func ParseLine(line []byte) (Event, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, ErrBlankLine
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: %.64q", pdderrors.ErrMalformedLine, trimmed)
	}

	var buf bytes.Buffer
	buf.Grow(len(trimmed))
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", pdderrors.ErrMalformedLine, err)
	}
	return Event(buf.Bytes()), nil
}
