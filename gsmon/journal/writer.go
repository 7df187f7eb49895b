package journal

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gsocket-tools/gsmon/gsmon"
	"github.com/pkg/errors"
)

// Event describes the JSON structure of an event to be written.
type Event struct {
	Time  time.Time   `json:"time"`
	Level string      `json:"level"`
	Type  string      `json:"type"`
	Data  gsmon.Event `json:"data"`
}

// Writer is a simple journaler that writes line-delimited JSON events into
// the writer.
type Writer struct{ w io.Writer }

var _ gsmon.Journaler = Writer{}

// NewWriter creates a new journal writer.
func NewWriter(w io.Writer) Writer {
	return Writer{w}
}

// Write writes the given event into the writer. Writes are concurrently
// safe and are atomic.
func (l Writer) Write(ev gsmon.Event) error {
	evJSON := Event{
		Time:  time.Now(),
		Level: string(ev.Severity()),
		Type:  ev.Type(),
		Data:  ev,
	}

	buf := bytes.Buffer{}
	buf.Grow(512)

	if err := json.NewEncoder(&buf).Encode(evJSON); err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	_, err := l.w.Write(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to write event")
	}

	return nil
}
