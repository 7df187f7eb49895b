package journal

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gsocket-tools/gsmon/gsmon"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write(&gsmon.EventProbe{
		Endpoint: "localhost:8080",
		Reason:   "refused",
		Detail:   "connection refused",
	}))

	line := buf.Bytes()
	assert.Equal(t, byte('\n'), line[len(line)-1])

	var ev struct {
		Level string          `json:"level"`
		Type  string          `json:"type"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(line, &ev))

	assert.Equal(t, "error", ev.Level)
	assert.Equal(t, "probe", ev.Type)
	assert.Contains(t, string(ev.Data), "connection refused")
}

func TestFileLockJournaler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "access.log")

	j, err := NewFileLockJournaler(path)
	require.NoError(t, err)

	require.NoError(t, j.Write(&gsmon.EventAcquired{}))

	// A second instance must not get the lock.
	_, err = NewFileLockJournaler(path)
	require.ErrorIs(t, err, ErrLockedElsewhere)

	require.NoError(t, j.Close())

	// Released locks are acquirable again.
	j2, err := NewFileLockJournaler(path)
	require.NoError(t, err)
	require.NoError(t, j2.Close())
}

func TestZapWriter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := NewZapWriter(zap.New(core))

	require.NoError(t, w.Write(&gsmon.EventAcquired{}))
	require.NoError(t, w.Write(&gsmon.EventRecoveryExhausted{Episode: "ep1", Attempts: 3}))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "acquired lock", entries[0].Message)

	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "recovery exhausted", entries[1].Message)
	assert.Equal(t, true, entries[1].ContextMap()["critical"])
}

type errJournaler struct{ err error }

func (e errJournaler) Write(gsmon.Event) error { return e.err }

func TestMultiWriter(t *testing.T) {
	var buf bytes.Buffer

	failing := errJournaler{err: assert.AnError}
	w := MultiWriter(failing, NewWriter(&buf))

	err := w.Write(&gsmon.EventAcquired{})
	assert.ErrorIs(t, err, assert.AnError)

	// The failing sink does not block the others.
	assert.NotEmpty(t, buf.Bytes())
}
