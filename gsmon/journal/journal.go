// Package journal provides implementations of gsmon's Journaler interface:
// a file-backed sink with a file locking abstraction so that only one
// monitor instance can run with the same access log, and a console sink
// built on zap.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/gsocket-tools/gsmon/gsmon"
	"github.com/pkg/errors"
)

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []gsmon.Journaler
}

// MultiWriter creates a journaler that writes to multiple other
// journalers. Every sink is attempted even when an earlier one fails; the
// first error is returned.
func MultiWriter(ws ...gsmon.Journaler) gsmon.Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event gsmon.Event) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// FileLockJournaler is a journaler that uses a file lock (flock) to lock
// the given file and appends to it. The FileLockJournaler instance must be
// closed by the caller or by the operating system when the application
// exits.
//
// The caller does not need to acquire a file lock in order to read the
// written log, as each Write operation performed on the file is guaranteed
// to always be valid and atomic.
type FileLockJournaler struct {
	Writer
	f *os.File
	l *flock.Flock
}

// ErrLockedElsewhere is returned if NewFileLockJournaler can't acquire the
// file lock, meaning another monitor instance owns the log.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

// NewFileLockJournaler creates a new file journaler if it can acquire a
// flock on the path. It returns ErrLockedElsewhere if the lock is held.
func NewFileLockJournaler(path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(nil, path)
}

// NewFileLockJournalerWait creates a new file journaler but waits until
// the lock can be acquired or until the context times out.
func NewFileLockJournalerWait(ctx context.Context, path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(ctx, path)
}

func newFileLockJournaler(ctx context.Context, path string) (*FileLockJournaler, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}

	l := flock.New(path)

	var locked bool
	if ctx != nil {
		locked, err = l.TryLockContext(ctx, 25*time.Millisecond)
	} else {
		locked, err = l.TryLock()
	}

	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		f.Close()
		return nil, ErrLockedElsewhere
	}

	return &FileLockJournaler{
		Writer: Writer{f},
		f:      f,
		l:      l,
	}, nil
}

// Close closes the file and releases the flock.
func (f *FileLockJournaler) Close() error {
	f.f.Close()
	return f.l.Unlock()
}

// FileJournaler is an unlocked append-only file sink, used by one-shot
// commands that must not contend with a running monitor's lock.
type FileJournaler struct {
	Writer
	f *os.File
}

// NewFileJournaler opens the path for appending without locking it.
func NewFileJournaler(path string) (*FileJournaler, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}

	return &FileJournaler{Writer: Writer{f}, f: f}, nil
}

// Close closes the underlying file.
func (f *FileJournaler) Close() error {
	return f.f.Close()
}

func openAppend(path string) (*os.File, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_SYNC, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	return f, nil
}
