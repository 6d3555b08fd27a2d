package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Logger records audit entries. Implementations must be safe for
// concurrent use: one request's pipeline run may log from its own
// goroutine while others run concurrently (§5).
type Logger interface {
	Log(entry Entry) error
	Close() error
}

// NoOp discards every entry; used when audit logging is disabled, the
// default for a dispatcher that doesn't care about the decision ledger.
type NoOp struct{}

func (NoOp) Log(Entry) error { return nil }
func (NoOp) Close() error    { return nil }

var _ Logger = NoOp{}

// WriterLogger writes entries as JSON lines to an io.Writer. Used directly
// for stdout, or wrapped around an *os.File for file-backed logging.
type WriterLogger struct {
	mu       sync.Mutex
	enc      *json.Encoder
	sequence int64
	closer   io.Closer
}

// NewWriterLogger wraps w. Close never closes w, even if it implements
// io.Closer; only the file opened by NewFileLogger is closed.
func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{enc: json.NewEncoder(w)}
}

// NewFileLogger opens (creating or appending to) path and returns a logger
// that writes JSON lines to it, closed by Close.
func NewFileLogger(path string) (*WriterLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	l := NewWriterLogger(f)
	l.closer = f
	return l, nil
}

// Log assigns the next sequence number and writes entry as a JSON line.
func (l *WriterLogger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.Sequence = atomic.AddInt64(&l.sequence, 1)
	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("audit: encode entry: %w", err)
	}
	return nil
}

// Close releases the underlying writer if it was opened by NewFileLogger.
func (l *WriterLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

var _ Logger = (*WriterLogger)(nil)
