// Package diagnostics is the rotating log that Integrity errors write
// to, opening a diagnostic path for later inspection. Backed by
// lumberjack (gopkg.in/natefinch/lumberjack.v2).
package diagnostics

import (
	"encoding/json"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is one diagnostic log line: a cross-store invariant violation
// (plmerr.Integrity) or another event worth a durable, rotated trail.
type Entry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

var (
	mu     sync.Mutex
	logger *lumberjack.Logger
)

// Configure points the diagnostic log at path, rotating at 10MB and
// keeping 5 backups for 28 days.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	logger = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
}

// Record appends one diagnostic entry as a JSON line. A no-op if
// Configure has not been called, so components that raise Integrity
// errors before a repository (and therefore a log path) is open don't
// need to special-case the bootstrap broker.
func Record(kind, message, detail string) {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return
	}
	line, err := json.Marshal(Entry{At: time.Now(), Kind: kind, Message: message, Detail: detail})
	if err != nil {
		return
	}
	line = append(line, '\n')
	_, _ = l.Write(line)
}

// Close flushes and closes the current log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return nil
	}
	err := logger.Close()
	logger = nil
	return err
}
