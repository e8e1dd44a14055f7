// Package logger is the central diagnostic log shared by every emulator
// component. There is exactly one log per process; the package level
// functions write to it.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MaxEntries is the number of entries kept before the oldest are dropped.
const MaxEntries = 256

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string

	// Repeated counts how many times an identical entry followed this one.
	Repeated int
}

func (e Entry) String() string {
	if e.Repeated > 0 {
		return fmt.Sprintf("%s: %s (repeat x%d)", e.Tag, e.Detail, e.Repeated+1)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Detail)
}

type logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

var central = newLogger(MaxEntries)

func newLogger(maxEntries int) *logger {
	return &logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

func (l *logger) log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		last := &l.entries[n-1]
		last.Repeated++
		last.Timestamp = time.Now()
		return
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.maxEntries {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
	}

	if l.echo != nil {
		_, _ = io.WriteString(l.echo, e.String()+"\n")
	}
}

func (l *logger) snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...any) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear removes every entry.
func Clear() {
	central.mu.Lock()
	central.entries = central.entries[:0]
	central.mu.Unlock()
}

// Entries returns a copy of the current entries, oldest first.
func Entries() []Entry {
	return central.snapshot()
}

// Write writes every entry to output, one per line.
func Write(output io.Writer) {
	for _, e := range central.snapshot() {
		_, _ = io.WriteString(output, e.String()+"\n")
	}
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	entries := central.snapshot()
	if number < len(entries) {
		entries = entries[len(entries)-number:]
	}
	for _, e := range entries {
		_, _ = io.WriteString(output, e.String()+"\n")
	}
}

// SetEcho prints new entries to output as they arrive. A nil output stops
// echoing. Repeats of the previous entry are folded and not echoed again.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	central.echo = output
	central.mu.Unlock()
}
