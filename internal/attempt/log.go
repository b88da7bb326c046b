package attempt

import (
	"sync"
)

// Entry records the outcome of a single outbound call.
// Status and OK are unset when the call never produced a response.
type Entry struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	OK     *bool  `json:"ok,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the call did not return a 2xx response
func (e Entry) Failed() bool {
	return e.OK == nil || !*e.OK
}

// Log is an append-only trail of outbound calls made while resolving one request.
// Entries keep insertion order and are never mutated once appended.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

// NewLog creates an empty attempt log
func NewLog() *Log {
	return &Log{}
}

// Response appends an entry for a call that returned an HTTP response
func (l *Log) Response(url string, status int) {
	ok := status >= 200 && status < 300
	l.append(Entry{URL: url, Status: status, OK: &ok})
}

// Failure appends an entry for a call that failed before a response was read
func (l *Log) Failure(url string, err error) {
	msg := "unknown_error"
	if err != nil {
		msg = err.Error()
	}
	l.append(Entry{URL: url, Error: msg})
}

// Unreadable appends an entry for a response whose body could not be used
func (l *Log) Unreadable(url string, status int, err error) {
	ok := false
	l.append(Entry{URL: url, Status: status, OK: &ok, Error: err.Error()})
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the trail in insertion order
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded calls
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
