package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/eleflat/internal/ntuple"
)

// MemorySource serves events from a slice.
type MemorySource struct {
	events []*ntuple.Event
	// FailAt > 0 makes Events return Err when reaching that event index.
	FailAt int
	Err    error
}

// NewMemorySource returns a source over events.
func NewMemorySource(events ...*ntuple.Event) *MemorySource {
	return &MemorySource{events: events}
}

// Entries implements flatten.Sized.
func (s *MemorySource) Entries() int64 { return int64(len(s.events)) }

// Events implements flatten.EventSource.
func (s *MemorySource) Events(ctx context.Context, fn func(*ntuple.Event) error) error {
	for i, ev := range s.events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.FailAt > 0 && i == s.FailAt {
			if s.Err != nil {
				return s.Err
			}
			return errors.New("memory source: injected failure")
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// MemorySink collects rows.
//
// Thread-safety: MemorySink is safe for concurrent use via internal mutex.
type MemorySink struct {
	mu     sync.Mutex
	rows   []ntuple.FlatElectron
	closed bool
	// Err, when set, is returned from every Append.
	Err error
}

// Append implements flatten.RowSink. The row is copied.
func (s *MemorySink) Append(_ context.Context, row *ntuple.FlatElectron) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows = append(s.rows, *row)
	return nil
}

// Close marks the sink closed.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Rows returns a copy of the rows appended so far.
func (s *MemorySink) Rows() []ntuple.FlatElectron {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ntuple.FlatElectron(nil), s.rows...)
}

// Closed reports whether Close was called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
