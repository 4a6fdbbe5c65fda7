package handlers_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/url-redirector/internal/metrics"
	"github.com/serroba/url-redirector/internal/redirect"
)

const testURL = "https://example.com/page"

var errMock = errors.New("mock error")

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// stubRepository returns canned results and counts calls.
type stubRepository struct {
	outcome redirect.PutOutcome
	putErr  error
	record  *redirect.Record
	getErr  error
	puts    int
	gets    int
}

func (s *stubRepository) PutIfAbsent(_ context.Context, _ *redirect.Record) (redirect.PutOutcome, error) {
	s.puts++

	return s.outcome, s.putErr
}

func (s *stubRepository) GetByID(_ context.Context, _ redirect.ID) (*redirect.Record, error) {
	s.gets++

	return s.record, s.getErr
}

// recordingSink keeps every emitted event.
type recordingSink struct {
	mu     sync.Mutex
	events []*metrics.Event
	err    error
}

func (s *recordingSink) Emit(_ context.Context, event *metrics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)

	return s.err
}

func (s *recordingSink) Events() []*metrics.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*metrics.Event(nil), s.events...)
}
