package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DetachedSink emits in the background so callers never wait on the backend.
// Errors are logged, never returned.
type DetachedSink struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDetachedSink wraps sink. Each background emit is bounded by timeout.
func NewDetachedSink(sink Sink, timeout time.Duration, logger *zap.Logger) *DetachedSink {
	return &DetachedSink{
		sink:    sink,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *DetachedSink) Emit(ctx context.Context, event *Event) error {
	// The request context is cancelled once the response is written.
	detached := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("dropping metric event after shutdown", zap.String("name", event.Name))

		return nil
	}

	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		emitCtx := detached

		if s.timeout > 0 {
			var cancel context.CancelFunc

			emitCtx, cancel = context.WithTimeout(detached, s.timeout)
			defer cancel()
		}

		if err := s.sink.Emit(emitCtx, event); err != nil {
			s.logger.Error("failed to emit metric event",
				zap.String("name", event.Name),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// Shutdown waits for in-flight emits to finish. Later emits are dropped.
func (s *DetachedSink) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}
