package metrics

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes events to the structured log instead of a metrics backend.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event *Event) error {
	s.logger.Info("metric event",
		zap.String("namespace", event.Namespace),
		zap.String("name", event.Name),
		zap.Any("dimensions", event.Dimensions),
		zap.String("unit", event.Unit),
		zap.Float64("value", event.Value),
		zap.Time("timestamp", event.Timestamp),
	)

	return nil
}
