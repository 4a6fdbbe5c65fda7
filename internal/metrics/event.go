// Package metrics models dimensioned counter events and the sinks that receive them.
package metrics

import (
	"context"
	"time"
)

const (
	// Namespace groups the service's metrics in the sink.
	Namespace = "urlShortener"
	// RedirectRequest counts resolve requests.
	RedirectRequest = "RedirectRequest"
	// UnitCount is the unit of counter events.
	UnitCount = "Count"
)

// Dimension names attached to RedirectRequest events.
const (
	DimShortName      = "shortName"
	DimPlatform       = "platform"
	DimDeviceLanguage = "deviceLanguage"
	DimBrowser        = "browser"
	DimDomain         = "domain"
	DimRedirectURL    = "redirectUrl"
	DimSuccess        = "success"
)

// RedirectDimensions lists every dimension a RedirectRequest event may carry.
var RedirectDimensions = []string{
	DimShortName,
	DimPlatform,
	DimDeviceLanguage,
	DimBrowser,
	DimDomain,
	DimRedirectURL,
	DimSuccess,
}

// Event is a single counter observation.
type Event struct {
	Namespace  string            `json:"namespace"`
	Name       string            `json:"name"`
	Dimensions map[string]string `json:"dimensions"`
	Unit       string            `json:"unit"`
	Value      float64           `json:"value"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewRedirectRequest builds a RedirectRequest counter event with value 1.
func NewRedirectRequest(dimensions map[string]string, at time.Time) *Event {
	return &Event{
		Namespace:  Namespace,
		Name:       RedirectRequest,
		Dimensions: dimensions,
		Unit:       UnitCount,
		Value:      1,
		Timestamp:  at,
	}
}

// Sink accepts metric events.
type Sink interface {
	Emit(ctx context.Context, event *Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event *Event) error

func (f SinkFunc) Emit(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// WithTimeout bounds every Emit on sink by d. A zero d returns sink unchanged.
func WithTimeout(sink Sink, d time.Duration) Sink {
	if d <= 0 {
		return sink
	}

	return SinkFunc(func(ctx context.Context, event *Event) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return sink.Emit(ctx, event)
	})
}
