package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// prometheusLabels is the bounded subset of RedirectDimensions exported as
// labels. The short name and target URL are caller controlled and stay out.
var prometheusLabels = []string{DimSuccess, DimDomain, DimPlatform, DimBrowser, DimDeviceLanguage}

// PrometheusSink maps RedirectRequest events onto a labelled counter.
// Dimensions an event lacks are exported as empty labels.
type PrometheusSink struct {
	redirects *prometheus.CounterVec
}

// NewPrometheusSink registers the sink's collectors with reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	return &PrometheusSink{
		redirects: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "url_shortener",
			Name:      "redirect_requests_total",
			Help:      "Resolve requests by target domain, client hints and outcome.",
		}, prometheusLabels),
	}
}

func (s *PrometheusSink) Emit(_ context.Context, event *Event) error {
	if event.Name != RedirectRequest {
		return fmt.Errorf("prometheus sink: unsupported metric %q", event.Name)
	}

	labels := make(prometheus.Labels, len(prometheusLabels))
	for _, name := range prometheusLabels {
		labels[name] = event.Dimensions[name]
	}

	counter, err := s.redirects.GetMetricWith(labels)
	if err != nil {
		return err
	}

	counter.Add(event.Value)

	return nil
}
