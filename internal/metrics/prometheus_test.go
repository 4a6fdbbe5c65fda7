package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/url-redirector/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink_Emit(t *testing.T) {
	t.Run("counts redirect requests per label set", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		sink := metrics.NewPrometheusSink(reg)
		dims := map[string]string{
			metrics.DimShortName: "abc",
			metrics.DimSuccess:   "true",
		}

		require.NoError(t, sink.Emit(context.Background(), metrics.NewRedirectRequest(dims, time.Now())))
		require.NoError(t, sink.Emit(context.Background(), metrics.NewRedirectRequest(dims, time.Now())))

		count, err := testutil.GatherAndCount(reg, "url_shortener_redirect_requests_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		families, err := reg.Gather()
		require.NoError(t, err)
		require.Len(t, families, 1)
		require.Len(t, families[0].GetMetric(), 1)
		assert.InDelta(t, 2.0, families[0].GetMetric()[0].GetCounter().GetValue(), 0)
	})

	t.Run("keeps distinct series for distinct outcomes", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		sink := metrics.NewPrometheusSink(reg)

		_ = sink.Emit(context.Background(), metrics.NewRedirectRequest(map[string]string{metrics.DimSuccess: "true"}, time.Now()))
		_ = sink.Emit(context.Background(), metrics.NewRedirectRequest(map[string]string{metrics.DimSuccess: "false"}, time.Now()))

		count, err := testutil.GatherAndCount(reg, "url_shortener_redirect_requests_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("does not label series by short name or target", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		sink := metrics.NewPrometheusSink(reg)

		for _, id := range []string{"abc", "def", "ghi"} {
			dims := map[string]string{
				metrics.DimShortName:   id,
				metrics.DimRedirectURL: "https://example.com/" + id,
				metrics.DimDomain:      "example.com",
				metrics.DimSuccess:     "false",
			}
			require.NoError(t, sink.Emit(context.Background(), metrics.NewRedirectRequest(dims, time.Now())))
		}

		count, err := testutil.GatherAndCount(reg, "url_shortener_redirect_requests_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		families, err := reg.Gather()
		require.NoError(t, err)
		require.Len(t, families, 1)

		for _, label := range families[0].GetMetric()[0].GetLabel() {
			assert.NotEqual(t, metrics.DimShortName, label.GetName())
			assert.NotEqual(t, metrics.DimRedirectURL, label.GetName())
		}
	})

	t.Run("rejects unknown metrics", func(t *testing.T) {
		sink := metrics.NewPrometheusSink(prometheus.NewRegistry())

		err := sink.Emit(context.Background(), &metrics.Event{Name: "Other", Value: 1})

		assert.Error(t, err)
	})
}
