package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/url-redirector/internal/handlers"
	"github.com/serroba/url-redirector/internal/health"
	"github.com/serroba/url-redirector/internal/metrics"
	"github.com/serroba/url-redirector/internal/middleware"
	"github.com/serroba/url-redirector/internal/redirect"
	"go.uber.org/zap"
)

const requestIDLength = 16

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)
		router := chi.NewMux()

		if opts.MetricsSink == SinkPrometheus {
			reg := do.MustInvoke[*prometheus.Registry](i)
			router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		}

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		newRequestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("URL Redirector", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api, newRequestID))
		api.UseMiddleware(middleware.Logger(logger))

		handler := handlers.NewRedirectHandler(
			do.MustInvoke[redirect.Repository](i),
			do.MustInvoke[metrics.Sink](i),
			opts.Scheme,
			nil,
			logger,
		)

		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))
		handlers.RegisterRoutes(api, handler)

		return api, nil
	})
}
