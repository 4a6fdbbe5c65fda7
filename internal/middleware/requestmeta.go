package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-redirector/internal/handlers"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Client hint and language headers read for redirect metrics.
const (
	headerPlatform       = "Sec-CH-UA-Platform"
	headerBrowser        = "Sec-CH-UA"
	headerAcceptLanguage = "Accept-Language"
)

// RequestMeta adds host, path, client hints and a request id to the request context.
// An incoming X-Request-ID is kept; otherwise newID generates one.
func RequestMeta(_ huma.API, newID func() string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(HeaderRequestID)
		if requestID == "" {
			requestID = newID()
		}

		platform, hasPlatform := header(ctx, headerPlatform)
		browser, hasBrowser := header(ctx, headerBrowser)
		acceptLanguage, hasAcceptLanguage := header(ctx, headerAcceptLanguage)

		meta := handlers.RequestMeta{
			RequestID:         requestID,
			Host:              ctx.Host(),
			Path:              ctx.URL().Path,
			Platform:          platform,
			Browser:           browser,
			AcceptLanguage:    acceptLanguage,
			HasPlatform:       hasPlatform,
			HasBrowser:        hasBrowser,
			HasAcceptLanguage: hasAcceptLanguage,
		}

		ctx.SetHeader(HeaderRequestID, requestID)

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}

// header reports whether the header was sent at all, even with an empty value.
func header(ctx huma.Context, name string) (string, bool) {
	found := false

	ctx.EachHeader(func(key, _ string) {
		if !found && http.CanonicalHeaderKey(key) == http.CanonicalHeaderKey(name) {
			found = true
		}
	})

	return ctx.Header(name), found
}
