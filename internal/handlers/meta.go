package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds the request data the handlers read outside the typed input.
type RequestMeta struct {
	RequestID      string
	Host           string
	Path           string
	Platform       string
	Browser        string
	AcceptLanguage string
	// The Has fields distinguish a missing header from an empty one.
	HasPlatform       bool
	HasBrowser        bool
	HasAcceptLanguage bool
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
