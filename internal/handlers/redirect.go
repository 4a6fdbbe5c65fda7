package handlers

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/url-redirector/internal/metrics"
	"github.com/serroba/url-redirector/internal/redirect"
	"go.uber.org/zap"
)

// Response messages returned to API callers.
const (
	MsgMissingID     = "Error: You are missing the path parameter id"
	MsgMissingBody   = "invalid request, you are missing the parameter body"
	MsgKeyExists     = "Error: Key already exists"
	MsgReservedWord  = "Error: You're using AWS reserved keywords as attributes"
	MsgStoreFailure  = "Error: Execution update, caused a Dynamodb error, please take a look at your CloudWatch Logs."
	MsgNotFound      = "redirect not found"
	MsgMetricFailure = "failed to record redirect metric"
)

// RedirectHandler creates and resolves redirects.
type RedirectHandler struct {
	store  redirect.Repository
	sink   metrics.Sink
	scheme string
	now    redirect.Clock
	logger *zap.Logger
}

// NewRedirectHandler creates a new redirect handler. scheme prefixes the URL
// returned from create; a nil now uses time.Now.
func NewRedirectHandler(
	store redirect.Repository,
	sink metrics.Sink,
	scheme string,
	now redirect.Clock,
	logger *zap.Logger,
) *RedirectHandler {
	if now == nil {
		now = time.Now
	}

	return &RedirectHandler{
		store:  store,
		sink:   sink,
		scheme: scheme,
		now:    now,
		logger: logger,
	}
}

func (h *RedirectHandler) CreateRedirect(ctx context.Context, req *CreateRedirectRequest) (*CreateRedirectResponse, error) {
	if req.ID == "" {
		h.logger.Error("input validation: missing id")

		return nil, huma.Error400BadRequest(MsgMissingID)
	}

	if req.Body == nil {
		h.logger.Error("input validation: missing body", zap.String("id", req.ID))

		return nil, huma.Error400BadRequest(MsgMissingBody)
	}

	record := redirect.NewRecord(
		redirect.ID(req.ID),
		req.Body.OriginalURL,
		req.Body.TTLInSeconds,
		req.Body.Attributes,
		h.now(),
	)

	outcome, err := h.store.PutIfAbsent(ctx, record)
	if outcome != redirect.PutCreated {
		h.logger.Error("failed to create redirect",
			zap.String("id", req.ID),
			zap.Stringer("outcome", outcome),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError(createErrorMessage(outcome))
	}

	meta := RequestMetaFromContext(ctx)

	return &CreateRedirectResponse{
		Status: http.StatusCreated,
		Body:   fmt.Sprintf("%s://%s%s", h.scheme, meta.Host, meta.Path),
	}, nil
}

func createErrorMessage(outcome redirect.PutOutcome) string {
	switch outcome {
	case redirect.PutConflict:
		return MsgKeyExists
	case redirect.PutSchemaRejected:
		return MsgReservedWord
	default:
		return MsgStoreFailure
	}
}

func (h *RedirectHandler) ResolveRedirect(ctx context.Context, req *ResolveRedirectRequest) (*RedirectResponse, error) {
	if req.ID == "" {
		h.logger.Error("input validation: missing id")

		return nil, huma.Error400BadRequest(MsgMissingID)
	}

	record, err := h.store.GetByID(ctx, redirect.ID(req.ID))
	if err != nil && !errors.Is(err, redirect.ErrNotFound) {
		h.logger.Error("failed to get redirect", zap.String("id", req.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError(err.Error(), err)
	}

	if record == nil || record.OriginalURL == "" {
		h.logger.Error("redirect not found or with invalid schema", zap.String("id", req.ID))

		if err = h.emit(ctx, req.ID, nil); err != nil {
			return nil, huma.Error500InternalServerError(MsgMetricFailure, err)
		}

		return nil, huma.Error404NotFound(MsgNotFound)
	}

	if err = h.emit(ctx, req.ID, record); err != nil {
		return nil, huma.Error500InternalServerError(MsgMetricFailure, err)
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: record.OriginalURL,
	}, nil
}

// emit sends one RedirectRequest event. A nil record reports a failed resolve.
func (h *RedirectHandler) emit(ctx context.Context, id string, record *redirect.Record) error {
	dims := h.dimensions(ctx, id, record)
	dims[metrics.DimSuccess] = strconv.FormatBool(record != nil)

	if err := h.sink.Emit(ctx, metrics.NewRedirectRequest(dims, h.now())); err != nil {
		h.logger.Error("failed to emit redirect metric", zap.String("id", id), zap.Error(err))

		return err
	}

	return nil
}

func (h *RedirectHandler) dimensions(ctx context.Context, id string, record *redirect.Record) map[string]string {
	dims := make(map[string]string)

	requestDims, err := RequestDimensions(id, RequestMetaFromContext(ctx))
	if err != nil {
		h.logger.Warn("dropping request dimensions", zap.String("id", id), zap.Error(err))
	}

	maps.Copy(dims, requestDims)

	if record == nil {
		return dims
	}

	targetDims, err := TargetDimensions(record.OriginalURL)
	if err != nil {
		h.logger.Warn("dropping target dimensions", zap.String("id", id), zap.Error(err))
	}

	maps.Copy(dims, targetDims)

	return dims
}
