package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"id-recon/internal/contact/models"
	"id-recon/internal/platform/middleware"
	dErrors "id-recon/pkg/domain-errors"
	"id-recon/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/contact-mocks.go -package=mocks Service

// Service defines the interface for identity reconciliation.
type Service interface {
	Identify(ctx context.Context, req models.IdentifyRequest) (*models.Consolidated, error)
}

// Handler handles the identify endpoint.
type Handler struct {
	logger  *slog.Logger
	service Service
	guards  []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithGuard adds middleware in front of the identify route, such as rate
// limiting.
func WithGuard(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if mw != nil {
			h.guards = append(h.guards, mw)
		}
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the identify route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		for _, guard := range h.guards {
			r.Use(guard)
		}
		r.Post("/identify", h.handleIdentify)
	})
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IdentifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.Identify(ctx, req.Model())
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInternal:
			h.logger.ErrorContext(ctx, "failed to identify contact",
				"request_id", requestID,
				"error", err,
			)
		default:
			h.logger.WarnContext(ctx, "identify request rejected",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ToIdentifyResponse(view))
}
