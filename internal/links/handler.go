package links

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/errx"
	"github.com/shortyapp/shorty/internal/httpx"
)

// ShortenRequest is the JSON body of POST /shorten.
type ShortenRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"`
}

// LinkResponse is a Link as rendered to its owner.
type LinkResponse struct {
	Link
	ShortURL string `json:"shortURL"`
}

// ListResponse is the JSON body of GET /codes.
type ListResponse struct {
	Codes []LinkResponse `json:"codes"`
}

// DeleteResponse is the JSON body of a successful DELETE /links/{id}.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// Handler exposes the registry over HTTP. Authenticated routes expect
// auth middleware to have placed the caller's identity in the context.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // prefix for short URLs, e.g. "https://shorty.app"
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Shorten handles POST /shorten.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[ShortenRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	owner := auth.FromContext(ctx)
	link, err := h.service.Create(ctx, owner, req.URL, req.Code)
	if err != nil {
		h.writeServiceError(ctx, w, logger, err, "create link")
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"code", link.Code,
		"custom_code", strings.TrimSpace(req.Code) != "",
	)

	httpx.WriteJSON(w, http.StatusCreated, h.render(link))
}

// ListCodes handles GET /codes.
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	found, err := h.service.List(ctx, auth.FromContext(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, logger, err, "list links")
		return
	}

	resp := ListResponse{Codes: make([]LinkResponse, 0, len(found))}
	for _, link := range found {
		resp.Codes = append(resp.Codes, h.render(link))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// DeleteLink handles DELETE /links/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id := r.PathValue("id")
	if err := h.service.Delete(ctx, auth.FromContext(ctx), id); err != nil {
		h.writeServiceError(ctx, w, logger, err, "delete link")
		return
	}

	logger.InfoContext(ctx, "link deleted", "link_id", id)
	httpx.WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: true})
}

// Resolve handles GET /{code} by redirecting to the target URL.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	code := r.PathValue("code")
	target, err := h.service.Resolve(ctx, code)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			logger.DebugContext(ctx, "code not found", "code", code)
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Invalid URL", nil)
			return
		}
		h.writeServiceError(ctx, w, logger, err, "resolve code")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) render(link Link) LinkResponse {
	return LinkResponse{Link: link, ShortURL: h.baseURL + "/" + link.Code}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// writeServiceError maps a registry error to a response. Caller mistakes are
// logged at warn, capacity and store failures at error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	kind := errx.KindOf(err)
	attrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid:
		logger.WarnContext(ctx, action+": invalid input", attrs...)
		httpx.WriteKind(w, kind, err.Error(), nil)

	case errx.Conflict:
		logger.WarnContext(ctx, action+": code conflict", attrs...)
		httpx.WriteKind(w, kind, "This code is already taken",
			map[string]string{"hint": "Choose a different code or leave it empty to get a generated one"})

	case errx.Unauthorized:
		logger.WarnContext(ctx, action+": unauthorized", attrs...)
		httpx.WriteKind(w, kind, "authentication required", nil)

	case errx.NotFound:
		httpx.WriteKind(w, kind, "link not found", nil)

	case errx.Exhausted:
		logger.ErrorContext(ctx, action+": code space exhausted", attrs...)
		httpx.WriteKind(w, kind, "Unable to allocate a short code right now. Please try again.", nil)

	case errx.Unavailable:
		logger.ErrorContext(ctx, action+": store unavailable", attrs...)
		httpx.WriteKind(w, kind, "Service temporarily unavailable. Please try again.", nil)

	default:
		logger.ErrorContext(ctx, action+": unexpected error", attrs...)
		httpx.WriteKind(w, errx.Internal, "An unexpected error occurred.", nil)
	}
}
