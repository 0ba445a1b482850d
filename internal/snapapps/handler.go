package snapapps

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/snapbrief/snapbrief/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNotFound, Status: http.StatusNotFound, Message: "snap app not found", Reason: "not_found"},
	{Error: ErrSlugTaken, Status: http.StatusConflict, Message: "slug already in use", Reason: "slug_taken"},
	{Error: ErrContentTooBig, Status: http.StatusRequestEntityTooLarge, Message: "content payload too large", Reason: "content_too_large"},
}

// Listing limits.
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Handler handles HTTP requests for the snap apps module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new snap apps handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers public snap app routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snaps", func(r chi.Router) {
		r.Get("/", h.ListRecent)
		r.Get("/{slug}", h.View)
		r.Post("/{slug}/share", h.RecordShare)
	})
}

// RegisterAdminRoutes registers routes that require admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/snaps", h.Create)
	r.Delete("/snaps/{slug}", h.Delete)
}

// CreateRequest represents the request body for creating a snap app.
type CreateRequest struct {
	Slug        string          `json:"slug" validate:"omitempty,min=1,max=255"`
	AppType     string          `json:"appType" validate:"required,min=1,max=64"`
	Title       string          `json:"title" validate:"required,min=1,max=255"`
	Description string          `json:"description" validate:"max=1024"`
	Content     json.RawMessage `json:"content"`
}

// Create handles POST /snaps (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	app, err := h.service.Create(r.Context(), CreateInput{
		Slug:        req.Slug,
		AppType:     req.AppType,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, app)
}

// View handles GET /snaps/{slug}. Serving the card counts as a view.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	app, err := h.service.View(r.Context(), slug)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, app)
}

// RecordShare handles POST /snaps/{slug}/share.
func (h *Handler) RecordShare(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	shares, err := h.service.RecordShare(r.Context(), slug)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]int64{"shareCount": shares})
}

// ListRecent handles GET /snaps.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxRecentLimit)
		}
	}

	apps, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, apps)
}

// Delete handles DELETE /snaps/{slug} (admin).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := h.service.Delete(r.Context(), slug); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
