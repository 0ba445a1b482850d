package subscriptions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/snapbrief/snapbrief/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNotFound, Status: http.StatusNotFound, Message: "subscription not found", Reason: "not_found"},
	{Error: ErrScheduleInvalid, Status: http.StatusBadRequest, Reason: "invalid_schedule"},
	{Error: ErrFieldInvalid, Status: http.StatusBadRequest, Reason: "invalid_field"},
	{Error: ErrNoFieldsToUpdate, Status: http.StatusBadRequest, Message: "no updatable fields in payload", Reason: "empty_update"},
}

// Pagination limits for the admin listing.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler handles HTTP requests for the subscriptions module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new subscriptions handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers public subscription routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	r.Get("/users/{userID}/subscriptions", h.ListForUser)
}

// RegisterAdminRoutes registers routes that require admin authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/subscriptions", h.ListAll)
}

// Create handles POST /subscriptions.
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

	result, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, result)
}

// Get handles GET /subscriptions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, sub)
}

// Update handles PATCH /subscriptions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	sub, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, sub)
}

// Delete handles DELETE /subscriptions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListForUser handles GET /users/{userID}/subscriptions.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	subs, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, subs)
}

// ListAll handles GET /subscriptions on the admin surface.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := queryInt(r, "offset", 0)

	subs, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, subs)
}

// handleError maps module errors to HTTP responses. MissingFieldError gets
// a per-field reason code before the shared mapping table runs.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		httputil.ErrorWithReason(w, http.StatusBadRequest, missing.Error(), missing.Reason())
		return
	}
	httputil.HandleError(r.Context(), w, err, errorMappings)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
