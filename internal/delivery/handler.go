package delivery

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/snapbrief/snapbrief/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrItemNotFound, Status: http.StatusNotFound, Message: "queue item not found"},
	{Error: ErrNotRetryable, Status: http.StatusConflict, Message: "only failed items can be retried"},
}

// Handler handles admin HTTP requests for the delivery module.
type Handler struct {
	repo Repository
}

// NewHandler creates a new delivery handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterAdminRoutes registers delivery routes on the admin router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/subscriptions/{id}/deliveries", h.ListDeliveries)
	r.Get("/deliveries/stats", h.QueueStats)
	r.Post("/deliveries/{id}/retry", h.RetryDelivery)
}

// ListDeliveries handles GET /admin/subscriptions/{id}/deliveries.
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	subscriptionID := chi.URLParam(r, "id")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			httputil.Error(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.repo.ListDeliveries(r.Context(), subscriptionID, limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, records)
}

// QueueStats handles GET /admin/deliveries/stats.
func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, stats)
}

// RetryDelivery handles POST /admin/deliveries/{id}/retry.
func (h *Handler) RetryDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.RetryFailedItem(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, map[string]string{"message": "delivery requeued"})
}
