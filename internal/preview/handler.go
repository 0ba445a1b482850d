package preview

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/pkg/httputil"
	"github.com/snapbrief/snapbrief/internal/pkg/metrics"
	"github.com/snapbrief/snapbrief/internal/snapapps"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: snapapps.ErrNotFound, Status: http.StatusNotFound, Message: "snap app not found", Reason: "not_found"},
}

// SnapAppReader loads snap apps without touching view counters; a preview
// fetch by a link unfurler is not a view.
type SnapAppReader interface {
	Get(ctx context.Context, slug string) (*domain.SnapApp, error)
}

// Handler serves social preview cards.
type Handler struct {
	reader   SnapAppReader
	renderer *Renderer
	cache    *Cache
}

// NewHandler creates a new preview handler.
func NewHandler(reader SnapAppReader, renderer *Renderer, cache *Cache) *Handler {
	return &Handler{
		reader:   reader,
		renderer: renderer,
		cache:    cache,
	}
}

// RegisterRoutes registers the preview route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/snaps/{slug}/preview.svg", h.Card)
}

// Card handles GET /snaps/{slug}/preview.svg.
func (h *Handler) Card(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if card, ok := h.cache.Get(r.Context(), slug); ok {
		metrics.PreviewRenders.WithLabelValues("hit").Inc()
		writeCard(w, card)
		return
	}

	app, err := h.reader.Get(r.Context(), slug)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	card, err := h.renderer.Render(app)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	h.cache.Set(r.Context(), slug, card)
	metrics.PreviewRenders.WithLabelValues("miss").Inc()
	writeCard(w, card)
}

func writeCard(w http.ResponseWriter, card []byte) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(card)
}
