package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/services/guide"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	guideService *guide.Service
	logger       arbor.ILogger
}

// NewSearchHandler creates a new search handler with dependencies
func NewSearchHandler(guideService *guide.Service, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		guideService: guideService,
		logger:       logger,
	}
}

// SearchHandler handles GET /api/search?q=query requests. A missing
// query returns empty content rather than an error.
func (h *SearchHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteContent(w, "")
		return
	}

	h.logger.Info().Str("query", query).Msg("Search request received")

	content, err := h.guideService.Search(r.Context(), query)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("Search request failed")
		WriteFailure(w, err.Error(), guide.GenericFailureMessage)
		return
	}

	WriteContent(w, content)
}
