package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/services/guide"
)

// IndexHandler serves article discovery endpoints driven by the cached
// key index.
type IndexHandler struct {
	guideService *guide.Service
	logger       arbor.ILogger
}

// NewIndexHandler creates a new index handler with dependencies
func NewIndexHandler(guideService *guide.Service, logger arbor.ILogger) *IndexHandler {
	return &IndexHandler{
		guideService: guideService,
		logger:       logger,
	}
}

// LatestArticleHandler handles GET /api/articles/latest requests.
func (h *IndexHandler) LatestArticleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	latest, err := h.guideService.LatestArticle(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Latest article lookup failed")
		WriteFailure(w, err.Error(), guide.GenericFailureMessage)
		return
	}

	if latest == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}

	WriteJSON(w, http.StatusOK, latest)
}

// RandomArticlesHandler handles GET /api/articles/random?count=&exclude=
// requests. The view is served from the index cache and may be stale
// by up to its TTL.
func (h *IndexHandler) RandomArticlesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count := 1
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 {
			count = parsed
		}
	}
	if count > 20 {
		count = 20
	}

	var excluded []string
	if excludeStr := r.URL.Query().Get("exclude"); excludeStr != "" {
		excluded = strings.Split(excludeStr, ",")
	}

	entries, err := h.guideService.RandomArticles(r.Context(), excluded, count)
	if err != nil {
		h.logger.Error().Err(err).Msg("Random article lookup failed")
		WriteFailure(w, err.Error(), guide.GenericFailureMessage)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"keys": entries,
	})
}
