package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/services/guide"
)

// ArticleHandler handles article content requests
type ArticleHandler struct {
	guideService *guide.Service
	logger       arbor.ILogger
}

// NewArticleHandler creates a new article handler with dependencies
func NewArticleHandler(guideService *guide.Service, logger arbor.ILogger) *ArticleHandler {
	return &ArticleHandler{
		guideService: guideService,
		logger:       logger,
	}
}

// GetArticleHandler handles GET /api/article/{path...} requests. An
// empty path resolves to the shared "404" entry.
func (h *ArticleHandler) GetArticleHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/article"), "/")

	h.logger.Info().Str("path", path).Msg("Article request received")

	content, err := h.guideService.Article(r.Context(), path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", path).Msg("Article request failed")
		WriteFailure(w, err.Error(), guide.GenericFailureMessage)
		return
	}

	WriteContent(w, content)
}
