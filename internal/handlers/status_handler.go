package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/services/ledger"
)

// StatusHandler reports today's usage against the configured caps.
type StatusHandler struct {
	ledger *ledger.Service
	logger arbor.ILogger
}

// NewStatusHandler creates a new status handler with dependencies
func NewStatusHandler(ledgerSvc *ledger.Service, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		ledger: ledgerSvc,
		logger: logger,
	}
}

// GetStatusHandler handles GET /api/status requests.
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	today := h.ledger.Today()
	usage, err := h.ledger.CurrentUsage(r.Context(), today)
	if err != nil {
		h.logger.Error().Err(err).Msg("Usage lookup failed")
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read usage",
		})
		return
	}

	limits := h.ledger.Limits()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":               today,
		"total_tokens":       usage.TotalTokens,
		"image_generations":  usage.ImageGenerations,
		"max_tokens_per_day": limits.MaxTokensPerDay,
		"max_images_per_day": limits.MaxImagesPerDay,
	})
}
