package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/searchterms/internal/server/response"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "searchterms",
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}
