package handlers

import (
	"net/http"

	"github.com/agentstation/searchterms/internal/server/response"
)

// HandleStatus handles GET /status/{resource_id}.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.plugin.Status(r.Context(), r.PathValue("resource_id"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, status)
}

// HandleTerms handles GET /terms/{dataset}. The table is returned as
// records, header first; a dataset without terms has no records.
func (h *Handlers) HandleTerms(w http.ResponseWriter, r *http.Request) {
	table, err := h.plugin.Terms(r.Context(), r.PathValue("dataset"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	records := [][]string{}
	if table != nil {
		records = table.Records()
	}
	response.OK(w, map[string]any{"rows": table.Len(), "records": records})
}
