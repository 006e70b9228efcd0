package handlers

import (
	"net/http"

	"github.com/agentstation/searchterms/internal/server/response"
	"github.com/agentstation/searchterms/pkg/logging"
)

// HandleResourceCreated handles POST /hooks/resources/created.
func (h *Handlers) HandleResourceCreated(w http.ResponseWriter, r *http.Request) {
	event, ok := h.decodeResource(w, r)
	if !ok {
		return
	}
	jobID, err := h.plugin.AfterCreate(r.Context(), event.Resource)
	h.respondJob(w, r, jobID, err)
}

// HandleResourceUpdated handles POST /hooks/resources/updated. The update
// is processed only when a file upload accompanied it.
func (h *Handlers) HandleResourceUpdated(w http.ResponseWriter, r *http.Request) {
	event, ok := h.decodeResource(w, r)
	if !ok {
		return
	}
	jobID, err := h.plugin.AfterUpdate(r.Context(), event.Resource, event.Upload)
	h.respondJob(w, r, jobID, err)
}

// HandleResourceDeleted handles POST /hooks/resources/deleted.
func (h *Handlers) HandleResourceDeleted(w http.ResponseWriter, r *http.Request) {
	event, ok := h.decodeResource(w, r)
	if !ok {
		return
	}
	jobID, err := h.plugin.BeforeDelete(r.Context(), event.Resource)
	h.respondJob(w, r, jobID, err)
}

// HandleBeforeIndex handles POST /hooks/datasets/before-index. The body is
// the record about to be indexed; the response carries it back with the
// dataset's search terms attached.
func (h *Handlers) HandleBeforeIndex(w http.ResponseWriter, r *http.Request) {
	var pkgDict map[string]any
	if !h.decode(w, r, &pkgDict) {
		return
	}
	if pkgDict == nil {
		pkgDict = map[string]any{}
	}
	out, err := h.plugin.BeforeIndex(r.Context(), pkgDict)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, out)
}

func (h *Handlers) respondJob(w http.ResponseWriter, r *http.Request, jobID string, err error) {
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to schedule search terms job")
		response.ErrorFromType(w, err)
		return
	}
	resp := JobResponse{JobID: jobID, Scheduled: jobID != ""}
	if !resp.Scheduled {
		response.OK(w, resp)
		return
	}
	response.Accepted(w, resp)
}
