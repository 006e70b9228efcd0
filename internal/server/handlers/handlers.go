// Package handlers provides the HTTP handlers of the webhook server.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/internal/server/response"
	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	plugin       searchterms.Plugin
	logger       *zerolog.Logger
	maxBodyBytes int64
	startTime    time.Time
}

// New creates a new Handlers instance.
func New(plugin searchterms.Plugin, logger *zerolog.Logger, maxBodyBytes int64, startTime time.Time) *Handlers {
	return &Handlers{
		plugin:       plugin,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		startTime:    startTime,
	}
}

// ResourceEvent is the body of the resource webhooks. Upload is only read
// by the update hook.
type ResourceEvent struct {
	Resource *host.Resource `json:"resource"`
	Upload   bool           `json:"upload"`
}

// JobResponse reports the job a webhook scheduled. JobID is empty when
// the resource was not eligible.
type JobResponse struct {
	JobID     string `json:"job_id"`
	Scheduled bool   `json:"scheduled"`
}

// decode reads a JSON body, bounded by maxBodyBytes.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return false
	}
	return true
}

// decodeResource reads a ResourceEvent and checks it names a resource.
func (h *Handlers) decodeResource(w http.ResponseWriter, r *http.Request) (*ResourceEvent, bool) {
	var event ResourceEvent
	if !h.decode(w, r, &event) {
		return nil, false
	}
	if event.Resource == nil || event.Resource.ID == "" {
		response.ErrorFromType(w, errors.NewValidationError("resource.id", "", "a resource with an id is required"))
		return nil, false
	}
	return &event, true
}
