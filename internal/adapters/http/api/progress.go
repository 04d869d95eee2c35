package api

import (
	"net/http"
)

// ProgressHandler handles completed-module updates.
type ProgressHandler struct {
	deps ProgressDependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// HandlePostProgress handles POST /progress/{id} requests.
func (h *ProgressHandler) HandlePostProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_progress"
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	p, err := h.deps.MarkCompleted(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
