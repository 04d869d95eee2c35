package api

import (
	"errors"
	"net/http"
)

// PlanHandler handles skill-rebuilder plan requests.
type PlanHandler struct {
	deps PlanDependencies
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(deps PlanDependencies) *PlanHandler {
	return &PlanHandler{deps: deps}
}

// HandleGetPlan handles GET /plan/{id} requests. ?format=text returns the
// rendered Markdown report instead of JSON.
func (h *PlanHandler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_plan"
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format != "" && format != formatJSON && format != formatText {
		writeServiceError(ctx, w, op, WrapKind(op, ErrUnsupportedFormat, errors.New(format)))
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}

	plan, err := h.deps.Plan(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	if format == formatText {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(plan.Render()))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
