// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	repository "github.com/okian/rebound/internal/adapters/repository"
	"github.com/okian/rebound/internal/adapters/table"
	service "github.com/okian/rebound/internal/app"
	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/internal/domain/recommend"
	"github.com/okian/rebound/internal/domain/scoring"
	"github.com/okian/rebound/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RosterDependencies
	PredictDependencies
	PlanDependencies
	ProgressDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	studentsHandler *StudentsHandler
	predictHandler  *PredictHandler
	planHandler     *PlanHandler
	progressHandler *ProgressHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		studentsHandler: NewStudentsHandler(deps),
		predictHandler:  NewPredictHandler(deps),
		planHandler:     NewPlanHandler(deps),
		progressHandler: NewProgressHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /students", MetricsMiddleware(s.studentsHandler.HandleList, "students"))
	mux.HandleFunc("POST /students", MetricsMiddleware(s.studentsHandler.HandleUpload, "students"))
	mux.HandleFunc("POST /students/sample", MetricsMiddleware(s.studentsHandler.HandleSample, "students_sample"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("GET /plan/{id}", MetricsMiddleware(s.planHandler.HandleGetPlan, "plan"))
	mux.HandleFunc("POST /progress/{id}", MetricsMiddleware(s.progressHandler.HandlePostProgress, "progress"))
}

type errorResponse struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Fields    []model.FieldError `json:"fields,omitempty"`
	Errors    []table.ParseError `json:"errors,omitempty"`
	Truncated bool               `json:"truncated,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	var terr *table.Error
	if errors.As(err, &terr) {
		resp.Errors = terr.Errors
		resp.Truncated = terr.Truncated
	}
	writeJSON(w, status, resp)
}

// writeServiceError translates errors returned by the service into HTTP
// responses. Anything unrecognised is a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var bodyLimit *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUploadTooLarge), errors.As(err, &bodyLimit):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, service.ErrInvalidUpload), errors.Is(err, table.ErrInvalidTable),
		errors.Is(err, service.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, "invalid_table", err)
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrMissingFile):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		logger.Get().Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// pathID parses the {id} path value as a positive student id.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewFieldError("student_id", "gt", "must be a positive whole number")
	}
	return id, nil
}

var _ Dependencies = (*service.Service)(nil)

// RosterDependencies defines roster read and replace operations.
type RosterDependencies interface {
	Students(ctx context.Context) []model.Student
	Roster(ctx context.Context) repository.Snapshot
	Upload(ctx context.Context, src io.Reader) (repository.Snapshot, error)
	LoadSample(ctx context.Context, size int) (repository.Snapshot, error)
	MaxUploadBytes() int64
}

// PredictDependencies defines ad hoc scoring.
type PredictDependencies interface {
	Predict(ctx context.Context, in model.Assessment) (scoring.Result, error)
}

// PlanDependencies defines plan lookups.
type PlanDependencies interface {
	Plan(ctx context.Context, id int64) (recommend.Plan, error)
}

// ProgressDependencies defines progress updates.
type ProgressDependencies interface {
	MarkCompleted(ctx context.Context, id int64) (service.Progress, error)
}
