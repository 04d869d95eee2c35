package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	repository "github.com/okian/rebound/internal/adapters/repository"
	"github.com/okian/rebound/internal/adapters/table"
	service "github.com/okian/rebound/internal/app"
	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/pkg/logger"
)

// Response formats accepted through ?format=.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatText = "text"
)

// uploadField is the multipart form field holding the table.
const uploadField = "file"

// multipartMemory bounds how much of a multipart body is kept in memory.
const multipartMemory = 1 << 20

// uploadOverhead is the room left above the table cap for multipart
// boundaries and part headers.
const uploadOverhead = 64 << 10

type rosterResponse struct {
	Roster   repository.Snapshot `json:"roster"`
	Students []model.Student     `json:"students"`
}

type loadResponse struct {
	Status string              `json:"status"`
	Roster repository.Snapshot `json:"roster"`
}

// StudentsHandler handles roster requests.
type StudentsHandler struct {
	deps RosterDependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps RosterDependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleList handles GET /students requests.
func (h *StudentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_students"
	ctx := r.Context()
	students := h.deps.Students(ctx)

	switch format := r.URL.Query().Get("format"); format {
	case "", formatJSON:
		writeJSON(w, http.StatusOK, rosterResponse{Roster: h.deps.Roster(ctx), Students: students})
	case formatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="students_with_risk.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := table.Write(w, students); err != nil {
			logger.Get().Error(ctx, "failed to write roster table", logger.Error(Wrap(op, err)))
		}
	default:
		writeServiceError(ctx, w, op, WrapKind(op, ErrUnsupportedFormat, errors.New(format)))
	}
}

// HandleUpload handles POST /students requests. The table is read from the
// multipart field "file" when the request is a form upload and from the raw
// body otherwise.
func (h *StudentsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_students"
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes()+uploadOverhead)
	src, closeFn, err := uploadSource(r)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	defer closeFn()

	snap, err := h.deps.Upload(ctx, src)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{Status: "loaded", Roster: snap})
}

// HandleSample handles POST /students/sample requests.
func (h *StudentsHandler) HandleSample(w http.ResponseWriter, r *http.Request) {
	const op = "api.sample_students"
	ctx := r.Context()

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeServiceError(ctx, w, op, model.NewFieldError("size", "gt", "must be a positive whole number"))
			return
		}
		size = n
	}

	snap, err := h.deps.LoadSample(ctx, size)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, loadResponse{Status: "loaded", Roster: snap})
}

func uploadSource(r *http.Request) (io.Reader, func(), error) {
	const op = "api.upload_source"
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var bodyLimit *http.MaxBytesError
		if errors.As(err, &bodyLimit) {
			return nil, nil, WrapKind(op, service.ErrUploadTooLarge, err)
		}
		return nil, nil, WrapKind(op, ErrBadRequest, err)
	}
	f, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, nil, WrapKind(op, ErrMissingFile, err)
	}
	return f, func() { _ = f.Close() }, nil
}
