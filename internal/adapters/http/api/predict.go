package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/internal/domain/scoring"
)

// predictRequest mirrors the OpenAPI schema for POST /predict. Pointers
// tell a missing field apart from a zero value. previous_failures is
// decoded as a number so 2.0 is accepted like it is in uploaded tables.
type predictRequest struct {
	Grade             *float64 `json:"grade"`
	AttendanceRate    *float64 `json:"attendance_rate"`
	PreviousFailures  *float64 `json:"previous_failures"`
	StudyHoursPerWeek *float64 `json:"study_hours_per_week"`
}

func (p predictRequest) assessment() (model.Assessment, error) {
	var missing []model.FieldError
	need := func(present bool, field string) {
		if !present {
			missing = append(missing, model.FieldError{Field: field, Rule: "required", Message: "is required"})
		}
	}
	need(p.Grade != nil, "grade")
	need(p.AttendanceRate != nil, "attendance_rate")
	need(p.PreviousFailures != nil, "previous_failures")
	need(p.StudyHoursPerWeek != nil, "study_hours_per_week")
	if len(missing) > 0 {
		return model.Assessment{}, &model.ValidationError{Fields: missing}
	}
	failures := *p.PreviousFailures
	if failures != math.Trunc(failures) || math.Abs(failures) > math.MaxInt32 {
		return model.Assessment{}, model.NewFieldError("previous_failures", "integer", "must be a whole number")
	}
	return model.Assessment{
		Grade:             *p.Grade,
		AttendanceRate:    *p.AttendanceRate,
		PreviousFailures:  int(failures),
		StudyHoursPerWeek: *p.StudyHoursPerWeek,
	}, nil
}

type predictResponse struct {
	DropoutRisk float64             `json:"dropout_risk"`
	RiskLevel   model.RiskLevel     `json:"risk_level"`
	Verdict     string              `json:"verdict"`
	Indicators  []scoring.Indicator `json:"indicators"`
}

// PredictHandler handles ad hoc prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	ctx := r.Context()

	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeServiceError(ctx, w, op, decodeError(op, err))
		return
	}
	in, err := req.assessment()
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}

	res, err := h.deps.Predict(ctx, in)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	indicators := res.Indicators
	if indicators == nil {
		indicators = []scoring.Indicator{}
	}
	writeJSON(w, http.StatusOK, predictResponse{
		DropoutRisk: res.Risk,
		RiskLevel:   res.Level,
		Verdict:     res.Verdict(),
		Indicators:  indicators,
	})
}

// decodeError reports a wrongly typed field as a validation error on that
// field; anything else is a malformed body.
func decodeError(op string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.NewFieldError(typeErr.Field, "type", "must be a number, got "+typeErr.Value)
	}
	return WrapKind(op, ErrBadRequest, err)
}
