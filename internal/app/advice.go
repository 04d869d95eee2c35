package service

import (
	"context"
	"errors"
	"fmt"

	repository "github.com/okian/rebound/internal/adapters/repository"
	"github.com/okian/rebound/internal/domain/model"
	"github.com/okian/rebound/internal/domain/recommend"
	"github.com/okian/rebound/internal/domain/scoring"
	"github.com/okian/rebound/pkg/logger"
	"github.com/okian/rebound/pkg/metrics"
)

// Progress is the outcome of recording one completed module.
type Progress struct {
	StudentID int64           `json:"student_id"`
	Completed int             `json:"completed"`
	Badge     recommend.Badge `json:"badge"`
	Message   string          `json:"message"`
}

// Predict scores a single assessment. The result is never stored in the
// roster.
func (s *Service) Predict(ctx context.Context, in model.Assessment) (scoring.Result, error) {
	res, err := s.scorer.Score(ctx, in)
	if err != nil {
		return scoring.Result{}, err
	}
	metrics.RecordPrediction(string(res.Level))
	s.log().Debug(ctx, "ad hoc prediction",
		logger.Float64("risk", res.Risk),
		logger.String("level", string(res.Level)),
	)
	return res, nil
}

// Plan builds the skill-rebuilder plan for a student of the current roster.
func (s *Service) Plan(ctx context.Context, id int64) (recommend.Plan, error) {
	st, err := s.roster.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordPlanNotFound()
			return recommend.Plan{}, fmt.Errorf("%w: %w", ErrStudentNotFound, err)
		}
		return recommend.Plan{}, err
	}
	plan := recommend.Build(st, s.progress.Completed(ctx, id))
	metrics.RecordPlanGenerated()
	return plan, nil
}

// MarkCompleted records one completed module for id. Any positive id is
// accepted, whether or not it is on the roster.
func (s *Service) MarkCompleted(ctx context.Context, id int64) (Progress, error) {
	if id <= 0 {
		return Progress{}, model.NewFieldError("student_id", "gt", "must be greater than 0")
	}
	n := s.progress.Increment(ctx, id)
	metrics.RecordModuleCompleted()
	metrics.UpdateTrackedStudents(s.progress.Count(ctx))

	s.log().Info(ctx, "module completed",
		logger.Int64("studentId", id),
		logger.Int("completed", n),
	)
	return Progress{
		StudentID: id,
		Completed: n,
		Badge:     recommend.BadgeFor(n),
		Message:   fmt.Sprintf("Progress updated for Student %d! Total Completed: %d", id, n),
	}, nil
}
