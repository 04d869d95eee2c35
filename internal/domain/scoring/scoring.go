// Package scoring computes a rule-based dropout risk from four indicators.
//
// Each indicator that fires adds a fixed weight; weights are kept in
// hundredths so the two-decimal rounding of the sum is exact.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/rebound/internal/domain/model"
)

// Indicator thresholds.
const (
	LowGradeThreshold      = 60.0
	LowAttendanceThreshold = 0.7
	LowStudyHoursThreshold = 5.0
	PriorFailuresThreshold = 0
	HighRiskThreshold      = 0.6
	MediumRiskThreshold    = 0.3
	hundredthsPerUnit      = 100
	lowGradeWeight         = 40
	lowAttendanceWeight    = 30
	priorFailuresWeight    = 20
	lowStudyHoursWeight    = 10
)

// Indicator names one of the four risk predicates.
type Indicator string

// Known indicators, in evaluation order.
const (
	IndicatorLowGrade      Indicator = "low_grade"
	IndicatorLowAttendance Indicator = "low_attendance"
	IndicatorPriorFailures Indicator = "prior_failures"
	IndicatorLowStudyHours Indicator = "low_study_hours"
)

// Weight returns the contribution of the indicator to the risk score.
func (i Indicator) Weight() float64 {
	return float64(i.hundredths()) / hundredthsPerUnit
}

func (i Indicator) hundredths() int {
	switch i {
	case IndicatorLowGrade:
		return lowGradeWeight
	case IndicatorLowAttendance:
		return lowAttendanceWeight
	case IndicatorPriorFailures:
		return priorFailuresWeight
	case IndicatorLowStudyHours:
		return lowStudyHoursWeight
	}
	return 0
}

// Result is the outcome of scoring one assessment.
type Result struct {
	Risk       float64
	Level      model.RiskLevel
	Indicators []Indicator
}

// Verdict renders the short text shown for an ad hoc prediction.
func (r Result) Verdict() string {
	return fmt.Sprintf("Risk Level: %s (Score %.2f)", r.Level, r.Risk)
}

// Scorer computes dropout risk for single assessments and whole rosters.
type Scorer interface {
	// Score validates in and returns its risk, honoring ctx for cancellation.
	Score(ctx context.Context, in model.Assessment) (Result, error)
	// ScoreBatch returns a copy of students with DropoutRisk and RiskLevel set.
	// Order is preserved; the first invalid row aborts the batch.
	ScoreBatch(ctx context.Context, students []model.Student) ([]model.Student, error)
}

// RuleScorer implements Scorer with the fixed threshold rules.
type RuleScorer struct{}

// NewRuleScorer creates a rule scorer.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

// Score computes the risk for one assessment.
func (s *RuleScorer) Score(ctx context.Context, in model.Assessment) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	return Evaluate(in), nil
}

// ScoreBatch scores every student of the roster.
func (s *RuleScorer) ScoreBatch(ctx context.Context, students []model.Student) ([]model.Student, error) {
	out := make([]model.Student, len(students))
	for i, st := range students {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled: %w", err)
		}
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("student %d (row %d): %w", st.ID, i+1, err)
		}
		res := Evaluate(st.Assessment)
		st.DropoutRisk = res.Risk
		st.RiskLevel = res.Level
		out[i] = st
	}
	return out, nil
}

// Evaluate applies the rules without validating in.
func Evaluate(in model.Assessment) Result {
	var fired []Indicator
	if in.Grade < LowGradeThreshold {
		fired = append(fired, IndicatorLowGrade)
	}
	if in.AttendanceRate < LowAttendanceThreshold {
		fired = append(fired, IndicatorLowAttendance)
	}
	if in.PreviousFailures > PriorFailuresThreshold {
		fired = append(fired, IndicatorPriorFailures)
	}
	if in.StudyHoursPerWeek < LowStudyHoursThreshold {
		fired = append(fired, IndicatorLowStudyHours)
	}

	total := 0
	for _, ind := range fired {
		total += ind.hundredths()
	}
	risk := float64(total) / hundredthsPerUnit
	return Result{Risk: risk, Level: Classify(risk), Indicators: fired}
}

// Classify buckets a risk score. Both thresholds are inclusive.
func Classify(risk float64) model.RiskLevel {
	switch {
	case risk >= HighRiskThreshold:
		return model.RiskHigh
	case risk >= MediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
