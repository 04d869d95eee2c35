// Package model contains domain models passed between layers.
package model

// RiskLevel is the categorical bucket of a dropout risk score.
type RiskLevel string

// Risk levels, ordered from least to most severe.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether l is one of the known levels.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RiskLevels lists every level in ascending severity.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// Assessment holds the four indicators the risk scorer reads.
type Assessment struct {
	Grade             float64 `json:"grade" validate:"gte=0,lte=100"`
	AttendanceRate    float64 `json:"attendance_rate" validate:"gte=0,lte=1"`
	PreviousFailures  int     `json:"previous_failures" validate:"gte=0"`
	StudyHoursPerWeek float64 `json:"study_hours_per_week" validate:"gte=0,lte=168"`
}

// Student is one row of the roster. DropoutRisk and RiskLevel are derived
// by the scorer and overwritten on every scoring pass.
type Student struct {
	ID      int64  `json:"student_id" validate:"gt=0"`
	Name    string `json:"name" validate:"required"`
	Gender  string `json:"gender,omitempty"`
	Age     int    `json:"age,omitempty" validate:"gte=0"`
	Contact string `json:"contact,omitempty"`
	Assessment

	DropoutRisk float64   `json:"dropout_risk"`
	RiskLevel   RiskLevel `json:"risk_level,omitempty"`
}

// Scored reports whether the derived fields have been filled in.
func (s Student) Scored() bool {
	return s.RiskLevel.Valid()
}
