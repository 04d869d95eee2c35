// Package table reads and writes the roster as delimited text with a header.
package table

import "strings"

// Canonical column names, in the order Write emits them.
const (
	ColStudentID    = "student_id"
	ColName         = "name"
	ColGender       = "gender"
	ColAge          = "age"
	ColGrade        = "grade"
	ColAttendance   = "attendance_rate"
	ColFailures     = "previous_failures"
	ColStudyHours   = "study_hours_per_week"
	ColContact      = "contact"
	ColDropoutRisk  = "dropout_risk"
	ColRiskLevel    = "risk_level"
	utf8ByteOrderMk = "\ufeff"
)

// Columns lists the header Write produces.
var Columns = []string{
	ColStudentID, ColName, ColGender, ColAge, ColGrade, ColAttendance,
	ColFailures, ColStudyHours, ColContact, ColDropoutRisk, ColRiskLevel,
}

// required columns must appear in every uploaded header.
var required = []string{ColStudentID, ColName, ColGrade, ColAttendance, ColFailures, ColStudyHours}

var aliases = map[string]string{
	"id":           ColStudentID,
	"parent_phone": ColContact,
	"phone":        ColContact,
}

func canonical(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, utf8ByteOrderMk)))
	h = strings.ReplaceAll(h, " ", "_")
	if c, ok := aliases[h]; ok {
		return c
	}
	return h
}
