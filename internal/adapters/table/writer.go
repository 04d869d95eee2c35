package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/rebound/internal/domain/model"
)

// Write encodes students as CSV with the Columns header.
func Write(w io.Writer, students []model.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range students {
		if err := cw.Write(encodeRow(s)); err != nil {
			return fmt.Errorf("write student %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeRow(s model.Student) []string {
	age := ""
	if s.Age > 0 {
		age = strconv.Itoa(s.Age)
	}
	return []string{
		strconv.FormatInt(s.ID, 10),
		s.Name,
		s.Gender,
		age,
		formatFloat(s.Grade),
		formatFloat(s.AttendanceRate),
		strconv.Itoa(s.PreviousFailures),
		formatFloat(s.StudyHoursPerWeek),
		s.Contact,
		formatFloat(s.DropoutRisk),
		string(s.RiskLevel),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
