package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/rebound/internal/domain/model"
)

// Option configures a Reader.
type Option func(*Reader)

// WithMaxRows caps the number of data rows.
func WithMaxRows(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxRows = n
		}
	}
}

// WithComma sets the field delimiter (default ',').
func WithComma(c rune) Option {
	return func(r *Reader) {
		if c != 0 {
			r.comma = c
		}
	}
}

// Reader decodes roster tables. The zero value is not usable; use NewReader.
type Reader struct {
	maxRows int
	comma   rune
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{maxRows: math.MaxInt, comma: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses every row of src. Either all rows are returned or none: any
// malformed cell, missing column or invalid value yields an *Error listing
// the offending cells. Unknown columns, including previously derived
// dropout_risk and risk_level, are ignored.
func (r *Reader) Read(src io.Reader) ([]model.Student, error) {
	cr := csv.NewReader(src)
	cr.Comma = r.comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, csvError(err)
	}

	cols, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		students []model.Student
		report   = &Error{}
		line     int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ = cr.FieldPos(0)
		if isBlank(record) {
			continue
		}
		if len(students) >= r.maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooManyRows, r.maxRows)
		}

		s, cellErrs := decodeRow(cols, record, line)
		if len(cellErrs) > 0 {
			for _, pe := range cellErrs {
				if !report.add(pe) {
					return nil, report
				}
			}
			continue
		}
		students = append(students, s)
	}

	if len(report.Errors) > 0 {
		return nil, report
	}
	if len(students) == 0 {
		return nil, ErrNoRows
	}
	return students, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &Error{Errors: []ParseError{{Line: pe.Line, Reason: pe.Err.Error()}}}
	}
	return fmt.Errorf("%w: %w", ErrInvalidTable, err)
}

func indexHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	report := &Error{}
	for i, h := range header {
		name := canonical(h)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			report.add(ParseError{Line: 1, Column: name, Reason: "duplicate column"})
			continue
		}
		cols[name] = i
	}
	for _, req := range required {
		if _, ok := cols[req]; !ok {
			report.add(ParseError{Line: 1, Column: req, Reason: "missing column"})
		}
	}
	if len(report.Errors) > 0 {
		return nil, report
	}
	return cols, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// rowDecoder collects per-cell errors while filling a Student.
type rowDecoder struct {
	cols   map[string]int
	record []string
	line   int
	errs   []ParseError
}

func (d *rowDecoder) cell(col string) (string, bool) {
	i, ok := d.cols[col]
	if !ok || i >= len(d.record) {
		return "", false
	}
	v := strings.TrimSpace(d.record[i])
	return v, v != ""
}

func (d *rowDecoder) fail(col, reason string) {
	d.errs = append(d.errs, ParseError{Line: d.line, Column: col, Reason: reason})
}

func (d *rowDecoder) text(col string) string {
	v, _ := d.cell(col)
	return v
}

func (d *rowDecoder) float(col string, optional bool) float64 {
	v, ok := d.cell(col)
	if !ok {
		if !optional {
			d.fail(col, "is required")
		}
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		d.fail(col, fmt.Sprintf("%q is not a number", v))
		return 0
	}
	return f
}

func (d *rowDecoder) integer(col string, optional bool) int64 {
	v, ok := d.cell(col)
	if !ok {
		if !optional {
			d.fail(col, "is required")
		}
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	// Spreadsheet exports often write whole numbers as "2.0".
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		d.fail(col, fmt.Sprintf("%q is not a whole number", v))
		return 0
	}
	return int64(f)
}

func decodeRow(cols map[string]int, record []string, line int) (model.Student, []ParseError) {
	d := &rowDecoder{cols: cols, record: record, line: line}
	s := model.Student{
		ID:      d.integer(ColStudentID, false),
		Name:    d.text(ColName),
		Gender:  d.text(ColGender),
		Age:     int(d.integer(ColAge, true)),
		Contact: d.text(ColContact),
		Assessment: model.Assessment{
			Grade:             d.float(ColGrade, false),
			AttendanceRate:    d.float(ColAttendance, false),
			PreviousFailures:  int(d.integer(ColFailures, false)),
			StudyHoursPerWeek: d.float(ColStudyHours, false),
		},
	}
	if len(d.errs) > 0 {
		return model.Student{}, d.errs
	}

	if err := s.Validate(); err != nil {
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return model.Student{}, []ParseError{{Line: line, Reason: err.Error()}}
		}
		for _, fe := range verr.Fields {
			d.fail(fe.Field, fe.Message)
		}
		return model.Student{}, d.errs
	}
	return s, nil
}
