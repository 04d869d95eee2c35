// Package sample generates a synthetic classroom roster for demos and for
// booting the service before any table is uploaded.
package sample

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rebound/internal/domain/model"
)

// Value ranges of generated rows (min inclusive, span exclusive).
const (
	defaultSize       = 20
	ageMin            = 16
	ageSpan           = 3
	gradeMin          = 45
	gradeSpan         = 55
	attendanceMin     = 0.5
	attendanceSpan    = 0.5
	failuresSpan      = 3
	studyHoursMin     = 2
	studyHoursSpan    = 18
	contactBase       = 9876500000
	centsPerUnit      = 100
	firstGeneratedID  = 1
	generateCheckStep = 256
)

type person struct {
	name   string
	gender string
}

var people = []person{
	{"Arjun", "Male"}, {"Aanya", "Female"}, {"Rohan", "Male"}, {"Diya", "Female"},
	{"Aditya", "Male"}, {"Anika", "Female"}, {"Karan", "Male"}, {"Meera", "Female"},
	{"Vikram", "Male"}, {"Shruti", "Female"}, {"Krishna", "Male"}, {"Trisha", "Female"},
	{"Sanya", "Female"}, {"Kabir", "Male"}, {"Neha", "Female"}, {"Aryan", "Male"},
	{"Ishita", "Female"}, {"Manav", "Male"}, {"Riya", "Female"}, {"Lakshmi", "Female"},
}

// Option configures a Generator.
type Option func(*Generator)

// WithSize sets the default number of rows per roster.
func WithSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.size = n
		}
	}
}

// WithSeed makes generation reproducible. A zero seed keeps the time-based default.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.seed = seed
		}
	}
}

// Generator produces sample rosters. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
	size int
}

// NewGenerator creates a generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		seed: time.Now().UnixNano(),
		size: defaultSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.rng = rand.New(rand.NewSource(g.seed)) //nolint:gosec // demo data, not security sensitive
	return g
}

// Size returns the default roster size.
func (g *Generator) Size() int { return g.size }

// Generate returns a roster of n students with ids 1..n; n <= 0 uses the
// configured size.
func (g *Generator) Generate(ctx context.Context, n int) ([]model.Student, error) {
	if n <= 0 {
		n = g.size
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	students := make([]model.Student, n)
	for i := 0; i < n; i++ {
		if i%generateCheckStep == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled during sample generation: %w", err)
			}
		}
		students[i] = g.student(i)
	}
	return students, nil
}

func (g *Generator) student(i int) model.Student {
	p := people[i%len(people)]
	name := p.name
	if round := i / len(people); round > 0 {
		name += " " + strconv.Itoa(round+1)
	}
	attendance := attendanceMin + g.rng.Float64()*attendanceSpan
	return model.Student{
		ID:      int64(i + firstGeneratedID),
		Name:    name,
		Gender:  p.gender,
		Age:     ageMin + g.rng.Intn(ageSpan),
		Contact: strconv.FormatInt(contactBase+int64(i), 10),
		Assessment: model.Assessment{
			Grade:             float64(gradeMin + g.rng.Intn(gradeSpan)),
			AttendanceRate:    math.Round(attendance*centsPerUnit) / centsPerUnit,
			PreviousFailures:  g.rng.Intn(failuresSpan),
			StudyHoursPerWeek: float64(studyHoursMin + g.rng.Intn(studyHoursSpan)),
		},
	}
}
