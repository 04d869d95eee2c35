// Package recommend selects remedial resources for a scored student and
// renders them as a skill-rebuilder plan.
package recommend

import (
	"fmt"
	"strings"

	"github.com/okian/rebound/internal/domain/catalog"
	"github.com/okian/rebound/internal/domain/model"
)

// Selection thresholds.
const (
	lowGradeBelow       = 60.0
	midGradeBelow       = 75.0
	lowAttendanceBelow  = 0.7
	repeatFailuresAbove = 1
	lowStudyHoursBelow  = 5.0
)

// Recommendation is one resource with its display label.
type Recommendation struct {
	Label   string          `json:"label"`
	Subject catalog.Subject `json:"subject"`
	Topic   catalog.Topic   `json:"topic"`
	Link    string          `json:"link"`
}

func pick(label string, subject catalog.Subject, topic catalog.Topic) Recommendation {
	r := catalog.MustLookup(subject, topic)
	return Recommendation{Label: label, Subject: r.Subject, Topic: r.Topic, Link: r.Link}
}

// Select returns the ordered recommendations for s. The order is the
// display order: two grade-tier resources first, then one entry per
// support rule that applies.
func Select(s model.Student) []Recommendation {
	recs := make([]Recommendation, 0, 5)

	switch {
	case s.Grade < lowGradeBelow:
		recs = append(recs,
			pick("Math - Algebra Basics", catalog.Math, catalog.Algebra),
			pick("English - Writing Skills", catalog.English, catalog.WritingSkills),
		)
	case s.Grade < midGradeBelow:
		recs = append(recs,
			pick("Math - Trigonometry Practice", catalog.Math, catalog.Trigonometry),
			pick("Science - Organic Chemistry", catalog.Science, catalog.OrganicChemistry),
		)
	default:
		recs = append(recs,
			pick("Advanced Math - Geometry", catalog.Math, catalog.Geometry),
			pick("English - Reading Comprehension", catalog.English, catalog.ReadingComprehension),
		)
	}

	if s.AttendanceRate < lowAttendanceBelow {
		recs = append(recs, pick("Motivation & Time Management", catalog.Support, catalog.TimeManagement))
	}
	if s.PreviousFailures > repeatFailuresAbove {
		recs = append(recs, pick("Extra Remedial Classes Portal", catalog.Support, catalog.RemedialClasses))
	}
	if s.StudyHoursPerWeek < lowStudyHoursBelow {
		recs = append(recs, pick("Study Habits Improvement", catalog.Support, catalog.StudyHabits))
	}
	return recs
}

// Plan bundles a student's recommendations with their progress.
type Plan struct {
	StudentID       int64            `json:"student_id"`
	Name            string           `json:"name"`
	RiskLevel       model.RiskLevel  `json:"risk_level,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Completed       int              `json:"completed"`
	Badge           Badge            `json:"badge"`
	NextBadgeIn     int              `json:"next_badge_in,omitempty"`
}

// Build assembles the plan for s given its completed-module count.
func Build(s model.Student, completed int) Plan {
	next, _ := ModulesToNextBadge(completed)
	return Plan{
		StudentID:       s.ID,
		Name:            s.Name,
		RiskLevel:       s.RiskLevel,
		Recommendations: Select(s),
		Completed:       completed,
		Badge:           BadgeFor(completed),
		NextBadgeIn:     next,
	}
}

// Render formats the plan as a Markdown report.
func (p Plan) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Skill Rebuilder Plan for %s (ID %d)**\n\n", p.Name, p.StudentID)
	for i, r := range p.Recommendations {
		fmt.Fprintf(&b, "%d. %s → [Start Now](%s)\n", i+1, r.Label, r.Link)
	}
	fmt.Fprintf(&b, "\nProgress: %d modules completed → Current Badge: %s\n", p.Completed, p.Badge)
	switch {
	case p.NextBadgeIn == 1:
		b.WriteString("Complete 1 more module to level up!")
	case p.NextBadgeIn > 1:
		fmt.Fprintf(&b, "Complete %d more modules to level up!", p.NextBadgeIn)
	default:
		b.WriteString("Top badge reached!")
	}
	return b.String()
}
