// Package catalog holds the static table of remedial resources, keyed by
// enumerated subject and topic.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownResource is returned for a subject/topic pair not in the table.
var ErrUnknownResource = errors.New("unknown resource")

// Subject groups related topics.
type Subject string

// Subjects.
const (
	Math    Subject = "Math"
	Science Subject = "Science"
	English Subject = "English"
	Support Subject = "Support"
)

// Topic identifies one resource within a subject.
type Topic string

// Topics.
const (
	Algebra              Topic = "Algebra"
	Trigonometry         Topic = "Trigonometry"
	Geometry             Topic = "Geometry"
	OrganicChemistry     Topic = "Organic Chemistry"
	PhysicsMechanics     Topic = "Physics Mechanics"
	BiologyBasics        Topic = "Biology Basics"
	Grammar              Topic = "Grammar"
	WritingSkills        Topic = "Writing Skills"
	ReadingComprehension Topic = "Reading Comprehension"
	TimeManagement       Topic = "Motivation & Time Management"
	RemedialClasses      Topic = "Remedial Classes"
	StudyHabits          Topic = "Study Habits"
)

// Resource is one catalog row.
type Resource struct {
	Subject Subject `json:"subject"`
	Topic   Topic   `json:"topic"`
	Link    string  `json:"link"`
}

var table = []Resource{
	{Math, Algebra, "https://www.khanacademy.org/math/algebra"},
	{Math, Trigonometry, "https://www.khanacademy.org/math/trigonometry"},
	{Math, Geometry, "https://www.khanacademy.org/math/geometry"},
	{Science, OrganicChemistry, "https://nptel.ac.in/courses/104/106/104106125/"},
	{Science, PhysicsMechanics, "https://www.youtube.com/watch?v=kKKM8Y-u7ds"},
	{Science, BiologyBasics, "https://ncert.nic.in/textbook.php?lebo1=1-3"},
	{English, Grammar, "https://www.englishgrammar101.com/"},
	{English, WritingSkills, "https://www.coursera.org/learn/academic-english-writing"},
	{English, ReadingComprehension, "https://www.khanacademy.org/test-prep/sat/reading-writing"},
	{Support, TimeManagement, "https://www.youtube.com/watch?v=4T3iY8j4Zs4"},
	{Support, RemedialClasses, "https://nptel.ac.in/"},
	{Support, StudyHabits, "https://www.youtube.com/watch?v=QVCa0j5gKg0"},
}

type key struct {
	subject Subject
	topic   Topic
}

var index = func() map[key]Resource {
	m := make(map[key]Resource, len(table))
	for _, r := range table {
		m[key{r.Subject, r.Topic}] = r
	}
	return m
}()

// Lookup returns the resource for subject and topic.
func Lookup(subject Subject, topic Topic) (Resource, error) {
	r, ok := index[key{subject, topic}]
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s/%s", ErrUnknownResource, subject, topic)
	}
	return r, nil
}

// MustLookup is Lookup for compile-time known pairs; it panics on a miss.
func MustLookup(subject Subject, topic Topic) Resource {
	r, err := Lookup(subject, topic)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns a copy of the catalog in table order.
func All() []Resource {
	out := make([]Resource, len(table))
	copy(out, table)
	return out
}

// Topics returns the topics of subject in table order.
func Topics(subject Subject) []Topic {
	var out []Topic
	for _, r := range table {
		if r.Subject == subject {
			out = append(out, r.Topic)
		}
	}
	return out
}
