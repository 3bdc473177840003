// Package catalog holds the static program catalog: course records, the
// CEFR level scale, load-time validation of the source document, and
// read-only lookups shared by the matcher and the HTTP layer.
package catalog

import (
	"slices"
	"strings"
)

// Category is the closed set of course kinds.
type Category string

// Course categories.
const (
	CategoryLanguage Category = "language"
	CategoryTestPrep Category = "test_prep"
	CategoryTraining Category = "training"
)

// Categories lists every valid category in catalog group order.
var Categories = []Category{CategoryLanguage, CategoryTestPrep, CategoryTraining}

// ParseCategory validates s against the closed set.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.TrimSpace(s))
	return c, slices.Contains(Categories, c)
}

// Course is one immutable catalog record.
type Course struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Format      string   `json:"format" yaml:"format"`
	Levels      []string `json:"levels" yaml:"levels"`
	Countries   []string `json:"countries" yaml:"countries"`
	Category    Category `json:"category" yaml:"category"`

	// Display-only fields carried over from the source document.
	Price                *float64          `json:"price,omitempty" yaml:"price,omitempty"`
	Capacity             string            `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Duration             map[string]string `json:"duration,omitempty" yaml:"duration,omitempty"`
	CurriculumHighlights []string          `json:"curriculum_highlights,omitempty" yaml:"curriculum_highlights,omitempty"`
}

// OfferedIn reports whether the course is available in country.
func (c Course) OfferedIn(country string) bool {
	return country != "" && slices.Contains(c.Countries, country)
}

// IsSingleCountryLanguage reports whether c teaches the language of exactly
// one destination country.
func (c Course) IsSingleCountryLanguage() bool {
	return c.Category == CategoryLanguage && len(c.Countries) == 1
}
