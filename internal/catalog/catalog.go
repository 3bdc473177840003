package catalog

import (
	"fmt"
	"slices"

	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

// Catalog is the validated, flattened course list. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	courses []Course
	byID    map[string]int
	index   *SearchIndex
}

// New builds a catalog from already-flattened courses, validating every record.
// Country codes are trimmed and lower-cased so they compare equal to
// normalized profile countries.
func New(courses []Course) (*Catalog, error) {
	normalized := make([]Course, len(courses))
	for i, course := range courses {
		course.Countries = normalizeCountries(course.Countries)
		normalized[i] = course
	}
	if err := validateCourses("courses", normalized); err != nil {
		return nil, err
	}

	c := &Catalog{
		courses: normalized,
		byID:    make(map[string]int, len(courses)),
	}
	for i, course := range c.courses {
		c.byID[course.ID] = i
	}

	index, err := NewSearchIndex(c.courses)
	if err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}
	c.index = index
	return c, nil
}

// All returns every course in catalog order.
func (c *Catalog) All() []Course {
	if c == nil {
		return nil
	}
	return slices.Clone(c.courses)
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.courses)
}

// ByID looks up a course by id.
func (c *Catalog) ByID(id string) (Course, bool) {
	if c == nil {
		return Course{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Course{}, false
	}
	return c.courses[i], true
}

// Get is ByID with a domain error for unknown ids.
func (c *Catalog) Get(id string) (Course, error) {
	course, ok := c.ByID(id)
	if !ok {
		return Course{}, fmt.Errorf("course %q: %w", id, domerrors.ErrNotFound)
	}
	return course, nil
}

// ByCountry returns the courses offered in country, in catalog order.
func (c *Catalog) ByCountry(country string) []Course {
	return c.filter(func(course Course) bool { return course.OfferedIn(country) })
}

// ByCategory returns the courses of one category, in catalog order.
func (c *Catalog) ByCategory(category Category) []Course {
	return c.filter(func(course Course) bool { return course.Category == category })
}

// Countries returns the sorted set of country codes any course is offered in.
func (c *Catalog) Countries() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, course := range c.courses {
		for _, country := range course.Countries {
			if !slices.Contains(out, country) {
				out = append(out, country)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Query filters the catalog. Empty fields match everything; a non-empty
// Text ranks results by keyword relevance instead of catalog order.
type Query struct {
	Text     string
	Country  string
	Category Category
	Limit    int
}

// Find runs q against the catalog.
func (c *Catalog) Find(q Query) ([]Course, error) {
	if c == nil {
		return nil, nil
	}

	match := func(course Course) bool {
		if q.Country != "" && !course.OfferedIn(q.Country) {
			return false
		}
		return q.Category == "" || course.Category == q.Category
	}

	var out []Course
	if q.Text == "" {
		out = c.filter(match)
	} else {
		hits, err := c.index.Search(q.Text, 0)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			if course, ok := c.ByID(hit.ID); ok && match(course) {
				out = append(out, course)
			}
		}
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *Catalog) filter(keep func(Course) bool) []Course {
	if c == nil {
		return nil
	}
	var out []Course
	for _, course := range c.courses {
		if keep(course) {
			out = append(out, course)
		}
	}
	return out
}
