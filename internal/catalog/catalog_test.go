package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/genocem/Edumond-AI-portal/internal/errors"
)

func testCourses() []Course {
	return []Course{
		{
			ID: "german-a1", Name: "German for beginners", Description: "Learn German from scratch",
			Format: "Présentiel", Levels: []string{"A1", "A2"}, Countries: []string{"germany"},
			Category: CategoryLanguage,
		},
		{
			ID: "toefl", Name: "TOEFL preparation", Description: "Get ready for the TOEFL exam",
			Format: "En ligne", Levels: []string{"B2", "C1"}, Countries: []string{"germany", "spain"},
			Category: CategoryTestPrep,
		},
		{
			ID: "hotel", Name: "Hospitality training", Description: "Accueil à l'hôtel",
			Format: "Présentiel", Levels: []string{"Beginner"}, Countries: []string{"spain"},
			Category: CategoryTraining,
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New(testCourses())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	course, ok := c.ByID("toefl")
	require.True(t, ok)
	assert.Equal(t, "TOEFL preparation", course.Name)

	_, ok = c.ByID("missing")
	assert.False(t, ok)
}

func TestNew_RejectsInvalidCourses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func([]Course) []Course
		field  string
	}{
		{"empty id", func(cs []Course) []Course { cs[0].ID = ""; return cs }, "courses[0].id"},
		{"empty name", func(cs []Course) []Course { cs[1].Name = " "; return cs }, "courses[1].name"},
		{"no countries", func(cs []Course) []Course { cs[2].Countries = nil; return cs }, "courses[2].countries"},
		{"no levels", func(cs []Course) []Course { cs[0].Levels = []string{}; return cs }, "courses[0].levels"},
		{"bad category", func(cs []Course) []Course { cs[1].Category = "workshop"; return cs }, "courses[1].category"},
		{"duplicate id", func(cs []Course) []Course { cs[2].ID = "toefl"; return cs }, "courses[2].id"},
		{"blank country", func(cs []Course) []Course { cs[1].Countries = []string{"spain", " "}; return cs }, "courses[1].countries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.mutate(testCourses()))
			require.Error(t, err)
			assert.True(t, domerrors.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNew_NormalizesCountries(t *testing.T) {
	t.Parallel()

	courses := testCourses()
	courses[0].Countries = []string{"Germany"}
	courses[1].Countries = []string{" GERMANY ", "Spain"}

	c, err := New(courses)
	require.NoError(t, err)
	assert.Equal(t, []string{"germany", "spain"}, c.Countries())
	assert.Len(t, c.ByCountry("germany"), 2)

	got, _ := c.ByID("german-a1")
	assert.True(t, got.OfferedIn("germany"))
	assert.Equal(t, []string{"Germany"}, courses[0].Countries)
}

func TestCatalog_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	courses := testCourses()
	c, err := New(courses)
	require.NoError(t, err)

	courses[0].Name = "changed"
	got, _ := c.ByID("german-a1")
	assert.Equal(t, "German for beginners", got.Name)

	all := c.All()
	all[1].Name = "changed"
	got, _ = c.ByID("toefl")
	assert.Equal(t, "TOEFL preparation", got.Name)
}

func TestCatalog_Get(t *testing.T) {
	t.Parallel()

	c, err := New(testCourses())
	require.NoError(t, err)

	_, err = c.Get("hotel")
	require.NoError(t, err)

	_, err = c.Get("nope")
	require.Error(t, err)
	assert.True(t, domerrors.IsNotFound(err))
}

func TestCatalog_Filters(t *testing.T) {
	t.Parallel()

	c, err := New(testCourses())
	require.NoError(t, err)

	ids := func(cs []Course) []string {
		out := make([]string, 0, len(cs))
		for _, course := range cs {
			out = append(out, course.ID)
		}
		return out
	}

	assert.Equal(t, []string{"german-a1", "toefl"}, ids(c.ByCountry("germany")))
	assert.Equal(t, []string{"toefl", "hotel"}, ids(c.ByCountry("spain")))
	assert.Empty(t, c.ByCountry("atlantis"))
	assert.Equal(t, []string{"hotel"}, ids(c.ByCategory(CategoryTraining)))
	assert.Equal(t, []string{"germany", "spain"}, c.Countries())
}

func TestCatalog_Find(t *testing.T) {
	t.Parallel()

	c, err := New(testCourses())
	require.NoError(t, err)

	got, err := c.Find(Query{Country: "spain", Category: CategoryTestPrep})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "toefl", got[0].ID)

	got, err = c.Find(Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = c.Find(Query{Text: "hotel"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hotel", got[0].ID)

	got, err = c.Find(Query{Text: "hotel", Country: "germany"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalog_NilSafe(t *testing.T) {
	t.Parallel()

	var c *Catalog
	assert.Zero(t, c.Len())
	assert.Nil(t, c.All())
	assert.Nil(t, c.ByCountry("germany"))
	_, ok := c.ByID("x")
	assert.False(t, ok)
}

func TestCourse_IsSingleCountryLanguage(t *testing.T) {
	t.Parallel()

	courses := testCourses()
	assert.True(t, courses[0].IsSingleCountryLanguage())
	assert.False(t, courses[1].IsSingleCountryLanguage())

	multi := courses[0]
	multi.Countries = []string{"germany", "belgium"}
	assert.False(t, multi.IsSingleCountryLanguage())
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, ok := ParseCategory("test_prep")
	assert.True(t, ok)
	assert.Equal(t, CategoryTestPrep, c)

	_, ok = ParseCategory("other")
	assert.False(t, ok)
}
