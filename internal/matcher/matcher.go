// Package matcher ranks catalog courses against a partial student profile.
//
// Scoring is deterministic and side-effect free. A Matcher holds only its
// options and may be shared by any number of goroutines.
package matcher

import (
	"math"
	"slices"
	"strings"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
)

// Defaults used by Default and by zero Options fields.
const (
	DefaultOnlineMarker = "En ligne"
	DefaultTopK         = 5
)

// Sub-score weights, summed in this order.
const (
	weightLanguage     = 0.40
	weightGoal         = 0.30
	weightFormat       = 0.15
	weightAvailability = 0.15
)

const (
	formatOnlineScore  = 0.9
	formatOnsiteScore  = 0.7
	availabilityScore  = 0.8
	reasonThreshold    = 0.7
	reasonLanguage     = "Your language level matches well with this course"
	reasonOnlineFormat = "Available online for flexibility"
)

// Profile is the part of a student profile the matcher reads.
// Empty strings are unknown values.
type Profile struct {
	Goal         catalog.Goal `json:"goal"`
	Country      string       `json:"country"`
	EnglishLevel string       `json:"englishLevel"`
	NativeLevel  string       `json:"nativeLevel"`
}

// Breakdown holds the four sub-scores behind a match score, each in [0,1].
type Breakdown struct {
	Language     float64 `json:"language"`
	Goal         float64 `json:"goal"`
	Format       float64 `json:"format"`
	Availability float64 `json:"availability"`
}

// Total is the weighted sum of the sub-scores.
func (b Breakdown) Total() float64 {
	total := 0.0
	total += b.Language * weightLanguage
	total += b.Goal * weightGoal
	total += b.Format * weightFormat
	total += b.Availability * weightAvailability
	return total
}

// Recommendation is one scored course.
type Recommendation struct {
	CourseID     string           `json:"courseId"`
	CourseName   string           `json:"courseName"`
	MatchScore   int              `json:"matchScore"`
	MatchReasons []string         `json:"matchReasons"`
	Category     catalog.Category `json:"category"`
	Breakdown    Breakdown        `json:"-"`
}

// Options configures a Matcher.
type Options struct {
	// OnlineMarker is the substring of Course.Format that marks online delivery.
	OnlineMarker string
	// TopK caps the number of recommendations returned.
	TopK int
}

// Matcher scores courses with fixed options.
type Matcher struct {
	onlineMarker string
	topK         int
}

// New creates a Matcher. Zero option fields take their defaults.
func New(opts Options) *Matcher {
	m := &Matcher{onlineMarker: opts.OnlineMarker, topK: opts.TopK}
	if m.onlineMarker == "" {
		m.onlineMarker = DefaultOnlineMarker
	}
	if m.topK <= 0 {
		m.topK = DefaultTopK
	}
	return m
}

// Default is a Matcher with default options.
var Default = New(Options{})

// Match scores courses with the Default matcher.
func Match(profile Profile, courses []catalog.Course) []Recommendation {
	return Default.Match(profile, courses)
}

// Match returns the best courses offered in profile.Country, highest score
// first. Equal scores keep catalog order. An unknown country or empty
// catalog yields an empty, non-nil slice.
func (m *Matcher) Match(profile Profile, courses []catalog.Course) []Recommendation {
	recs := make([]Recommendation, 0, len(courses))
	for _, course := range courses {
		if !course.OfferedIn(profile.Country) {
			continue
		}
		recs = append(recs, m.score(profile, course))
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return b.MatchScore - a.MatchScore
	})

	if len(recs) > m.topK {
		recs = recs[:m.topK]
	}
	return recs
}

// Score computes the recommendation for a single course without applying
// the country filter.
func (m *Matcher) Score(profile Profile, course catalog.Course) Recommendation {
	return m.score(profile, course)
}

func (m *Matcher) score(profile Profile, course catalog.Course) Recommendation {
	var (
		b       Breakdown
		reasons = []string{}
	)

	b.Language = LevelScore(levelToCheck(profile, course), course.Levels)
	if b.Language >= reasonThreshold {
		reasons = append(reasons, reasonLanguage)
	}

	var reason string
	b.Goal, reason = GoalScore(profile.Goal, course.Category)
	if b.Goal >= reasonThreshold {
		reasons = append(reasons, reason)
	}

	b.Format = formatOnsiteScore
	if strings.Contains(course.Format, m.onlineMarker) {
		b.Format = formatOnlineScore
		reasons = append(reasons, reasonOnlineFormat)
	}

	b.Availability = availabilityScore

	return Recommendation{
		CourseID:     course.ID,
		CourseName:   course.Name,
		MatchScore:   int(math.Round(b.Total() * 100)),
		MatchReasons: reasons,
		Category:     course.Category,
		Breakdown:    b,
	}
}

// levelToCheck picks the proficiency relevant to course: the destination
// language for single-country language courses, English otherwise.
func levelToCheck(profile Profile, course catalog.Course) catalog.Level {
	if course.IsSingleCountryLanguage() {
		if native := catalog.ParseLevel(profile.NativeLevel); native.IsKnown() {
			return native
		}
	}
	return catalog.ParseLevel(profile.EnglishLevel)
}
