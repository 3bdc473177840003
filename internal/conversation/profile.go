package conversation

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
	"github.com/genocem/Edumond-AI-portal/internal/genai"
	"github.com/genocem/Edumond-AI-portal/internal/matcher"
)

// Profile is what the conversation has learned about one student.
// Empty strings are unknown values.
type Profile struct {
	Goal             catalog.Goal `json:"goal,omitempty"`
	Country          string       `json:"country,omitempty"`
	EnglishLevel     string       `json:"englishLevel,omitempty"`
	NativeLevel      string       `json:"nativeLevel,omitempty"`
	SelectedPrograms []string     `json:"selectedPrograms"`
	MeetingDatetime  *time.Time   `json:"meetingDatetime,omitempty"`
}

// Extraction is the structured data a producer attaches to a reply.
// Nil fields were not extracted.
type Extraction struct {
	Phase        *string `json:"phase"`
	Goal         *string `json:"goal"`
	Country      *string `json:"country"`
	EnglishLevel *string `json:"englishLevel"`
	NativeLevel  *string `json:"nativeLevel"`
}

// Merge returns p with every valid non-nil field of e applied. Nil, empty
// and invalid values never clear a known field, so merging the same
// extraction twice yields the same profile as merging it once.
func (p Profile) Merge(e Extraction) Profile {
	out := p.clone()
	if g := normalizeGoal(e.Goal); g.Known() {
		out.Goal = g
	}
	if c := normalizeCountry(e.Country); c != "" {
		out.Country = c
	}
	if l := normalizeLevel(e.EnglishLevel); l != "" {
		out.EnglishLevel = l
	}
	if l := normalizeLevel(e.NativeLevel); l != "" {
		out.NativeLevel = l
	}
	return out
}

// Complete reports whether all four collected fields are known.
func (p Profile) Complete() bool {
	return InferPhase(p) == PhaseRecommend
}

// MatcherProfile is the matcher's view of p.
func (p Profile) MatcherProfile() matcher.Profile {
	return matcher.Profile{
		Goal:         p.Goal,
		Country:      p.Country,
		EnglishLevel: p.EnglishLevel,
		NativeLevel:  p.NativeLevel,
	}
}

// Collected lists the known fields for the producer prompt.
func (p Profile) Collected() genai.Collected {
	return genai.Collected{
		Goal:         string(p.Goal),
		Country:      p.Country,
		EnglishLevel: p.EnglishLevel,
		NativeLevel:  p.NativeLevel,
	}
}

func (p Profile) clone() Profile {
	out := p
	out.SelectedPrograms = slices.Clone(p.SelectedPrograms)
	if p.MeetingDatetime != nil {
		t := *p.MeetingDatetime
		out.MeetingDatetime = &t
	}
	return out
}

func normalizeGoal(s *string) catalog.Goal {
	if s == nil {
		return catalog.GoalUnknown
	}
	return catalog.ParseGoal(*s)
}

// normalizeCountry lower-cases a country code. Values with characters other
// than letters, spaces and hyphens are rejected.
func normalizeCountry(s *string) string {
	if s == nil {
		return ""
	}
	c := strings.ToLower(strings.TrimSpace(*s))
	if c == "" || c == "null" {
		return ""
	}
	for _, r := range c {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return ""
		}
	}
	return c
}

func normalizeLevel(s *string) string {
	if s == nil {
		return ""
	}
	return catalog.NormalizeCEFR(*s)
}
