package catalog

import "strings"

// Level is a proficiency level on the six-point CEFR ordinal scale.
// The zero value means unknown.
type Level int

// CEFR levels, A1 lowest.
const (
	LevelUnknown Level = iota
	LevelA1
	LevelA2
	LevelB1
	LevelB2
	LevelC1
	LevelC2
)

// cefrTokens maps the formal CEFR tokens onto the scale.
var cefrTokens = map[string]Level{
	"A1": LevelA1,
	"A2": LevelA2,
	"B1": LevelB1,
	"B2": LevelB2,
	"C1": LevelC1,
	"C2": LevelC2,
}

// coarseTokens maps the descriptive labels some catalog entries use.
var coarseTokens = map[string]Level{
	"BEGINNER":     LevelA1,
	"INTERMEDIATE": LevelB1,
	"ADVANCED":     LevelC1,
}

// ParseLevel converts a catalog or profile token to a Level.
// Accepts A1..C2 and Beginner/Intermediate/Advanced, case-insensitive.
// Unrecognized tokens return LevelUnknown.
func ParseLevel(token string) Level {
	t := strings.ToUpper(strings.TrimSpace(token))
	if l, ok := cefrTokens[t]; ok {
		return l
	}
	return coarseTokens[t]
}

// NormalizeCEFR returns the canonical upper-case CEFR token for s, or ""
// when s is not one of A1..C2. Coarse labels are rejected: a user profile
// always records a formal level.
func NormalizeCEFR(s string) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := cefrTokens[t]; ok {
		return t
	}
	return ""
}

// IsKnown reports whether l is on the scale.
func (l Level) IsKnown() bool {
	return l >= LevelA1 && l <= LevelC2
}

func (l Level) String() string {
	switch l {
	case LevelA1:
		return "A1"
	case LevelA2:
		return "A2"
	case LevelB1:
		return "B1"
	case LevelB2:
		return "B2"
	case LevelC1:
		return "C1"
	case LevelC2:
		return "C2"
	default:
		return "unknown"
	}
}
