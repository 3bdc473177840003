package matcher

import "github.com/genocem/Edumond-AI-portal/internal/catalog"

const (
	unknownLevelScore = 0.5
	noLevelScore      = 0.3
)

// LevelScore rates how well a user level fits a course's level tokens.
// Unknown user level is neutral (0.5). Each recognized token scores 1.0 on an
// exact match, max(0.6, 1-gap*0.15) when over-qualified and
// max(0.2, 0.7-gap*0.2) when under-qualified; the best token wins. With no
// recognized token the score is 0.3.
func LevelScore(user catalog.Level, levels []string) float64 {
	if !user.IsKnown() {
		return unknownLevelScore
	}

	best := 0.0
	for _, token := range levels {
		required := catalog.ParseLevel(token)
		if !required.IsKnown() {
			continue
		}

		var score float64
		switch gap := float64(user - required); {
		case gap == 0:
			score = 1.0
		case gap > 0:
			score = max(0.6, 1.0-gap*0.15)
		default:
			score = max(0.2, 0.7+gap*0.2)
		}
		best = max(best, score)
	}

	if best == 0 {
		return noLevelScore
	}
	return best
}

type goalKey struct {
	goal     catalog.Goal
	category catalog.Category
}

type goalEntry struct {
	score  float64
	reason string
}

var goalTable = map[goalKey]goalEntry{
	{catalog.GoalStudyAbroad, catalog.CategoryLanguage}: {0.9, "Language preparation for study abroad"},
	{catalog.GoalStudyAbroad, catalog.CategoryTestPrep}: {1.0, "Test preparation essential for university admission"},
	{catalog.GoalStudyAbroad, catalog.CategoryTraining}: {0.5, "Supplementary training program"},

	{catalog.GoalJob, catalog.CategoryLanguage}: {0.8, "Language skills needed for work"},
	{catalog.GoalJob, catalog.CategoryTestPrep}: {0.4, "Language certification may help"},
	{catalog.GoalJob, catalog.CategoryTraining}: {1.0, "Professional training for career development"},

	{catalog.GoalTraining, catalog.CategoryLanguage}: {0.7, "Language skills support training"},
	{catalog.GoalTraining, catalog.CategoryTestPrep}: {0.5, "Certification can complement training"},
	{catalog.GoalTraining, catalog.CategoryTraining}: {1.0, "Directly matches training goal"},
}

var generalRelevance = goalEntry{0.3, "General relevance"}

// GoalScore looks up the alignment of a goal with a course category.
// Pairs outside the table, including an unknown goal, get 0.3.
func GoalScore(goal catalog.Goal, category catalog.Category) (float64, string) {
	entry, ok := goalTable[goalKey{goal, category}]
	if !ok {
		entry = generalRelevance
	}
	return entry.score, entry.reason
}
