package catalog

import "strings"

// Goal is what the student wants to achieve abroad.
type Goal string

// Student goals.
const (
	GoalUnknown     Goal = ""
	GoalStudyAbroad Goal = "study_abroad"
	GoalJob         Goal = "job"
	GoalTraining    Goal = "training"
)

// Goals lists every known goal.
var Goals = []Goal{GoalStudyAbroad, GoalJob, GoalTraining}

// ParseGoal validates s against the closed set. Anything else is GoalUnknown.
func ParseGoal(s string) Goal {
	switch g := Goal(strings.ToLower(strings.TrimSpace(s))); g {
	case GoalStudyAbroad, GoalJob, GoalTraining:
		return g
	default:
		return GoalUnknown
	}
}

// Known reports whether g is one of the defined goals.
func (g Goal) Known() bool {
	return g == GoalStudyAbroad || g == GoalJob || g == GoalTraining
}
