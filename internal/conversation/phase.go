// Package conversation implements the guided orientation conversation: the
// phase state machine, additive profile merging, parsing of producer replies,
// the local keyword fallback, and the session-scoped Engine that ties them to
// the matcher, an LLM producer and persistence.
package conversation

// Phase is the stage of the guided conversation, named after what is asked next.
type Phase string

// Conversation phases in data-collection order.
const (
	PhaseGreeting        Phase = "greeting"
	PhaseAskGoal         Phase = "ask_goal"
	PhaseAskCountry      Phase = "ask_country"
	PhaseAskEnglish      Phase = "ask_english"
	PhaseAskNative       Phase = "ask_native"
	PhaseRecommend       Phase = "recommend"
	PhaseScheduleMeeting Phase = "schedule_meeting"
)

// Phases lists every phase in order.
var Phases = []Phase{
	PhaseGreeting,
	PhaseAskGoal,
	PhaseAskCountry,
	PhaseAskEnglish,
	PhaseAskNative,
	PhaseRecommend,
	PhaseScheduleMeeting,
}

// ParsePhase validates s against the closed set.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(s)
	return p, p.Rank() >= 0
}

// Rank returns the position of p in the conversation order, or -1 for an
// unknown phase.
func (p Phase) Rank() int {
	for i, phase := range Phases {
		if phase == p {
			return i
		}
	}
	return -1
}

// AtLeast reports whether p is at or past other.
func (p Phase) AtLeast(other Phase) bool {
	return p.Rank() >= other.Rank()
}

// InferPhase returns the next phase from the fields already known. Fields
// are requested strictly in order: goal, country, English level, native level.
func InferPhase(p Profile) Phase {
	switch {
	case !p.Goal.Known():
		return PhaseAskGoal
	case p.Country == "":
		return PhaseAskCountry
	case p.EnglishLevel == "":
		return PhaseAskEnglish
	case p.NativeLevel == "":
		return PhaseAskNative
	default:
		return PhaseRecommend
	}
}
