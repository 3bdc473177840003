package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genocem/Edumond-AI-portal/internal/catalog"
)

func TestInferPhase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		want    Phase
	}{
		{"empty", Profile{}, PhaseAskGoal},
		{"goal only", Profile{Goal: catalog.GoalJob}, PhaseAskCountry},
		{"goal and country", Profile{Goal: catalog.GoalJob, Country: "germany"}, PhaseAskEnglish},
		{"missing native", Profile{Goal: catalog.GoalJob, Country: "germany", EnglishLevel: "B1"}, PhaseAskNative},
		{"complete", Profile{Goal: catalog.GoalStudyAbroad, Country: "germany", EnglishLevel: "B2", NativeLevel: "A1"}, PhaseRecommend},
		{"country without goal", Profile{Country: "italy", EnglishLevel: "B2"}, PhaseAskGoal},
		{"levels without country", Profile{Goal: catalog.GoalTraining, EnglishLevel: "C1", NativeLevel: "A2"}, PhaseAskCountry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, InferPhase(tt.profile))
		})
	}
}

func TestPhase_Rank(t *testing.T) {
	t.Parallel()

	for i, p := range Phases {
		assert.Equal(t, i, p.Rank())
	}
	assert.Equal(t, -1, Phase("done").Rank())
	assert.True(t, PhaseScheduleMeeting.AtLeast(PhaseRecommend))
	assert.True(t, PhaseRecommend.AtLeast(PhaseRecommend))
	assert.False(t, PhaseAskNative.AtLeast(PhaseRecommend))
}

func TestParsePhase(t *testing.T) {
	t.Parallel()

	p, ok := ParsePhase("ask_country")
	assert.True(t, ok)
	assert.Equal(t, PhaseAskCountry, p)

	_, ok = ParsePhase("ASK_COUNTRY")
	assert.False(t, ok)
	_, ok = ParsePhase("")
	assert.False(t, ok)
}
