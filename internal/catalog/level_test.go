package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  Level
	}{
		{"A1", LevelA1},
		{"a2", LevelA2},
		{" B1 ", LevelB1},
		{"b2", LevelB2},
		{"C1", LevelC1},
		{"C2", LevelC2},
		{"Beginner", LevelA1},
		{"intermediate", LevelB1},
		{"ADVANCED", LevelC1},
		{"", LevelUnknown},
		{"D1", LevelUnknown},
		{"fluent", LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.token))
		})
	}
}

func TestNormalizeCEFR(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "B2", NormalizeCEFR("b2"))
	assert.Equal(t, "C1", NormalizeCEFR(" C1"))
	assert.Empty(t, NormalizeCEFR("Beginner"))
	assert.Empty(t, NormalizeCEFR("native"))
	assert.Empty(t, NormalizeCEFR(""))
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A1", LevelA1.String())
	assert.Equal(t, "C2", LevelC2.String())
	assert.Equal(t, "unknown", LevelUnknown.String())
	assert.False(t, LevelUnknown.IsKnown())
	assert.True(t, LevelB1.IsKnown())
}

func TestParseGoal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GoalStudyAbroad, ParseGoal("study_abroad"))
	assert.Equal(t, GoalJob, ParseGoal(" JOB "))
	assert.Equal(t, GoalTraining, ParseGoal("training"))
	assert.Equal(t, GoalUnknown, ParseGoal("holiday"))
	assert.Equal(t, GoalUnknown, ParseGoal(""))
}
