package genai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemInstruction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SystemPrompt, SystemInstruction(Collected{}))

	got := SystemInstruction(Collected{Goal: "job", Country: "germany"})
	assert.True(t, strings.HasPrefix(got, SystemPrompt))
	assert.True(t, strings.HasSuffix(got,
		"Already collected from user: Goal already set: job, Country already set: germany"))
	assert.NotContains(t, got, "English level already set")
}

func TestPromptsDescribeDataBlock(t *testing.T) {
	t.Parallel()

	for _, p := range []string{SystemPrompt, GreetingPrompt} {
		assert.Contains(t, p, "```json")
		assert.Contains(t, p, `"englishLevel"`)
	}
}
