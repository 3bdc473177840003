package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	t.Parallel()

	t.Run("extracts first block", func(t *testing.T) {
		t.Parallel()
		raw := "Great, Germany it is!\n```json\n{\"phase\":\"ask_english\",\"goal\":\"job\",\"country\":\"germany\",\"englishLevel\":null}\n```"
		visible, ext, err := ParseReply(raw)
		require.NoError(t, err)
		assert.Equal(t, "Great, Germany it is!", visible)
		require.NotNil(t, ext)
		assert.Equal(t, "ask_english", *ext.Phase)
		assert.Equal(t, "job", *ext.Goal)
		assert.Equal(t, "germany", *ext.Country)
		assert.Nil(t, ext.EnglishLevel)
		assert.Nil(t, ext.NativeLevel)
	})

	t.Run("later blocks are stripped but ignored", func(t *testing.T) {
		t.Parallel()
		raw := "Hi ```json {\"goal\":\"training\"} ``` there ```json {\"goal\":\"job\"} ```"
		visible, ext, err := ParseReply(raw)
		require.NoError(t, err)
		assert.Equal(t, "Hi  there", visible)
		assert.Equal(t, "training", *ext.Goal)
	})

	t.Run("no block", func(t *testing.T) {
		t.Parallel()
		visible, ext, err := ParseReply("  Just text  ")
		require.ErrorIs(t, err, ErrNoDataBlock)
		assert.Nil(t, ext)
		assert.Equal(t, "Just text", visible)
	})

	t.Run("malformed block", func(t *testing.T) {
		t.Parallel()
		visible, ext, err := ParseReply("Text\n```json\n{goal: job\n```")
		require.ErrorIs(t, err, ErrMalformedDataBlock)
		assert.Nil(t, ext)
		assert.Equal(t, "Text", visible)
	})

	t.Run("non-object block", func(t *testing.T) {
		t.Parallel()
		for _, block := range []string{"[1,2]", "null", "[]", `"x"`, "42", "true"} {
			_, ext, err := ParseReply("Text\n```json\n" + block + "\n```")
			assert.ErrorIs(t, err, ErrMalformedDataBlock, block)
			assert.Nil(t, ext, block)
		}
	})

	t.Run("empty object block", func(t *testing.T) {
		t.Parallel()
		_, ext, err := ParseReply("```json\n  {}  \n```")
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Nil(t, ext.Goal)
	})
}
