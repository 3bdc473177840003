package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Español", "espanol"},
		{"ESPAÑOL", "espanol"},
		{"Türkçe", "turkce"},
		{"En ligne", "en ligne"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestContainsAny(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsAny("i want to study", "job", "study"))
	assert.False(t, ContainsAny("hello there", "job", "study"))
	assert.False(t, ContainsAny("anything", ""))
	assert.False(t, ContainsAny("anything"))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"preparation", "testdaf", "niveau", "b2"}, Tokenize("Préparation TestDaF, niveau B2"))
	assert.Empty(t, Tokenize("  ,;  "))
}
