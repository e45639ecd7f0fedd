package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		effect string
		want   string
	}{
		{"none", None, "a cat"},
		{"anime", "Anime", "a cat, anime style, vibrant colors, cel-shaded"},
		{"digital drawing", "Digital Drawing", "a cat, digital art style, clean lines, vibrant flat colors, graphic novel look"},
		{"unknown", "Sepia", "a cat"},
		{"empty", "", "a cat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply("a cat", tt.effect))
		})
	}
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 10)
	assert.Equal(t, None, all[0].Name)
	assert.Empty(t, all[0].Suffix)

	// Mutating the copy must not leak into the package list.
	all[1].Suffix = "changed"
	e, ok := Lookup(all[1].Name)
	assert.True(t, ok)
	assert.NotEqual(t, "changed", e.Suffix)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Effect{Name: None}, Default())
}
