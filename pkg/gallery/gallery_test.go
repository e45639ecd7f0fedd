package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepend(t *testing.T) {
	g := New(Samples...)
	require.Equal(t, 2, g.Len())

	g.Prepend(Artwork{ID: "a", Kind: KindImage}, Artwork{ID: "b", Kind: KindImage})
	g.Prepend(Artwork{ID: "c", Kind: KindVideo})
	g.Prepend()

	var ids []string
	for _, a := range g.List() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"c", "a", "b", "1", "2"}, ids)
}

func TestGet(t *testing.T) {
	g := New(Samples...)
	a, ok := g.Get("2")
	require.True(t, ok)
	assert.Equal(t, "Claymation: Robot's Existential Crisis", a.Title)
	assert.NotEmpty(t, a.Description)

	_, ok = g.Get("missing")
	assert.False(t, ok)
}

func TestListIsACopy(t *testing.T) {
	g := New(Samples...)
	list := g.List()
	list[0].Title = "changed"
	a, _ := g.Get(list[0].ID)
	assert.NotEqual(t, "changed", a.Title)

	// The package level samples are not shared with the gallery.
	g.Prepend(Artwork{ID: "x"})
	assert.Equal(t, "1", Samples[0].ID)
}
