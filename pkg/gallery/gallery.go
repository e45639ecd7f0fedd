package gallery

import (
	"sync"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// Artwork is a generated video or image. Description always holds the prompt
// that produced it.
type Artwork struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        Kind   `json:"type"`
	URL         string `json:"url"`
}

// Gallery is the list of artworks of a session, newest first.
type Gallery struct {
	sync.RWMutex
	items []Artwork
}

// New returns a gallery holding the given items in order.
func New(items ...Artwork) *Gallery {
	g := &Gallery{}
	g.items = append(g.items, items...)
	return g
}

// Prepend inserts items at the head keeping their relative order.
func (g *Gallery) Prepend(items ...Artwork) {
	if len(items) == 0 {
		return
	}
	g.Lock()
	defer g.Unlock()
	next := make([]Artwork, 0, len(items)+len(g.items))
	next = append(next, items...)
	g.items = append(next, g.items...)
}

func (g *Gallery) List() []Artwork {
	g.RLock()
	defer g.RUnlock()
	out := make([]Artwork, len(g.items))
	copy(out, g.items)
	return out
}

func (g *Gallery) Get(id string) (Artwork, bool) {
	g.RLock()
	defer g.RUnlock()
	for _, a := range g.items {
		if a.ID == id {
			return a, true
		}
	}
	return Artwork{}, false
}

func (g *Gallery) Len() int {
	g.RLock()
	defer g.RUnlock()
	return len(g.items)
}
