package image

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudio(t *testing.T) *studio.Studio {
	t.Helper()
	s := studio.New(context.Background(), &studio.Config{
		Capabilities: studio.Capabilities{Image: true},
		Gallery:      gallery.New(),
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetPromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("a lighthouse at dusk"), 0o644))

	s := newStudio(t)
	require.NoError(t, setPrompt(s, "ignored", path))
	assert.Equal(t, "a lighthouse at dusk", s.Snapshot().Prompt)
}

func TestSetPromptInline(t *testing.T) {
	s := newStudio(t)
	require.NoError(t, setPrompt(s, "a red fox", ""))
	assert.Equal(t, "a red fox", s.Snapshot().Prompt)
}

func TestSetPromptMissingFile(t *testing.T) {
	s := newStudio(t)
	err := setPrompt(s, "", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "image: couldn't open prompt file")
}

func TestRunRequiresPrompt(t *testing.T) {
	err := Run(context.Background(), &Config{})
	assert.EqualError(t, err, "image: prompt or prompt file is required")
}
