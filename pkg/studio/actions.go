package studio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/igolaizola/gengallery/pkg/effect"
	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/provider"
)

const assistInstruction = "You are a creative assistant for a video generation tool. Your task is to take the user-provided keywords and expand them into a single, detailed, and vivid paragraph suitable for generating a high-quality video. Focus on visual details, camera movements, lighting, and mood."

const synthesisTemplate = `Based on the user's prompt "%s" and the provided images, create a single, detailed, and vivid paragraph describing a scene for a video. The scene should creatively incorporate elements from all the images. For example, you could take a character from one image and place them in the scene of another. Be descriptive about visual details, camera movements, lighting, and mood. This description will be used to generate a high-quality video.`

var (
	assistEmptyLines  = []string{"Please enter some keywords to get assistance."}
	assistFailedLines = []string{"Failed to get prompt assistance from the AI."}
	generateLines     = []string{
		"Generation failed. This may be due to a network issue or an invalid API key or model name.",
		"Please check your configuration and try again.",
	}
	remixLines = []string{
		"Video generation failed. This may be due to a network issue or an invalid API key or model name.",
		"Please check your configuration and try again.",
	}
)

// UserError is a failed action along with the lines to show to the user.
type UserError struct {
	Lines []string
	Err   error
}

func newUserError(err error, lines ...string) *UserError {
	return &UserError{Lines: append([]string(nil), lines...), Err: err}
}

func (e *UserError) Error() string {
	msg := strings.Join(e.Lines, " ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Assist expands the current prompt into a detailed paragraph.
func (s *Studio) Assist(ctx context.Context) (string, error) {
	s.Lock()
	if s.busy() {
		s.Unlock()
		return "", ErrBusy
	}
	if s.prompt == "" {
		s.errLines = assistEmptyLines
		s.Unlock()
		return "", newUserError(ErrNotReady, assistEmptyLines...)
	}
	if !s.caps.Assist {
		s.Unlock()
		return "", fmt.Errorf("%w: assist", ErrDisabled)
	}
	s.assisting = true
	s.errLines = nil
	prompt := s.prompt
	s.Unlock()

	text, err := s.provider.GenerateText(ctx, &provider.TextRequest{
		SystemInstruction: assistInstruction,
		Text:              prompt,
	})
	s.metrics.RecordAssist(err)

	s.Lock()
	defer s.Unlock()
	s.assisting = false
	if err != nil {
		log.Println(fmt.Errorf("studio: prompt assistance failed: %w", err))
		s.errLines = assistFailedLines
		return "", newUserError(err, assistFailedLines...)
	}
	s.prompt = text
	s.hasAssisted = true
	return text, nil
}

type generation struct {
	prompt   string
	effect   string
	kind     GenerationType
	settings Settings
	uploads  []media.Upload
}

// Generate sends the current prompt, media and settings to the provider.
// On success the new items are prepended to the gallery and the prompt and
// media selection are cleared. On failure the gallery is left untouched.
func (s *Studio) Generate(ctx context.Context) ([]gallery.Artwork, error) {
	s.Lock()
	if s.busy() {
		s.Unlock()
		return nil, ErrBusy
	}
	if !s.canGenerate() {
		s.Unlock()
		return nil, ErrNotReady
	}
	s.generating = true
	s.errLines = nil
	g := generation{
		prompt:   s.prompt,
		effect:   s.effect,
		kind:     s.generationType,
		settings: s.settings,
		uploads:  s.uploads.List(),
	}
	s.Unlock()

	start := time.Now()
	items, err := s.generate(ctx, &g)
	s.metrics.RecordGeneration(string(g.kind), start, err)

	s.Lock()
	defer s.Unlock()
	s.generating = false
	s.creatingPrompt = false
	if err != nil {
		log.Println(fmt.Errorf("studio: generation failed: %w", err))
		s.errLines = generateLines
		return nil, newUserError(err, generateLines...)
	}
	s.gallery.Prepend(items...)
	if g.kind == TypeVideo {
		s.playing = items[0].ID
	} else {
		s.viewing = items[0].ID
	}
	s.prompt = ""
	s.uploads.Clear()
	s.hasAssisted = false
	return items, nil
}

func (s *Studio) generate(ctx context.Context, g *generation) ([]gallery.Artwork, error) {
	full := effect.Apply(g.prompt, g.effect)
	s.log("studio: generating %s: %q", g.kind, full)

	switch g.kind {
	case TypeVideo:
		final := full
		if len(g.uploads) > 1 && allImages(g.uploads) && s.caps.Assist {
			text, err := s.synthesize(ctx, g.prompt, g.uploads)
			if err != nil {
				return nil, err
			}
			final = text
		}

		seed, err := s.seedImage(ctx, g.uploads[0])
		if err != nil {
			return nil, err
		}
		final += fmt.Sprintf(" The video should be approximately %d seconds long.", g.settings.Duration)

		assets, err := s.provider.GenerateVideos(ctx, &provider.VideoRequest{
			Prompt:      final,
			Image:       seed,
			AspectRatio: g.settings.AspectRatio,
			Count:       1,
		})
		if err != nil {
			return nil, err
		}
		if len(assets) == 0 {
			return nil, errors.New("studio: video generation returned no data")
		}
		return []gallery.Artwork{{
			ID:          uuid.NewString(),
			Title:       "Video from prompt: " + head(g.prompt, 30) + "...",
			Description: full,
			Kind:        gallery.KindVideo,
			URL:         assets[0].DataURL(),
		}}, nil
	case TypeImage:
		assets, err := s.provider.GenerateImages(ctx, &provider.ImageRequest{
			Prompt:      full,
			Count:       g.settings.NumberOfImages,
			AspectRatio: g.settings.AspectRatio,
			MIMEType:    "image/jpeg",
		})
		if err != nil {
			return nil, err
		}
		if len(assets) == 0 {
			return nil, errors.New("studio: image generation returned no data")
		}
		items := make([]gallery.Artwork, 0, len(assets))
		for _, a := range assets {
			items = append(items, gallery.Artwork{
				ID:          uuid.NewString(),
				Title:       "Image from prompt: " + head(g.prompt, 30) + "...",
				Description: full,
				Kind:        gallery.KindImage,
				URL:         a.DataURL(),
			})
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: generation type %q", ErrDisabled, g.kind)
	}
}

// synthesize writes a scene description combining every image with the
// user prompt. The result replaces the current prompt.
func (s *Studio) synthesize(ctx context.Context, prompt string, uploads []media.Upload) (string, error) {
	s.Lock()
	s.creatingPrompt = true
	s.Unlock()

	images := make([]provider.Image, 0, len(uploads))
	for _, u := range uploads {
		images = append(images, provider.Image{MIMEType: u.MIMEType, Data: u.Data})
	}
	text, err := s.provider.GenerateText(ctx, &provider.TextRequest{
		Images: images,
		Text:   fmt.Sprintf(synthesisTemplate, prompt),
	})

	s.Lock()
	defer s.Unlock()
	s.creatingPrompt = false
	if err != nil {
		return "", fmt.Errorf("studio: couldn't create prompt from images: %w", err)
	}
	s.prompt = text
	return text, nil
}

// seedImage returns the image that starts the video: the first frame of a
// video upload or the image itself.
func (s *Studio) seedImage(ctx context.Context, u media.Upload) (*provider.Image, error) {
	if u.Kind == media.KindVideo {
		f, err := s.frames.FirstFrame(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("studio: couldn't extract frame: %w", err)
		}
		return &provider.Image{MIMEType: f.MIMEType, Data: f.Data}, nil
	}
	return &provider.Image{MIMEType: u.MIMEType, Data: u.Data}, nil
}

// Remix generates a new item from the description of an existing one.
func (s *Studio) Remix(ctx context.Context, id string) (gallery.Artwork, error) {
	orig, ok := s.gallery.Get(id)
	if !ok {
		return gallery.Artwork{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.Lock()
	if s.busy() {
		s.Unlock()
		return gallery.Artwork{}, ErrBusy
	}
	switch {
	case orig.Kind == gallery.KindVideo && !s.caps.Video:
		s.Unlock()
		return gallery.Artwork{}, fmt.Errorf("%w: video", ErrDisabled)
	case orig.Kind == gallery.KindImage && !s.caps.Image:
		s.Unlock()
		return gallery.Artwork{}, fmt.Errorf("%w: image", ErrDisabled)
	}
	s.generating = true
	s.errLines = nil
	s.Unlock()

	start := time.Now()
	item, err := s.remix(ctx, orig)
	s.metrics.RecordGeneration("remix", start, err)

	s.Lock()
	defer s.Unlock()
	s.generating = false
	if err != nil {
		log.Println(fmt.Errorf("studio: remix failed: %w", err))
		s.errLines = remixLines
		return gallery.Artwork{}, newUserError(err, remixLines...)
	}
	s.gallery.Prepend(item)
	if item.Kind == gallery.KindVideo {
		s.playing = item.ID
	} else {
		s.viewing = item.ID
	}
	return item, nil
}

func (s *Studio) remix(ctx context.Context, orig gallery.Artwork) (gallery.Artwork, error) {
	var assets []provider.Asset
	var err error
	if orig.Kind == gallery.KindVideo {
		assets, err = s.provider.GenerateVideos(ctx, &provider.VideoRequest{
			Prompt:      orig.Description,
			AspectRatio: DefaultAspectRatio,
			Count:       1,
		})
	} else {
		assets, err = s.provider.GenerateImages(ctx, &provider.ImageRequest{
			Prompt:      orig.Description,
			Count:       1,
			AspectRatio: DefaultAspectRatio,
			MIMEType:    "image/jpeg",
		})
	}
	if err != nil {
		return gallery.Artwork{}, err
	}
	if len(assets) == 0 {
		return gallery.Artwork{}, errors.New("studio: remix returned no data")
	}
	return gallery.Artwork{
		ID:          uuid.NewString(),
		Title:       `Remix of "` + orig.Title + `"`,
		Description: orig.Description,
		Kind:        orig.Kind,
		URL:         assets[0].DataURL(),
	}, nil
}

func allImages(uploads []media.Upload) bool {
	for _, u := range uploads {
		if u.Kind != media.KindImage {
			return false
		}
	}
	return len(uploads) > 0
}

// head returns the first n runes of s.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
