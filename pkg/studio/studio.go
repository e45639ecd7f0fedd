package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/igolaizola/gengallery/pkg/effect"
	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/metrics"
	"github.com/igolaizola/gengallery/pkg/prefs"
	"github.com/igolaizola/gengallery/pkg/provider"
)

type GenerationType string

const (
	TypeVideo GenerationType = "video"
	TypeImage GenerationType = "image"
	TypeNone  GenerationType = "none"
)

var (
	ErrBusy           = errors.New("studio: a request is already in progress")
	ErrNotReady       = errors.New("studio: prompt or media missing")
	ErrUploadDisabled = errors.New("studio: media upload disabled for image generation")
	ErrNotFound       = errors.New("studio: item not found")
	ErrUnknownEffect  = errors.New("studio: unknown effect")
	ErrInvalidSetting = errors.New("studio: invalid setting")
	ErrDisabled       = errors.New("studio: capability not configured")
)

// AspectRatios are the accepted output aspect ratios.
var AspectRatios = []string{"16:9", "9:16", "1:1", "4:3", "3:4"}

const (
	DefaultAspectRatio = "16:9"
	DefaultDuration    = 4
	MaxDuration        = 10
	MaxImages          = 4
)

// Capabilities tells which generation features have a model configured.
type Capabilities struct {
	Video  bool `json:"video"`
	Image  bool `json:"image"`
	Assist bool `json:"assist"`
}

type Settings struct {
	AspectRatio    string `json:"aspectRatio"`
	Duration       int    `json:"duration"`
	NumberOfImages int    `json:"numberOfImages"`
}

// Validate reports an error if any setting is out of range.
func (s Settings) Validate() error {
	ok := false
	for _, a := range AspectRatios {
		if s.AspectRatio == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: aspect ratio %q", ErrInvalidSetting, s.AspectRatio)
	}
	if s.Duration < 1 || s.Duration > MaxDuration {
		return fmt.Errorf("%w: duration must be between 1 and %d", ErrInvalidSetting, MaxDuration)
	}
	if s.NumberOfImages < 1 || s.NumberOfImages > MaxImages {
		return fmt.Errorf("%w: number of images must be between 1 and %d", ErrInvalidSetting, MaxImages)
	}
	return nil
}

func DefaultSettings() Settings {
	return Settings{
		AspectRatio:    DefaultAspectRatio,
		Duration:       DefaultDuration,
		NumberOfImages: 1,
	}
}

type Config struct {
	Provider     provider.Provider
	Frames       media.FrameExtractor
	Prefs        prefs.Store
	Metrics      *metrics.Metrics
	Capabilities Capabilities
	Gallery      *gallery.Gallery
	Debug        bool
}

// Studio holds the state of a generation session.
type Studio struct {
	sync.Mutex

	provider provider.Provider
	frames   media.FrameExtractor
	prefs    prefs.Store
	metrics  *metrics.Metrics
	caps     Capabilities
	debug    bool

	gallery *gallery.Gallery
	uploads media.Set

	prompt         string
	generationType GenerationType
	settings       Settings
	effect         string
	hasAssisted    bool

	generating     bool
	assisting      bool
	creatingPrompt bool

	playing  string
	viewing  string
	errLines []string
}

// New creates a studio and restores the saved effect preference.
func New(ctx context.Context, cfg *Config) *Studio {
	g := cfg.Gallery
	if g == nil {
		g = gallery.New(gallery.Samples...)
	}
	frames := cfg.Frames
	if frames == nil {
		frames = &media.FFmpeg{}
	}
	store := cfg.Prefs
	if store == nil {
		store = prefs.NewMemory()
	}
	s := &Studio{
		provider: cfg.Provider,
		frames:   frames,
		prefs:    store,
		metrics:  cfg.Metrics,
		caps:     cfg.Capabilities,
		debug:    cfg.Debug,
		gallery:  g,
		settings: DefaultSettings(),
		effect:   effect.Default().Name,
	}
	switch {
	case s.caps.Video:
		s.generationType = TypeVideo
	case s.caps.Image:
		s.generationType = TypeImage
	default:
		s.generationType = TypeNone
	}

	saved, err := store.Get(ctx, prefs.EffectKey)
	switch {
	case errors.Is(err, prefs.ErrNotFound):
	case err != nil:
		log.Println(fmt.Errorf("studio: couldn't load effect preference: %w", err))
	default:
		if _, ok := effect.Lookup(saved); ok {
			s.effect = saved
		}
	}
	return s
}

func (s *Studio) log(format string, args ...interface{}) {
	if s.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

func (s *Studio) Gallery() *gallery.Gallery {
	return s.gallery
}

func (s *Studio) Capabilities() Capabilities {
	return s.caps
}

// Snapshot is a read-only view of the studio state.
type Snapshot struct {
	Prompt         string         `json:"prompt"`
	Uploads        []media.Upload `json:"uploads"`
	GenerationType GenerationType `json:"generationType"`
	Settings       Settings       `json:"settings"`
	Effect         string         `json:"effect"`
	HasAssisted    bool           `json:"hasAssisted"`
	Generating     bool           `json:"generating"`
	Assisting      bool           `json:"assisting"`
	CreatingPrompt bool           `json:"creatingPrompt"`
	CanGenerate    bool           `json:"canGenerate"`
	Playing        string         `json:"playing,omitempty"`
	Viewing        string         `json:"viewing,omitempty"`
	Error          []string       `json:"error,omitempty"`
}

func (s *Studio) Snapshot() Snapshot {
	s.Lock()
	defer s.Unlock()
	return Snapshot{
		Prompt:         s.prompt,
		Uploads:        s.uploads.List(),
		GenerationType: s.generationType,
		Settings:       s.settings,
		Effect:         s.effect,
		HasAssisted:    s.hasAssisted,
		Generating:     s.generating,
		Assisting:      s.assisting,
		CreatingPrompt: s.creatingPrompt,
		CanGenerate:    s.canGenerate(),
		Playing:        s.playing,
		Viewing:        s.viewing,
		Error:          append([]string(nil), s.errLines...),
	}
}

// CanGenerate reports whether the generate action is available.
func (s *Studio) CanGenerate() bool {
	s.Lock()
	defer s.Unlock()
	return s.canGenerate()
}

func (s *Studio) canGenerate() bool {
	switch {
	case s.prompt == "":
		return false
	case s.generationType == TypeNone:
		return false
	case s.generationType == TypeVideo && s.uploads.Len() == 0:
		return false
	case s.assisting, s.creatingPrompt, s.generating:
		return false
	}
	return true
}

func (s *Studio) busy() bool {
	return s.generating || s.assisting || s.creatingPrompt
}

// AddFiles adds media files to the selection.
func (s *Studio) AddFiles(files []media.File) ([]media.Upload, error) {
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return nil, ErrBusy
	}
	if s.generationType == TypeImage {
		return nil, ErrUploadDisabled
	}
	return s.uploads.Add(files)
}

// RemoveFile removes a file from the selection.
func (s *Studio) RemoveFile(id string) error {
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if !s.uploads.Remove(id) {
		return fmt.Errorf("%w: upload %s", ErrNotFound, id)
	}
	return nil
}

func (s *Studio) SetPrompt(prompt string) error {
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	s.prompt = prompt
	return nil
}

// LoadPromptFile replaces the prompt with the contents of a text file.
// size is the declared file size, negative if unknown.
func (s *Studio) LoadPromptFile(r io.Reader, size int64) error {
	prompt, err := media.ReadPromptFile(r, size)
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if errors.Is(err, media.ErrPromptFileTooLarge) {
		s.errLines = []string{"Prompt file is too large. Please select a file smaller than 1MB."}
		return newUserError(err, s.errLines...)
	}
	if err != nil {
		return err
	}
	s.prompt = prompt
	return nil
}

// SetEffect selects an effect and saves it as the preferred one.
func (s *Studio) SetEffect(ctx context.Context, name string) error {
	if _, ok := effect.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}
	s.Lock()
	if s.busy() {
		s.Unlock()
		return ErrBusy
	}
	s.effect = name
	s.Unlock()
	if err := s.prefs.Set(ctx, prefs.EffectKey, name); err != nil {
		return fmt.Errorf("studio: couldn't save effect: %w", err)
	}
	return nil
}

func (s *Studio) checkType(t GenerationType) error {
	switch t {
	case TypeVideo:
		if !s.caps.Video {
			return fmt.Errorf("%w: video", ErrDisabled)
		}
	case TypeImage:
		if !s.caps.Image {
			return fmt.Errorf("%w: image", ErrDisabled)
		}
	default:
		return fmt.Errorf("%w: generation type %q", ErrInvalidSetting, t)
	}
	return nil
}

func (s *Studio) SetGenerationType(t GenerationType) error {
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if err := s.checkType(t); err != nil {
		return err
	}
	s.generationType = t
	return nil
}

func (s *Studio) SetSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	s.settings = settings
	return nil
}

// Configure sets the generation type and the settings together. Nothing
// changes unless both are valid. An empty type keeps the current one.
func (s *Studio) Configure(t GenerationType, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if t != "" {
		if err := s.checkType(t); err != nil {
			return err
		}
		s.generationType = t
	}
	s.settings = settings
	return nil
}

// UsePrompt copies the description of a gallery item into the prompt.
func (s *Studio) UsePrompt(id string) error {
	a, ok := s.gallery.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Lock()
	defer s.Unlock()
	if s.busy() {
		return ErrBusy
	}
	s.prompt = a.Description
	return nil
}

// Open selects a gallery item for the player or the image viewer.
func (s *Studio) Open(id string) (gallery.Artwork, error) {
	a, ok := s.gallery.Get(id)
	if !ok {
		return gallery.Artwork{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Lock()
	defer s.Unlock()
	if a.Kind == gallery.KindVideo {
		s.playing, s.viewing = a.ID, ""
	} else {
		s.playing, s.viewing = "", a.ID
	}
	return a, nil
}

// CloseViewer closes the player and the image viewer.
func (s *Studio) CloseViewer() {
	s.Lock()
	defer s.Unlock()
	s.playing, s.viewing = "", ""
}

func (s *Studio) DismissError() {
	s.Lock()
	defer s.Unlock()
	s.errLines = nil
}

// Close closes the preference store.
func (s *Studio) Close() error {
	return s.prefs.Close()
}

// NewCapabilities enables each feature whose model name is set.
func NewCapabilities(videoModel, imageModel, textModel string) Capabilities {
	return Capabilities{
		Video:  videoModel != "",
		Image:  imageModel != "",
		Assist: textModel != "",
	}
}
