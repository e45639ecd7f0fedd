package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/provider"
	"github.com/igolaizola/gengallery/pkg/studio"
)

type Config struct {
	Provider provider.Config
	FFmpeg   string

	Prompt      string
	PromptFile  string
	Images      []string
	Video       string
	Effect      string
	AspectRatio string
	Duration    int
	Output      string
}

type result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Output      string `json:"output,omitempty"`
}

// Run generates a video from a prompt and one or more images or a video.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Prompt == "" && cfg.PromptFile == "" {
		return fmt.Errorf("video: prompt or prompt file is required")
	}
	if len(cfg.Images) == 0 && cfg.Video == "" {
		return fmt.Errorf("video: image or video is required")
	}
	if cfg.Provider.VideoModel == "" {
		return fmt.Errorf("video: video model is required")
	}
	client, err := provider.New(ctx, &cfg.Provider)
	if err != nil {
		return fmt.Errorf("video: couldn't create client: %w", err)
	}

	caps := studio.NewCapabilities(cfg.Provider.VideoModel, cfg.Provider.ImageModel, cfg.Provider.TextModel)
	s := studio.New(ctx, &studio.Config{
		Provider:     client,
		Frames:       &media.FFmpeg{Path: cfg.FFmpeg},
		Capabilities: caps,
		Gallery:      gallery.New(),
		Debug:        cfg.Provider.Debug,
	})
	defer func() { _ = s.Close() }()

	if err := s.SetGenerationType(studio.TypeVideo); err != nil {
		return fmt.Errorf("video: %w", err)
	}
	if err := setPrompt(s, cfg.Prompt, cfg.PromptFile); err != nil {
		return err
	}
	if cfg.Effect != "" {
		if err := s.SetEffect(ctx, cfg.Effect); err != nil {
			return fmt.Errorf("video: %w", err)
		}
	}
	settings := studio.DefaultSettings()
	if cfg.AspectRatio != "" {
		settings.AspectRatio = cfg.AspectRatio
	}
	if cfg.Duration != 0 {
		settings.Duration = cfg.Duration
	}
	if err := s.SetSettings(settings); err != nil {
		return fmt.Errorf("video: %w", err)
	}

	paths := cfg.Images
	if cfg.Video != "" {
		paths = []string{cfg.Video}
	}
	files, err := readFiles(paths)
	if err != nil {
		return err
	}
	if _, err := s.AddFiles(files); err != nil {
		return fmt.Errorf("video: couldn't add files: %w", err)
	}
	if len(s.Snapshot().Uploads) == 0 {
		return fmt.Errorf("video: no image or video found in %v", paths)
	}

	items, err := s.Generate(ctx)
	if err != nil {
		return fmt.Errorf("video: couldn't generate video: %w", err)
	}
	item := items[0]

	if cfg.Output != "" {
		if err := media.WriteDataURL(cfg.Output, item.URL); err != nil {
			return fmt.Errorf("video: couldn't save video: %w", err)
		}
	}

	js, err := json.MarshalIndent(result{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Output:      cfg.Output,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("video: couldn't marshal json: %w", err)
	}
	fmt.Println(string(js))
	return nil
}

func setPrompt(s *studio.Studio, prompt, promptFile string) error {
	if promptFile == "" {
		return s.SetPrompt(prompt)
	}
	f, err := os.Open(promptFile)
	if err != nil {
		return fmt.Errorf("video: couldn't open prompt file: %w", err)
	}
	defer func() { _ = f.Close() }()
	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	if err := s.LoadPromptFile(f, size); err != nil {
		return fmt.Errorf("video: couldn't load prompt file: %w", err)
	}
	return nil
}

func readFiles(paths []string) ([]media.File, error) {
	var files []media.File
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("video: couldn't read %s: %w", p, err)
		}
		files = append(files, media.File{Name: filepath.Base(p), Data: b})
	}
	return files, nil
}
