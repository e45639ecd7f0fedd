package image

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

	Prompt      string
	PromptFile  string
	Effect      string
	AspectRatio string
	N           int
	Output      string
}

type result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Output      string `json:"output,omitempty"`
}

// Run generates images from a text prompt and saves them in the output
// directory.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Prompt == "" && cfg.PromptFile == "" {
		return fmt.Errorf("image: prompt or prompt file is required")
	}
	if cfg.Provider.ImageModel == "" {
		return fmt.Errorf("image: image model is required")
	}
	client, err := provider.New(ctx, &cfg.Provider)
	if err != nil {
		return fmt.Errorf("image: couldn't create client: %w", err)
	}

	caps := studio.NewCapabilities(cfg.Provider.VideoModel, cfg.Provider.ImageModel, cfg.Provider.TextModel)
	s := studio.New(ctx, &studio.Config{
		Provider:     client,
		Capabilities: caps,
		Gallery:      gallery.New(),
		Debug:        cfg.Provider.Debug,
	})
	defer func() { _ = s.Close() }()

	if err := s.SetGenerationType(studio.TypeImage); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	if err := setPrompt(s, cfg.Prompt, cfg.PromptFile); err != nil {
		return err
	}
	if cfg.Effect != "" {
		if err := s.SetEffect(ctx, cfg.Effect); err != nil {
			return fmt.Errorf("image: %w", err)
		}
	}
	settings := studio.DefaultSettings()
	if cfg.AspectRatio != "" {
		settings.AspectRatio = cfg.AspectRatio
	}
	if cfg.N != 0 {
		settings.NumberOfImages = cfg.N
	}
	if err := s.SetSettings(settings); err != nil {
		return fmt.Errorf("image: %w", err)
	}

	items, err := s.Generate(ctx)
	if err != nil {
		return fmt.Errorf("image: couldn't generate images: %w", err)
	}

	var results []result
	for _, item := range items {
		r := result{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
		}
		if cfg.Output != "" {
			r.Output = filepath.Join(cfg.Output, item.ID+".jpg")
			if err := media.WriteDataURL(r.Output, item.URL); err != nil {
				return fmt.Errorf("image: couldn't save image: %w", err)
			}
		}
		results = append(results, r)
	}

	js, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("image: couldn't marshal json: %w", err)
	}
	fmt.Println(string(js))
	return nil
}

func setPrompt(s *studio.Studio, prompt, promptFile string) error {
	if promptFile == "" {
		if err := s.SetPrompt(prompt); err != nil {
			return fmt.Errorf("image: %w", err)
		}
		return nil
	}
	f, err := os.Open(promptFile)
	if err != nil {
		return fmt.Errorf("image: couldn't open prompt file: %w", err)
	}
	defer func() { _ = f.Close() }()
	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	if err := s.LoadPromptFile(f, size); err != nil {
		return fmt.Errorf("image: couldn't load prompt file: %w", err)
	}
	return nil
}
