package assist

import (
	"context"
	"fmt"

	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/provider"
	"github.com/igolaizola/gengallery/pkg/studio"
)

type Config struct {
	Provider provider.Config
	Prompt   string
}

// Run expands a few keywords into a detailed prompt and prints it.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Prompt == "" {
		return fmt.Errorf("assist: prompt is required")
	}
	if cfg.Provider.TextModel == "" {
		return fmt.Errorf("assist: text model is required")
	}
	client, err := provider.New(ctx, &cfg.Provider)
	if err != nil {
		return fmt.Errorf("assist: couldn't create client: %w", err)
	}
	caps := studio.NewCapabilities(cfg.Provider.VideoModel, cfg.Provider.ImageModel, cfg.Provider.TextModel)
	s := studio.New(ctx, &studio.Config{
		Provider:     client,
		Capabilities: caps,
		Gallery:      gallery.New(),
		Debug:        cfg.Provider.Debug,
	})
	defer func() { _ = s.Close() }()

	if err := s.SetPrompt(cfg.Prompt); err != nil {
		return fmt.Errorf("assist: %w", err)
	}
	text, err := s.Assist(ctx)
	if err != nil {
		return fmt.Errorf("assist: couldn't expand prompt: %w", err)
	}
	fmt.Println(text)
	return nil
}
