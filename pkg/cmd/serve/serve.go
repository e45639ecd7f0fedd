package serve

import (
	"context"
	"fmt"
	"log"

	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/metrics"
	"github.com/igolaizola/gengallery/pkg/prefs"
	"github.com/igolaizola/gengallery/pkg/provider"
	"github.com/igolaizola/gengallery/pkg/server"
	"github.com/igolaizola/gengallery/pkg/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Config struct {
	Provider provider.Config
	Addr     string
	FFmpeg   string
	Prefs    string
}

// Run serves the gallery until the context is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("serve: address is required")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg, "")

	providerCfg := cfg.Provider
	providerCfg.Metrics = m
	client, err := provider.New(ctx, &providerCfg)
	if err != nil {
		return fmt.Errorf("serve: couldn't create client: %w", err)
	}

	store, err := prefs.Open(ctx, cfg.Prefs)
	if err != nil {
		return fmt.Errorf("serve: couldn't open preferences: %w", err)
	}

	caps := studio.NewCapabilities(providerCfg.VideoModel, providerCfg.ImageModel, providerCfg.TextModel)
	if !caps.Video && !caps.Image {
		log.Println("serve: no video or image model configured, generation is disabled")
	}
	s := studio.New(ctx, &studio.Config{
		Provider:     client,
		Frames:       &media.FFmpeg{Path: cfg.FFmpeg},
		Prefs:        store,
		Metrics:      m,
		Capabilities: caps,
		Debug:        providerCfg.Debug,
	})
	defer func() {
		if err := s.Close(); err != nil {
			log.Println(fmt.Errorf("serve: couldn't close preferences: %w", err))
		}
	}()

	return server.Serve(ctx, &server.Config{
		Addr:     cfg.Addr,
		Studio:   s,
		Metrics:  m,
		Gatherer: reg,
		Debug:    providerCfg.Debug,
	})
}
