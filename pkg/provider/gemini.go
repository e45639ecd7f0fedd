package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/igolaizola/gengallery/pkg/fhttp"
	"github.com/igolaizola/gengallery/pkg/metrics"
	"google.golang.org/genai"
)

// Default model names.
const (
	DefaultVideoModel = "veo-2.0-generate-001"
	DefaultImageModel = "imagen-4.0-generate-001"
	DefaultTextModel  = "gemini-2.5-flash"
)

// DefaultWait is the delay between two status checks of a video operation.
const DefaultWait = 10 * time.Second

type models interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type operations interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// Gemini generates content with the Gemini API.
type Gemini struct {
	models     models
	operations operations
	client     fhttp.Doer
	apiKey     string
	interval   time.Duration
	debug      bool
	metrics    *metrics.Metrics

	VideoModel string
	ImageModel string
	TextModel  string
}

type Config struct {
	APIKey  string
	Wait    time.Duration
	Debug   bool
	Timeout time.Duration
	Proxy   string
	Metrics *metrics.Metrics

	VideoModel string
	ImageModel string
	TextModel  string
}

func New(ctx context.Context, cfg *Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't create genai client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	httpClient, err := fhttp.NewClient(timeout, cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't create http client: %w", err)
	}
	return newGemini(client.Models, client.Operations, httpClient, cfg), nil
}

func newGemini(m models, ops operations, client fhttp.Doer, cfg *Config) *Gemini {
	wait := cfg.Wait
	if wait == 0 {
		wait = DefaultWait
	}
	return &Gemini{
		models:     m,
		operations: ops,
		client:     client,
		apiKey:     cfg.APIKey,
		interval:   wait,
		debug:      cfg.Debug,
		metrics:    cfg.Metrics,
		VideoModel: cfg.VideoModel,
		ImageModel: cfg.ImageModel,
		TextModel:  cfg.TextModel,
	}
}

func (g *Gemini) log(format string, args ...interface{}) {
	if g.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// GenerateVideos submits a video generation job and waits for its results.
func (g *Gemini) GenerateVideos(ctx context.Context, req *VideoRequest) ([]Asset, error) {
	if g.VideoModel == "" {
		return nil, fmt.Errorf("%w: video", ErrDisabled)
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	var image *genai.Image
	if req.Image != nil {
		image = &genai.Image{
			ImageBytes: req.Image.Data,
			MIMEType:   req.Image.MIMEType,
		}
	}
	g.log("provider: generate videos model=%s aspect=%s image=%t prompt=%q", g.VideoModel, req.AspectRatio, image != nil, req.Prompt)
	op, err := g.models.GenerateVideos(ctx, g.VideoModel, req.Prompt, image, &genai.GenerateVideosConfig{
		NumberOfVideos: int32(count),
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't start video generation: %w", err)
	}
	return g.wait(ctx, op)
}

// GenerateImages generates images synchronously.
func (g *Gemini) GenerateImages(ctx context.Context, req *ImageRequest) ([]Asset, error) {
	if g.ImageModel == "" {
		return nil, fmt.Errorf("%w: image", ErrDisabled)
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	g.log("provider: generate images model=%s n=%d aspect=%s prompt=%q", g.ImageModel, count, req.AspectRatio, req.Prompt)
	resp, err := g.models.GenerateImages(ctx, g.ImageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		OutputMIMEType: mime,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't generate images: %w", err)
	}
	var assets []Asset
	for _, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			continue
		}
		m := img.Image.MIMEType
		if m == "" {
			m = mime
		}
		assets = append(assets, Asset{MIMEType: m, Data: img.Image.ImageBytes})
	}
	if len(assets) == 0 {
		return nil, ErrNoImages
	}
	return assets, nil
}

// GenerateText runs a single text generation with optional inline images.
func (g *Gemini) GenerateText(ctx context.Context, req *TextRequest) (string, error) {
	if g.TextModel == "" {
		return "", fmt.Errorf("%w: text", ErrDisabled)
	}
	var parts []*genai.Part
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Text))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var config *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}
	g.log("provider: generate text model=%s images=%d", g.TextModel, len(req.Images))
	resp, err := g.models.GenerateContent(ctx, g.TextModel, contents, config)
	if err != nil {
		return "", fmt.Errorf("provider: couldn't generate text: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("provider: empty text response")
	}
	return text, nil
}

func operationError(op *genai.GenerateVideosOperation) error {
	if len(op.Error) == 0 {
		return nil
	}
	js, err := json.Marshal(op.Error)
	if err != nil {
		return fmt.Errorf("provider: operation %s failed", op.Name)
	}
	return fmt.Errorf("provider: operation %s failed: %s", op.Name, string(js))
}
