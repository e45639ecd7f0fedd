package provider

import (
	"context"
	"errors"

	"github.com/igolaizola/gengallery/pkg/media"
)

var (
	ErrNoVideos = errors.New("provider: no videos generated")
	ErrNoImages = errors.New("provider: no images generated")
	ErrDisabled = errors.New("provider: model not configured")
)

// Asset is a generated file.
type Asset struct {
	MIMEType string
	Data     []byte
}

// DataURL returns the asset as a self-contained data URL.
func (a Asset) DataURL() string {
	return media.DataURL(a.MIMEType, a.Data)
}

// Image is an inline image sent to the provider.
type Image struct {
	MIMEType string
	Data     []byte
}

type VideoRequest struct {
	Prompt      string
	Image       *Image
	AspectRatio string
	Count       int
}

type ImageRequest struct {
	Prompt      string
	Count       int
	AspectRatio string
	MIMEType    string
}

type TextRequest struct {
	SystemInstruction string
	Images            []Image
	Text              string
}

// Provider is a hosted generative-AI service.
type Provider interface {
	// GenerateVideos submits a video job and blocks until it completes.
	GenerateVideos(ctx context.Context, req *VideoRequest) ([]Asset, error)
	GenerateImages(ctx context.Context, req *ImageRequest) ([]Asset, error)
	GenerateText(ctx context.Context, req *TextRequest) (string, error)
}
