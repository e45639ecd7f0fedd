package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/igolaizola/gengallery/pkg/fhttp"
	"google.golang.org/genai"
)

// wait polls the operation until the provider reports it done and then
// downloads every generated video.
func (g *Gemini) wait(ctx context.Context, op *genai.GenerateVideosOperation) ([]Asset, error) {
	if op == nil {
		return nil, ErrNoVideos
	}
	var err error
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("provider: %w", ctx.Err())
		case <-time.After(g.interval):
		}
		g.log("provider: operation %s: generating...", op.Name)
		g.metrics.RecordPoll()
		op, err = g.operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("provider: couldn't get operation: %w", err)
		}
		if op == nil {
			return nil, ErrNoVideos
		}
	}
	if err := operationError(op); err != nil {
		return nil, err
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, ErrNoVideos
	}

	assets := make([]Asset, 0, len(op.Response.GeneratedVideos))
	for _, v := range op.Response.GeneratedVideos {
		if v == nil || v.Video == nil {
			return nil, ErrNoVideos
		}
		mime := v.Video.MIMEType
		if mime == "" {
			mime = "video/mp4"
		}
		if len(v.Video.VideoBytes) > 0 {
			assets = append(assets, Asset{MIMEType: mime, Data: v.Video.VideoBytes})
			continue
		}
		if v.Video.URI == "" {
			return nil, ErrNoVideos
		}
		a, err := g.fetch(ctx, v.Video.URI)
		if err != nil {
			return nil, err
		}
		if a.MIMEType == "" {
			a.MIMEType = mime
		}
		assets = append(assets, *a)
	}
	return assets, nil
}

// fetch downloads a generated asset. Download links require the API key as
// a query parameter.
func (g *Gemini) fetch(ctx context.Context, uri string) (*Asset, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't parse asset uri %q: %w", uri, err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	b, mime, err := fhttp.Get(ctx, g.client, u.String())
	if err != nil {
		return nil, fmt.Errorf("provider: couldn't fetch video: %w", err)
	}
	if !strings.HasPrefix(mime, "video/") {
		mime = ""
	}
	g.log("provider: fetched %d bytes from %s", len(b), u.Host)
	return &Asset{MIMEType: mime, Data: b}, nil
}
