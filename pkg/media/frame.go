package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// Frame is a still image extracted from a video.
type Frame struct {
	MIMEType string
	Data     []byte
}

type FrameExtractor interface {
	FirstFrame(ctx context.Context, video Upload) (*Frame, error)
}

// FFmpeg extracts frames with the ffmpeg binary.
type FFmpeg struct {
	// Path to the ffmpeg binary, "ffmpeg" if empty.
	Path string
}

// FirstFrame returns the first frame of the video encoded as JPEG.
func (f *FFmpeg) FirstFrame(ctx context.Context, video Upload) (*Frame, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	dir, err := os.MkdirTemp("", "gengallery-frame-")
	if err != nil {
		return nil, fmt.Errorf("media: couldn't create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Println(fmt.Errorf("media: couldn't remove temp dir: %w", err))
		}
	}()

	ext := filepath.Ext(video.Name)
	if ext == "" {
		ext = ".mp4"
	}
	in := filepath.Join(dir, "input"+ext)
	if err := os.WriteFile(in, video.Data, 0644); err != nil {
		return nil, fmt.Errorf("media: couldn't write video: %w", err)
	}
	out := filepath.Join(dir, "frame.jpg")

	// Extract the first frame using the following command:
	// ffmpeg -i input.mp4 -frames:v 1 -q:v 1 frame.jpg
	cmd := exec.CommandContext(ctx, bin, "-i", in, "-frames:v", "1", "-q:v", "1", "-y", out)
	cmdOut, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("media: couldn't extract first frame (%s): %w", string(cmdOut), err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("media: couldn't read frame: %w", err)
	}
	return &Frame{MIMEType: "image/jpeg", Data: b}, nil
}
