package media

import (
	"errors"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// ErrVideoPresent is returned when files are added while a video is selected.
var ErrVideoPresent = errors.New("media: a video is already selected")

// File is a file selected by the user.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Upload is a selected file ready to be used as generation input.
type Upload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Kind     Kind   `json:"kind"`
	Preview  string `json:"-"`
	Data     []byte `json:"-"`
}

// DetectKind classifies a file as image or video. The declared MIME type is
// trusted unless it is empty or generic, in which case the content is sniffed.
func DetectKind(f File) (Kind, string, bool) {
	mime := f.MIMEType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))
	if mime == "" || mime == "application/octet-stream" {
		mime = mimetype.Detect(f.Data).String()
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = mime[:i]
		}
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage, mime, true
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, mime, true
	default:
		return "", mime, false
	}
}

func newUpload(f File, kind Kind, mime string) Upload {
	return Upload{
		ID:       uuid.NewString(),
		Name:     f.Name,
		MIMEType: mime,
		Kind:     kind,
		Preview:  DataURL(mime, f.Data),
		Data:     f.Data,
	}
}

// Set holds the current selection: either any number of images or a single
// video, never both.
type Set struct {
	sync.Mutex
	uploads []Upload
}

// Add adds files to the set.
// A video replaces everything selected so far, and nothing can be added once
// a video is selected. Files that are neither images nor videos are ignored.
func (s *Set) Add(files []File) ([]Upload, error) {
	s.Lock()
	defer s.Unlock()

	if s.hasVideo() {
		return nil, ErrVideoPresent
	}

	for _, f := range files {
		kind, mime, ok := DetectKind(f)
		if ok && kind == KindVideo {
			u := newUpload(f, kind, mime)
			s.uploads = []Upload{u}
			return []Upload{u}, nil
		}
	}

	var added []Upload
	for _, f := range files {
		kind, mime, ok := DetectKind(f)
		if !ok || kind != KindImage {
			continue
		}
		added = append(added, newUpload(f, kind, mime))
	}
	s.uploads = append(s.uploads, added...)
	return added, nil
}

// Remove removes the upload with the given id. It reports whether it existed.
func (s *Set) Remove(id string) bool {
	s.Lock()
	defer s.Unlock()
	for i, u := range s.uploads {
		if u.ID == id {
			s.uploads = append(s.uploads[:i:i], s.uploads[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Clear() {
	s.Lock()
	defer s.Unlock()
	s.uploads = nil
}

// List returns a copy of the current uploads.
func (s *Set) List() []Upload {
	s.Lock()
	defer s.Unlock()
	out := make([]Upload, len(s.uploads))
	copy(out, s.uploads)
	return out
}

func (s *Set) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.uploads)
}

func (s *Set) HasVideo() bool {
	s.Lock()
	defer s.Unlock()
	return s.hasVideo()
}

func (s *Set) hasVideo() bool {
	for _, u := range s.uploads {
		if u.Kind == KindVideo {
			return true
		}
	}
	return false
}

// AllImages reports whether the set is non-empty and holds only images.
func (s *Set) AllImages() bool {
	s.Lock()
	defer s.Unlock()
	if len(s.uploads) == 0 {
		return false
	}
	for _, u := range s.uploads {
		if u.Kind != KindImage {
			return false
		}
	}
	return true
}
