package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/igolaizola/gengallery/pkg/effect"
	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/studio"
)

type errorResponse struct {
	Error []string `json:"error"`
}

// fail renders err as the error lines shown to the user.
func (s *server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	lines := []string{err.Error()}

	var uerr *studio.UserError
	if errors.As(err, &uerr) {
		status = http.StatusBadGateway
		lines = uerr.Lines
	}
	switch {
	case errors.Is(err, studio.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, studio.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, studio.ErrNotReady),
		errors.Is(err, studio.ErrUnknownEffect),
		errors.Is(err, studio.ErrInvalidSetting),
		errors.Is(err, studio.ErrUploadDisabled),
		errors.Is(err, studio.ErrDisabled),
		errors.Is(err, media.ErrVideoPresent),
		errors.Is(err, media.ErrPromptFileTooLarge):
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		log.Println(fmt.Errorf("server: %s %s failed: %w", c.Request.Method, c.Request.URL.Path, err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: lines})
}

func (s *server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: []string{err.Error()}})
}

func (s *server) index(c *gin.Context) {
	state := s.studio.Snapshot()
	// The player and the image viewer share one modal.
	var open *gallery.Artwork
	for _, id := range []string{state.Playing, state.Viewing} {
		if id == "" {
			continue
		}
		if a, ok := s.studio.Gallery().Get(id); ok {
			open = &a
			break
		}
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Items":        s.studio.Gallery().List(),
		"State":        state,
		"Open":         open,
		"Capabilities": s.studio.Capabilities(),
		"Effects":      effect.All(),
		"AspectRatios": studio.AspectRatios,
	})
}

func (s *server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"capabilities": s.studio.Capabilities(),
		"effects":      effect.All(),
		"aspectRatios": studio.AspectRatios,
		"maxDuration":  studio.MaxDuration,
		"maxImages":    studio.MaxImages,
	})
}

func (s *server) listItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.studio.Gallery().List()})
}

func (s *server) getItem(c *gin.Context) {
	id := c.Param("id")
	a, ok := s.studio.Gallery().Get(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", studio.ErrNotFound, id))
		return
	}
	c.JSON(http.StatusOK, a)
}

// itemMedia serves the bytes of a generated item. Seeded items live on a
// remote host and are redirected to.
func (s *server) itemMedia(c *gin.Context) {
	id := c.Param("id")
	a, ok := s.studio.Gallery().Get(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", studio.ErrNotFound, id))
		return
	}
	if !strings.HasPrefix(a.URL, "data:") {
		c.Redirect(http.StatusFound, a.URL)
		return
	}
	mime, data, err := media.ParseDataURL(a.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, mime, data)
}

func (s *server) openItem(c *gin.Context) {
	a, err := s.studio.Open(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *server) closeViewer(c *gin.Context) {
	s.studio.CloseViewer()
	c.Status(http.StatusNoContent)
}

func (s *server) remix(c *gin.Context) {
	a, err := s.studio.Remix(s.ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *server) usePrompt(c *gin.Context) {
	if err := s.studio.UsePrompt(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": s.studio.Snapshot().Prompt})
}

func (s *server) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		s.badRequest(c, fmt.Errorf("server: couldn't parse form: %w", err))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		s.badRequest(c, errors.New("server: no files"))
		return
	}
	var files []media.File
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.badRequest(c, fmt.Errorf("server: couldn't open %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.badRequest(c, fmt.Errorf("server: couldn't read %s: %w", fh.Filename, err))
			return
		}
		files = append(files, media.File{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	added, err := s.studio.AddFiles(files)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.log("server: added %d of %d files", len(added), len(files))
	c.JSON(http.StatusCreated, gin.H{"uploads": added})
}

func (s *server) removeUpload(c *gin.Context) {
	if err := s.studio.RemoveFile(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) setPrompt(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.studio.SetPrompt(req.Prompt); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) promptFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.badRequest(c, fmt.Errorf("server: couldn't get file: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.badRequest(c, fmt.Errorf("server: couldn't open %s: %w", fh.Filename, err))
		return
	}
	defer func() { _ = f.Close() }()
	if err := s.studio.LoadPromptFile(f, fh.Size); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": s.studio.Snapshot().Prompt})
}

func (s *server) assist(c *gin.Context) {
	text, err := s.studio.Assist(s.ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": text})
}

func (s *server) setEffect(c *gin.Context) {
	var req struct {
		Effect string `json:"effect" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.studio.SetEffect(c.Request.Context(), req.Effect); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

// setSettings updates the fields present in the request and keeps the rest.
func (s *server) setSettings(c *gin.Context) {
	var req struct {
		GenerationType studio.GenerationType `json:"generationType"`
		AspectRatio    string                `json:"aspectRatio"`
		Duration       int                   `json:"duration"`
		NumberOfImages int                   `json:"numberOfImages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	settings := s.studio.Snapshot().Settings
	if req.AspectRatio != "" {
		settings.AspectRatio = req.AspectRatio
	}
	if req.Duration != 0 {
		settings.Duration = req.Duration
	}
	if req.NumberOfImages != 0 {
		settings.NumberOfImages = req.NumberOfImages
	}
	if err := s.studio.Configure(req.GenerationType, settings); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.studio.Snapshot())
}

func (s *server) generate(c *gin.Context) {
	items, err := s.studio.Generate(s.ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

func (s *server) dismissError(c *gin.Context) {
	s.studio.DismissError()
	c.Status(http.StatusNoContent)
}
