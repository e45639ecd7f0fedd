package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/igolaizola/gengallery/pkg/metrics"
	"github.com/igolaizola/gengallery/pkg/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templates embed.FS

type Config struct {
	Addr     string
	Studio   *studio.Studio
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Debug    bool
}

type server struct {
	// ctx outlives the requests so a generation keeps going if the
	// browser disconnects while waiting.
	ctx     context.Context
	studio  *studio.Studio
	metrics *metrics.Metrics
	debug   bool
}

func (s *server) log(format string, args ...interface{}) {
	if s.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// New returns the gin engine serving the gallery page and its JSON API.
func New(ctx context.Context, cfg *Config) (*gin.Engine, error) {
	if cfg.Studio == nil {
		return nil, errors.New("server: studio is required")
	}
	s := &server{
		ctx:     ctx,
		studio:  cfg.Studio,
		metrics: cfg.Metrics,
		debug:   cfg.Debug,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), s.measure())

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"js": func(v interface{}) (template.JS, error) {
			j, err := json.Marshal(v)
			return template.JS(j), err
		},
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("server: couldn't parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)

	api := r.Group("/api")
	{
		api.GET("/state", s.state)
		api.GET("/config", s.config)

		api.GET("/items", s.listItems)
		api.GET("/items/:id", s.getItem)
		api.GET("/items/:id/media", s.itemMedia)
		api.POST("/items/:id/remix", s.remix)
		api.POST("/items/:id/prompt", s.usePrompt)
		api.POST("/items/:id/open", s.openItem)
		api.DELETE("/viewer", s.closeViewer)

		api.POST("/uploads", s.upload)
		api.DELETE("/uploads/:id", s.removeUpload)

		api.PUT("/prompt", s.setPrompt)
		api.POST("/prompt/file", s.promptFile)
		api.POST("/assist", s.assist)
		api.PUT("/effect", s.setEffect)
		api.PUT("/settings", s.setSettings)
		api.POST("/generate", s.generate)
		api.DELETE("/error", s.dismissError)
	}

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return r, nil
}

// Serve runs the HTTP server until the context is cancelled.
func Serve(ctx context.Context, cfg *Config) error {
	handler, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
		close(errC)
	}()

	select {
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("server: couldn't listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: couldn't shutdown: %w", err)
	}
	return nil
}
