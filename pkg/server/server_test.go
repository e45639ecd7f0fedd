package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/igolaizola/gengallery/pkg/gallery"
	"github.com/igolaizola/gengallery/pkg/media"
	"github.com/igolaizola/gengallery/pkg/metrics"
	"github.com/igolaizola/gengallery/pkg/prefs"
	"github.com/igolaizola/gengallery/pkg/provider"
	"github.com/igolaizola/gengallery/pkg/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvider struct {
	err   error
	block chan struct{}
}

func (f *fakeProvider) GenerateVideos(ctx context.Context, _ *provider.VideoRequest) ([]provider.Asset, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return []provider.Asset{{MIMEType: "video/mp4", Data: []byte("mp4")}}, nil
}

func (f *fakeProvider) GenerateImages(_ context.Context, req *provider.ImageRequest) ([]provider.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	var assets []provider.Asset
	for i := 0; i < req.Count; i++ {
		assets = append(assets, provider.Asset{MIMEType: "image/jpeg", Data: []byte("jpg")})
	}
	return assets, nil
}

func (f *fakeProvider) GenerateText(context.Context, *provider.TextRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "expanded prompt", nil
}

type testServer struct {
	router *gin.Engine
	studio *studio.Studio
}

func newTestServer(t *testing.T, p *fakeProvider) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "")
	st := studio.New(context.Background(), &studio.Config{
		Provider:     p,
		Prefs:        prefs.NewMemory(),
		Metrics:      m,
		Capabilities: studio.Capabilities{Video: true, Image: true, Assist: true},
		Gallery:      gallery.New(gallery.Samples...),
	})
	r, err := New(context.Background(), &Config{Studio: st, Metrics: m, Gatherer: reg})
	require.NoError(t, err)
	return &testServer{router: r, studio: st}
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) upload(t *testing.T, path, field string, files map[string]string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, mime := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
		h.Set("Content-Type", mime)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func errorLines(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Claymation: Robot&#39;s Existential Crisis")
	assert.Contains(t, body, "/api/items/1/media")
	assert.Contains(t, body, "Digital Drawing")
}

func TestIndexViewer(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `id="viewer"`)
	assert.Contains(t, w.Body.String(), "/api/items/2/open")

	w = ts.do(http.MethodPost, "/api/items/2/open", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="viewer"`)
	assert.Contains(t, body, `<video src="/api/items/2/media" controls autoplay`)
	assert.Contains(t, body, "/api/viewer")

	// Generated images open in the same viewer.
	ts.do(http.MethodPut, "/api/settings", gin.H{"generationType": "image"})
	ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "a lighthouse"})
	w = ts.do(http.MethodPost, "/api/generate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	viewing := ts.studio.Snapshot().Viewing
	require.NotEmpty(t, viewing)

	w = ts.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), `<img src="/api/items/`+viewing+`/media"`)

	w = ts.do(http.MethodDelete, "/api/viewer", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodGet, "/", nil)
	assert.NotContains(t, w.Body.String(), `id="viewer"`)
}

func TestConfigAndItems(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg struct {
		Capabilities studio.Capabilities `json:"capabilities"`
		AspectRatios []string            `json:"aspectRatios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.True(t, cfg.Capabilities.Video)
	assert.Equal(t, studio.AspectRatios, cfg.AspectRatios)

	w = ts.do(http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items struct {
		Items []gallery.Artwork `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items.Items, 2)

	w = ts.do(http.MethodGet, "/api/items/2", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/items/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, errorLines(t, w))

	w = ts.do(http.MethodGet, "/api/items/1/media", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, gallery.Samples[0].URL, w.Header().Get("Location"))
}

func TestGenerateVideoFlow(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodPost, "/api/generate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.upload(t, "/api/uploads", "files", map[string]string{"cat.png": "image/png"}, []byte("png"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPut, "/api/effect", gin.H{"effect": "Anime"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/api/generate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Items []gallery.Artwork `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	item := resp.Items[0]
	assert.Equal(t, "a cat, anime style, vibrant colors, cel-shaded", item.Description)

	w = ts.do(http.MethodGet, "/api/items/"+item.ID+"/media", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, "mp4", w.Body.String())

	w = ts.do(http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap studio.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Empty(t, snap.Prompt)
	assert.Empty(t, snap.Uploads)
	assert.Equal(t, item.ID, snap.Playing)
	assert.Equal(t, 3, ts.studio.Gallery().Len())

	w = ts.do(http.MethodDelete, "/api/viewer", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, ts.studio.Snapshot().Playing)

	w = ts.do(http.MethodPost, "/api/items/"+item.ID+"/open", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, item.ID, ts.studio.Snapshot().Playing)
}

func TestGenerateImages(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodPut, "/api/settings", gin.H{"generationType": "image", "numberOfImages": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.upload(t, "/api/uploads", "files", map[string]string{"cat.png": "image/png"}, []byte("png"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "a lighthouse"})
	w = ts.do(http.MethodPost, "/api/generate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4, ts.studio.Gallery().Len())
}

func TestGenerateFailure(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{err: errors.New("invalid api key")})

	ts.upload(t, "/api/uploads", "files", map[string]string{"cat.png": "image/png"}, []byte("png"))
	ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "a cat"})

	w := ts.do(http.MethodPost, "/api/generate", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	lines := errorLines(t, w)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Generation failed."))
	assert.Equal(t, 2, ts.studio.Gallery().Len())

	w = ts.do(http.MethodDelete, "/api/error", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, ts.studio.Snapshot().Error)
}

func TestGenerateBusy(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	ts := newTestServer(t, p)

	ts.upload(t, "/api/uploads", "files", map[string]string{"cat.png": "image/png"}, []byte("png"))
	ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "a cat"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ts.studio.Generate(context.Background())
	}()
	require.Eventually(t, func() bool { return ts.studio.Snapshot().Generating }, time.Second, time.Millisecond)

	w := ts.do(http.MethodPost, "/api/generate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(p.block)
	<-done
}

func TestUploadRules(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.upload(t, "/api/uploads", "files", map[string]string{"clip.mp4": "video/mp4"}, []byte("mp4"))
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Uploads []media.Upload `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Uploads, 1)

	w = ts.upload(t, "/api/uploads", "files", map[string]string{"cat.png": "image/png"}, []byte("png"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodDelete, "/api/uploads/"+resp.Uploads[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodDelete, "/api/uploads/"+resp.Uploads[0].ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPromptFile(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.upload(t, "/api/prompt/file", "file", map[string]string{"prompt.txt": "text/plain"}, []byte("from a file"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from a file", ts.studio.Snapshot().Prompt)

	big := bytes.Repeat([]byte("a"), media.MaxPromptFileSize+1)
	w = ts.upload(t, "/api/prompt/file", "file", map[string]string{"big.txt": "text/plain"}, big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"Prompt file is too large. Please select a file smaller than 1MB."}, errorLines(t, w))
}

func TestAssistAndRemix(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodPost, "/api/assist", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"Please enter some keywords to get assistance."}, errorLines(t, w))

	ts.do(http.MethodPut, "/api/prompt", gin.H{"prompt": "cat, space"})
	w = ts.do(http.MethodPost, "/api/assist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "expanded prompt", ts.studio.Snapshot().Prompt)

	w = ts.do(http.MethodPost, "/api/items/2/prompt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, gallery.Samples[1].Description, ts.studio.Snapshot().Prompt)

	w = ts.do(http.MethodPost, "/api/items/2/remix", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var item gallery.Artwork
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, `Remix of "Claymation: Robot's Existential Crisis"`, item.Title)
}

func TestInvalidInput(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	w := ts.do(http.MethodPut, "/api/effect", gin.H{"effect": "Sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/effect", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/settings", gin.H{"aspectRatio": "21:9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/settings", gin.H{"duration": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/api/settings", gin.H{"generationType": "audio", "aspectRatio": "1:1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, studio.DefaultAspectRatio, ts.studio.Snapshot().Settings.AspectRatio)

	w = ts.do(http.MethodPost, "/api/uploads", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, &fakeProvider{})

	ts.do(http.MethodGet, "/api/state", nil)
	w := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gengallery_http_requests_total{method="GET",path="/api/state",status="200"} 1`)
}
