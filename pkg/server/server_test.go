package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
)

const validLetter = "Dear Hiring Manager,\n\n" +
	"I am writing to apply for the Senior Backend Engineer position at TechCorp. Over the past eight years " +
	"I have designed and operated distributed systems in Go and Python, led a team of five developers and " +
	"reduced API latency by 45% through caching. I would welcome the chance to bring that experience to TechCorp.\n\n" +
	"Sincerely,\nJane Smith"

// stubGateway answers every request with the same text.
type stubGateway struct {
	text      string
	err       error
	available bool
}

func (g *stubGateway) Available(ctx context.Context) (ok bool) {
	ok = g.available
	return ok
}

func (g *stubGateway) Models(ctx context.Context) (models []string) {
	models = []string{}
	if g.available {
		models = []string{"llama3:latest"}
	}
	return models
}

func (g *stubGateway) Generate(ctx context.Context, req llm.Request) (text string, err error) {
	text = g.text
	err = g.err
	return text, err
}

func (g *stubGateway) Stream(ctx context.Context, req llm.Request) (chunks <-chan llm.Chunk, err error) {
	out := make(chan llm.Chunk, 1)
	out <- llm.Chunk{Content: g.text}
	close(out)
	chunks = out
	return chunks, err
}

func newTestServer(t *testing.T, gw *stubGateway, scraperOpts ...jobsource.ScraperOption) (s *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)

	cfg := generator.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.InitialBackoff = time.Millisecond

	gen, err := generator.New(gw,
		generator.WithConfig(cfg),
		generator.WithLogger(logger),
		generator.WithSleeper(func(ctx context.Context, d time.Duration) (err error) { return err }),
	)
	require.NoError(t, err)

	scraperOpts = append(scraperOpts, jobsource.WithLogger(logger))
	s = New(gen, gw, jobsource.NewScraper(scraperOpts...), logger)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) (rec *httptest.ResponseRecorder, payload map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	payload = map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func testJob() (job map[string]any) {
	job = map[string]any{
		"title":       "Senior Backend Engineer",
		"company":     "TechCorp",
		"description": "Build APIs in Go.",
	}
	return job
}

func TestHealthAndModels(t *testing.T) {
	s := newTestServer(t, &stubGateway{available: true})

	rec, payload := do(t, s, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["gateway_available"])

	rec, payload = do(t, s, http.MethodGet, "/api/v1/models", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"llama3:latest"}, payload["models"])

	down := newTestServer(t, &stubGateway{})
	_, payload = do(t, down, http.MethodGet, "/api/v1/models", nil)
	assert.Equal(t, []any{}, payload["models"])
}

func TestCoverLetter(t *testing.T) {
	s := newTestServer(t, &stubGateway{text: "<think>" + validLetter + "</think>"})

	rec, payload := do(t, s, http.MethodPost, "/api/v1/cover-letter", map[string]any{
		"cv_text": "Jane Smith\nSenior Software Engineer",
		"job":     testJob(),
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, validLetter, payload["cover_letter"])
}

func TestCoverLetterFallback(t *testing.T) {
	s := newTestServer(t, &stubGateway{err: errors.New("connection refused")})

	rec, payload := do(t, s, http.MethodPost, "/api/v1/cover-letter", map[string]any{
		"cv_text": "Jane Smith\nSenior Software Engineer",
		"job":     testJob(),
		"company": "Initech",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	letter, _ := payload["cover_letter"].(string)
	assert.Contains(t, letter, "Senior Backend Engineer")
	assert.Contains(t, letter, "Initech")
}

func TestTailorCV(t *testing.T) {
	cv := "Jane Smith\nSenior Software Engineer\nSkills: Go"
	s := newTestServer(t, &stubGateway{text: "short"})

	rec, payload := do(t, s, http.MethodPost, "/api/v1/cv", map[string]any{"cv_text": cv, "job": testJob()})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cv, payload["cv"])
}

func TestPitch(t *testing.T) {
	s := newTestServer(t, &stubGateway{text: "Seasoned Go engineer ready to scale TechCorp's APIs. Extra sentence."})

	rec, payload := do(t, s, http.MethodPost, "/api/v1/pitch", map[string]any{
		"cv_text":   "Jane Smith\nSenior Software Engineer",
		"job":       testJob(),
		"max_words": 30,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Seasoned Go engineer ready to scale TechCorp's APIs.", payload["pitch"])
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, &stubGateway{text: validLetter})

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "letter without cv", path: "/api/v1/cover-letter", body: map[string]any{"job": testJob()}},
		{name: "letter without job", path: "/api/v1/cover-letter", body: map[string]any{"cv_text": "Jane"}},
		{name: "letter blank cv", path: "/api/v1/cover-letter", body: map[string]any{"cv_text": "   ", "job": testJob()}},
		{name: "cv without job", path: "/api/v1/cv", body: map[string]any{"cv_text": "Jane"}},
		{name: "pitch negative words", path: "/api/v1/pitch", body: map[string]any{"cv_text": "Jane", "job": testJob(), "max_words": -1}},
		{name: "scrape without url", path: "/api/v1/scrape", body: map[string]any{}},
		{name: "scrape bad url", path: "/api/v1/scrape", body: map[string]any{"url": "not a url"}},
		{name: "malformed json", path: "/api/v1/cover-letter", body: "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestScrape(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = fmt.Fprint(w, "<html><body></body></html>")
			return
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Platform Engineer</h1><p>Run clusters.</p></body></html>")
	}))
	defer page.Close()

	s := newTestServer(t, &stubGateway{})

	rec, payload := do(t, s, http.MethodPost, "/api/v1/scrape", map[string]any{"url": page.URL + "/job"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Platform Engineer", payload["title"])
	assert.Equal(t, jobsource.SourceGeneric, payload["source"])

	rec, payload = do(t, s, http.MethodPost, "/api/v1/scrape", map[string]any{"url": page.URL + "/empty"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotNil(t, payload["posting"])

	rec, _ = do(t, s, http.MethodPost, "/api/v1/scrape", map[string]any{"url": page.URL + "/missing"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubGateway{available: true})

	do(t, s, http.MethodGet, "/api/v1/health", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cvtailor_http_requests_total{method="GET",path="/api/v1/health",status_code="200"}`)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &stubGateway{available: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t, &stubGateway{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
