package generator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
	"github.com/nikogura/cv-tailor/pkg/quality"
)

const sampleCV = `Jane Smith
Senior Software Engineer

Experience:
- 6 years building scalable backend systems with Python and FastAPI
- Led team of 5 developers on microservices architecture project
- Reduced API latency by 45% through caching and optimization
- Skills: Python, FastAPI, PostgreSQL, Redis, Docker, Kubernetes, AWS
`

const goodLetter = `Dear Hiring Manager,

I am excited to apply for the Senior Backend Engineer position at TechCorp. Over six years I have
built scalable backend systems with Python and FastAPI, led a team of five developers and reduced
API latency by 45% through caching and optimization.

Sincerely,
Jane Smith`

// fakeGateway replays scripted responses and records every request.
type fakeGateway struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	chunks    []string
	requests  []llm.Request
}

func (f *fakeGateway) Available(ctx context.Context) (ok bool) {
	ok = true
	return ok
}

func (f *fakeGateway) Models(ctx context.Context) (models []string) {
	models = []string{"fake"}
	return models
}

func (f *fakeGateway) Generate(ctx context.Context, req llm.Request) (text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.requests)
	f.requests = append(f.requests, req)

	if idx < len(f.errs) && f.errs[idx] != nil {
		err = f.errs[idx]
		return text, err
	}

	switch {
	case idx < len(f.responses):
		text = f.responses[idx]
	case len(f.responses) > 0:
		text = f.responses[len(f.responses)-1]
	}
	return text, err
}

func (f *fakeGateway) Stream(ctx context.Context, req llm.Request) (chunks <-chan llm.Chunk, err error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	out := make(chan llm.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- llm.Chunk{Content: c}
	}
	close(out)

	chunks = out
	return chunks, err
}

func (f *fakeGateway) temperatures() (temps []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		temps = append(temps, r.Temperature)
	}
	return temps
}

func (f *fakeGateway) calls() (n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n = len(f.requests)
	return n
}

// sleepRecorder records requested pauses without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
	return err
}

func failing(n int) (errs []error) {
	for range n {
		errs = append(errs, errors.New("connection refused"))
	}
	return errs
}

func testJob() (job *jobsource.Posting) {
	job = &jobsource.Posting{
		Title:       "Senior Backend Engineer",
		Company:     "TechCorp",
		Description: "We are seeking a Senior Backend Engineer with strong Python skills.",
	}
	return job
}

func newTestGenerator(t *testing.T, gw llm.Gateway, opts ...Option) (g *Generator, sleeper *sleepRecorder) {
	t.Helper()

	sleeper = &sleepRecorder{}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithSleeper(sleeper.sleep)}, opts...)

	g, err := New(gw, opts...)
	require.NoError(t, err)
	return g, sleeper
}

func TestCoverLetterStripsReasoningMarkers(t *testing.T) {
	gw := &fakeGateway{responses: []string{"<think>reasoning</think>\n" + goodLetter}}
	g, sleeper := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, "reasoning\n"+goodLetter, letter)
	assert.NotContains(t, letter, "<think>")
	assert.NotContains(t, letter, "</think>")
	assert.Equal(t, 1, gw.calls())
	assert.Empty(t, sleeper.sleeps)
}

func TestCoverLetterSendsPrompts(t *testing.T) {
	gw := &fakeGateway{responses: []string{goodLetter}}
	g, _ := newTestGenerator(t, gw, WithConfig(func() (cfg Config) {
		cfg = DefaultConfig()
		cfg.Model = "qwen3"
		return cfg
	}()))

	_, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "qwen3", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	assert.Contains(t, req.SystemPrompt, "300-450 words")
	assert.Contains(t, req.UserPrompt, "Title: Senior Backend Engineer")
	assert.Contains(t, req.UserPrompt, "Company: TechCorp")
	assert.Contains(t, req.UserPrompt, "Name: Jane Smith")
}

func TestCoverLetterAlwaysFailingGateway(t *testing.T) {
	gw := &fakeGateway{errs: failing(10)}
	g, sleeper := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, gw.calls())
	assert.Equal(t, []time.Duration{time.Second, 1300 * time.Millisecond}, sleeper.sleeps)
	assert.Contains(t, letter, "Senior Backend Engineer")
	assert.Contains(t, letter, "TechCorp")
	assert.Contains(t, letter, "Jane Smith")
	assert.True(t, strings.HasPrefix(letter, "[Date]"))

	// Transport failures do not lower the temperature.
	assert.Equal(t, []float64{0.7, 0.7, 0.7}, gw.temperatures())
}

func TestCoverLetterBackoffGrows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 5
	cfg.InitialBackoff = 100 * time.Millisecond
	cfg.BackoffMultiplier = 2

	gw := &fakeGateway{errs: failing(10)}
	g, sleeper := newTestGenerator(t, gw, WithConfig(cfg))

	_, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, gw.calls())
	require.Len(t, sleeper.sleeps, 4)
	for i := 1; i < len(sleeper.sleeps); i++ {
		assert.Greater(t, sleeper.sleeps[i], sleeper.sleeps[i-1])
	}
	assert.Equal(t, 800*time.Millisecond, sleeper.sleeps[3])
}

func TestCoverLetterTemperatureDecay(t *testing.T) {
	gw := &fakeGateway{responses: []string{"too short"}}
	g, sleeper := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	temps := gw.temperatures()
	require.Len(t, temps, 3)
	assert.InDelta(t, 0.7, temps[0], 1e-9)
	assert.InDelta(t, 0.6, temps[1], 1e-9)
	assert.InDelta(t, 0.5, temps[2], 1e-9)
	assert.Len(t, sleeper.sleeps, 2)
	assert.Contains(t, letter, "Dear Hiring Manager,")
	assert.Contains(t, letter, "TechCorp")
}

func TestCoverLetterTemperatureFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Temperature = 0.4
	cfg.MaxRetries = 4

	gw := &fakeGateway{responses: []string{"too short"}}
	g, _ := newTestGenerator(t, gw, WithConfig(cfg))

	_, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	temps := gw.temperatures()
	require.Len(t, temps, 4)
	for i, want := range []float64{0.4, 0.3, 0.3, 0.3} {
		assert.InDelta(t, want, temps[i], 1e-9, "attempt %d", i+1)
	}
}

func TestDecay(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.7, want: 0.6},
		{in: 0.6, want: 0.5},
		{in: 0.35, want: 0.3},
		{in: 0.3, want: 0.3},
		{in: 0.0, want: 0.3},
		{in: 1.0, want: 0.9},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, decay(tt.in), 1e-9, "decay(%v)", tt.in)
	}
}

func TestCoverLetterRecoversOnSecondAttempt(t *testing.T) {
	gw := &fakeGateway{responses: []string{"too short", goodLetter}}
	g, sleeper := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, goodLetter, letter)
	assert.Equal(t, 2, gw.calls())
	assert.Equal(t, []time.Duration{time.Second}, sleeper.sleeps)
}

func TestCoverLetterRejectsArtifactsAndOffTopic(t *testing.T) {
	offTopic := strings.ReplaceAll(strings.ReplaceAll(goodLetter, "TechCorp", "Acme"), "Senior Backend Engineer", "role")

	gw := &fakeGateway{responses: []string{
		goodLetter + "\nLet me think about this again.",
		offTopic,
		goodLetter,
	}}
	g, _ := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, goodLetter, letter)
	assert.Equal(t, 3, gw.calls())
}

func TestCoverLetterEmptyResponseIsTransportFailure(t *testing.T) {
	gw := &fakeGateway{responses: []string{"", "   ", goodLetter}}
	g, _ := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, goodLetter, letter)
	assert.Equal(t, []float64{0.7, 0.7, 0.7}, gw.temperatures())
}

func TestCoverLetterMissingInput(t *testing.T) {
	g, _ := newTestGenerator(t, &fakeGateway{})

	_, err := g.CoverLetter(context.Background(), "   ", testJob(), "")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = g.CoverLetter(context.Background(), sampleCV, nil, "")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = g.ShortPitch(context.Background(), "", testJob(), 30)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = g.TailorCV(context.Background(), sampleCV, nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = g.Draft(context.Background(), "", testJob(), "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestCoverLetterDefaultsAndOverride(t *testing.T) {
	gw := &fakeGateway{errs: failing(10)}
	g, _ := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, &jobsource.Posting{Description: "Some role"}, "")
	require.NoError(t, err)
	assert.Contains(t, letter, "the position position at your company")

	letter, err = g.CoverLetter(context.Background(), sampleCV, testJob(), "  Globex  ")
	require.NoError(t, err)
	assert.Contains(t, letter, "Senior Backend Engineer position at Globex.")
	assert.NotContains(t, letter, "TechCorp")
}

func TestCoverLetterCompanyOverrideDrivesRelevance(t *testing.T) {
	gw := &fakeGateway{responses: []string{strings.ReplaceAll(strings.ReplaceAll(goodLetter, "TechCorp", "Globex"), "Senior Backend Engineer", "engineering")}}
	g, _ := newTestGenerator(t, gw)

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "Globex")
	require.NoError(t, err)
	assert.Contains(t, letter, "at Globex. Over six years")
	assert.Equal(t, 1, gw.calls())
}

func TestCoverLetterCancelledContextFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &fakeGateway{errs: failing(10)}
	g, err := New(gw, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	letter, err := g.CoverLetter(ctx, sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, gw.calls())
	assert.Contains(t, letter, "TechCorp")
}

func TestCoverLetterCustomValidator(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Short but fine."}}
	g, _ := newTestGenerator(t, gw, WithValidator(quality.NewValidator(quality.NonEmptyRule)))

	letter, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)
	assert.Equal(t, "Short but fine.", letter)
}

func TestCoverLetterLogsAttempts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gw := &fakeGateway{responses: []string{"too short"}}
	g, _ := newTestGenerator(t, gw, WithLogger(zap.New(core)))

	_, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	rejected := logs.FilterMessage("generation attempt rejected").All()
	require.Len(t, rejected, 3)

	runID := rejected[0].ContextMap()["run_id"]
	assert.NotEmpty(t, runID)
	for i, entry := range rejected {
		fields := entry.ContextMap()
		assert.Equal(t, runID, fields["run_id"])
		assert.Equal(t, TaskCoverLetter, fields["task"])
		assert.Equal(t, int64(i+1), fields["attempt"])
		assert.Equal(t, string(quality.ReasonTooShort), fields["reason"])
	}

	assert.Equal(t, 1, logs.FilterMessage("generation exhausted, using fallback").Len())
}

func TestCoverLetterLogsMissingFacts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gw := &fakeGateway{responses: []string{goodLetter}}
	g, _ := newTestGenerator(t, gw, WithLogger(zap.New(core)))

	_, err := g.CoverLetter(context.Background(), "some notes about me", testJob(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("no candidate facts").Len())

	_, err = g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("no candidate facts").Len())
}

func TestShortPitchRejectionMetric(t *testing.T) {
	before := testutil.ToFloat64(attemptsTotal.WithLabelValues(TaskPitch, OutcomeRejected))

	g, _ := newTestGenerator(t, &fakeGateway{responses: []string{"<think>Plan the pitch.</think>Great fit."}})
	_, err := g.ShortPitch(context.Background(), sampleCV, testJob(), 0)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(attemptsTotal.WithLabelValues(TaskPitch, OutcomeRejected))-before, 1e-9)
}

func TestCoverLetterMetrics(t *testing.T) {
	rejectedBefore := testutil.ToFloat64(attemptsTotal.WithLabelValues(TaskCoverLetter, OutcomeRejected))
	fallbackBefore := testutil.ToFloat64(resultsTotal.WithLabelValues(TaskCoverLetter, ResultFallback))
	generatedBefore := testutil.ToFloat64(resultsTotal.WithLabelValues(TaskCoverLetter, ResultGenerated))

	g, _ := newTestGenerator(t, &fakeGateway{responses: []string{"too short"}})
	_, err := g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	g, _ = newTestGenerator(t, &fakeGateway{responses: []string{goodLetter}})
	_, err = g.CoverLetter(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	assert.InDelta(t, 3, testutil.ToFloat64(attemptsTotal.WithLabelValues(TaskCoverLetter, OutcomeRejected))-rejectedBefore, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(resultsTotal.WithLabelValues(TaskCoverLetter, ResultFallback))-fallbackBefore, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(resultsTotal.WithLabelValues(TaskCoverLetter, ResultGenerated))-generatedBefore, 1e-9)
}

func TestCoverLetterConcurrentCallers(t *testing.T) {
	gw := &fakeGateway{responses: []string{goodLetter}}
	g, _ := newTestGenerator(t, gw)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.CoverLetter(context.Background(), sampleCV, testJob(), "")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, goodLetter, r)
	}
	assert.Equal(t, 8, gw.calls())
}

func TestShortPitch(t *testing.T) {
	gw := &fakeGateway{responses: []string{"Jane brings six years of Python backend work to TechCorp. She also leads teams."}}
	g, _ := newTestGenerator(t, gw)

	pitch, err := g.ShortPitch(context.Background(), sampleCV, testJob(), 30)
	require.NoError(t, err)

	assert.Equal(t, "Jane brings six years of Python backend work to TechCorp.", pitch)
	require.Len(t, gw.requests, 1)
	assert.InDelta(t, PreciseTemperature, gw.requests[0].Temperature, 1e-9)
	assert.Contains(t, gw.requests[0].UserPrompt, "(<= 30 words)")
}

func TestShortPitchTruncatesWords(t *testing.T) {
	gw := &fakeGateway{responses: []string{"one two three four five six seven"}}
	g, _ := newTestGenerator(t, gw)

	pitch, err := g.ShortPitch(context.Background(), sampleCV, testJob(), 3)
	require.NoError(t, err)
	assert.Equal(t, "one two three...", pitch)
}

func TestShortPitchFallback(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{name: "transport error", gw: &fakeGateway{errs: failing(1)}},
		{name: "empty response", gw: &fakeGateway{responses: []string{"  "}}},
		{name: "only markers", gw: &fakeGateway{responses: []string{"<think></think>"}}},
		{name: "reasoning leak", gw: &fakeGateway{responses: []string{"<think>Plan the pitch.</think>Great fit for the role."}}},
		{name: "reasoning phrase", gw: &fakeGateway{responses: []string{"Let me think about a strong opening."}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGenerator(t, tt.gw)

			pitch, err := g.ShortPitch(context.Background(), sampleCV, testJob(), 0)
			require.NoError(t, err)
			assert.Equal(t, "Experienced Senior Software Engineer seeking Senior Backend Engineer role.", pitch)
			assert.Equal(t, 1, tt.gw.calls())
		})
	}
}

func TestTailorCV(t *testing.T) {
	tailored := "Jane Smith\nSenior Software Engineer\n\n" + strings.Repeat("Backend engineering with Python and AWS. ", 8)

	gw := &fakeGateway{responses: []string{"<think>plan</think>" + tailored}}
	g, _ := newTestGenerator(t, gw)

	got, err := g.TailorCV(context.Background(), sampleCV, testJob())
	require.NoError(t, err)
	assert.Equal(t, "plan"+strings.TrimSpace(tailored), got)

	require.Len(t, gw.requests, 1)
	assert.Contains(t, gw.requests[0].UserPrompt, "JOB TITLE: Senior Backend Engineer")
	assert.Contains(t, gw.requests[0].UserPrompt, "ORIGINAL CV:\n"+sampleCV)
}

func TestTailorCVReturnsOriginalOnExhaustion(t *testing.T) {
	gw := &fakeGateway{responses: []string{"short"}}
	g, sleeper := newTestGenerator(t, gw)

	got, err := g.TailorCV(context.Background(), sampleCV, testJob())
	require.NoError(t, err)

	assert.Equal(t, sampleCV, got)
	assert.Equal(t, 3, gw.calls())
	assert.Len(t, sleeper.sleeps, 2)
}

func TestKeySkills(t *testing.T) {
	gw := &fakeGateway{responses: []string{" Python, FastAPI ,, Docker,\nLeadership "}}
	g, _ := newTestGenerator(t, gw)

	skills := g.KeySkills(context.Background(), sampleCV)
	assert.Equal(t, []string{"Python", "FastAPI", "Docker", "Leadership"}, skills)
	assert.InDelta(t, PreciseTemperature, gw.requests[0].Temperature, 1e-9)
	assert.Empty(t, gw.requests[0].SystemPrompt)

	g, _ = newTestGenerator(t, &fakeGateway{errs: failing(1)})
	skills = g.KeySkills(context.Background(), sampleCV)
	assert.NotNil(t, skills)
	assert.Empty(t, skills)
}

func TestDraft(t *testing.T) {
	gw := &fakeGateway{chunks: []string{"Dear ", "Hiring ", "Manager"}}
	g, _ := newTestGenerator(t, gw)

	chunks, err := g.Draft(context.Background(), sampleCV, testJob(), "")
	require.NoError(t, err)

	text, err := llm.Collect(chunks)
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager", text)
	assert.Contains(t, gw.requests[0].UserPrompt, "Company: TechCorp")
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.MaxRetries = 0
	_, err = New(&fakeGateway{}, WithConfig(bad))
	assert.Error(t, err)

	g, err := New(&fakeGateway{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), g.Config())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero retries", mutate: func(c *Config) { c.MaxRetries = 0 }, wantErr: true},
		{name: "multiplier one", mutate: func(c *Config) { c.BackoffMultiplier = 1.0 }, wantErr: true},
		{name: "max below min", mutate: func(c *Config) { c.MaxWords = 100 }, wantErr: true},
		{name: "max equals min", mutate: func(c *Config) { c.MaxWords = c.MinWords }},
		{name: "temperature above one", mutate: func(c *Config) { c.Temperature = 1.1 }, wantErr: true},
		{name: "temperature negative", mutate: func(c *Config) { c.Temperature = -0.1 }, wantErr: true},
		{name: "temperature zero", mutate: func(c *Config) { c.Temperature = 0 }},
		{name: "negative backoff", mutate: func(c *Config) { c.InitialBackoff = -time.Second }, wantErr: true},
		{name: "zero cv chars", mutate: func(c *Config) { c.MaxCVChars = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolved(t *testing.T) {
	title, company := Resolved(nil, "")
	assert.Equal(t, DefaultTitle, title)
	assert.Equal(t, DefaultCompany, company)

	title, company = Resolved(testJob(), "Globex")
	assert.Equal(t, "Senior Backend Engineer", title)
	assert.Equal(t, "Globex", company)
}
