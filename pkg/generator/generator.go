// Package generator turns a CV and a job posting into a cover letter, a pitch or a tailored CV.
//
// Every generation runs a bounded attempt loop: call the gateway, sanitize, validate, and on
// rejection retry with a lower temperature after a growing pause. When no attempt passes, the
// caller still gets text: a deterministic template for letters and pitches, or the original CV.
package generator

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/candidate"
	"github.com/nikogura/cv-tailor/pkg/fallback"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
	"github.com/nikogura/cv-tailor/pkg/prompt"
	"github.com/nikogura/cv-tailor/pkg/quality"
)

const (
	// DefaultTitle stands in for a posting without a title.
	DefaultTitle = "the position"
	// DefaultCompany stands in for a posting without a company.
	DefaultCompany = "your company"
	// DefaultPitchWords is the pitch length used when the caller passes zero.
	DefaultPitchWords = 30

	// MinTemperature is the floor temperature decays to.
	MinTemperature = 0.3
	// TemperatureStep is subtracted after each rejected response.
	TemperatureStep = 0.1
	// PreciseTemperature is used for single-shot extraction calls.
	PreciseTemperature = 0.3
)

// ErrMissingInput is returned when the CV text or the posting is absent.
var ErrMissingInput = errors.New("cv text and job posting are required")

// Sleeper pauses between attempts. It returns early with an error when ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) (err error)

// Option customizes a Generator.
type Option func(g *Generator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) (opt Option) {
	opt = func(g *Generator) {
		g.config = cfg
	}
	return opt
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) (opt Option) {
	opt = func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
	return opt
}

// WithSleeper replaces the pause between attempts.
func WithSleeper(sleep Sleeper) (opt Option) {
	opt = func(g *Generator) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
	return opt
}

// WithValidator replaces the cover letter validator.
func WithValidator(v *quality.Validator) (opt Option) {
	opt = func(g *Generator) {
		if v != nil {
			g.letterValidator = v
		}
	}
	return opt
}

// Generator produces application documents through a Gateway.
// It holds no per-call state and is safe for concurrent use.
type Generator struct {
	gateway         llm.Gateway
	config          Config
	logger          *zap.Logger
	sleep           Sleeper
	letterValidator *quality.Validator
	cvValidator     *quality.Validator
}

// New creates a Generator around gw.
func New(gw llm.Gateway, opts ...Option) (g *Generator, err error) {
	if gw == nil {
		err = errors.New("gateway is required")
		return g, err
	}

	g = &Generator{
		gateway:         gw,
		config:          DefaultConfig(),
		logger:          zap.L(),
		sleep:           sleepContext,
		letterValidator: quality.NewValidator(quality.LetterRules()...),
		cvValidator:     quality.NewValidator(quality.CVRules()...),
	}

	for _, opt := range opts {
		opt(g)
	}

	err = g.config.Validate()
	if err != nil {
		g = nil
		return g, err
	}

	return g, err
}

// Config returns the active configuration.
func (g *Generator) Config() (cfg Config) {
	cfg = g.config
	return cfg
}

// attemptPlan is one bounded generation job.
type attemptPlan struct {
	task     string
	system   string
	user     string
	validate func(text string) (result quality.Result)
}

// posting holds the resolved, trimmed fields of a job posting.
type posting struct {
	title       string
	company     string
	description string
}

// CoverLetter writes a cover letter for job. companyOverride, when set, replaces the posting's company.
// Apart from ErrMissingInput it always returns text: the model's letter or a template letter.
func (g *Generator) CoverLetter(ctx context.Context, cvText string, job *jobsource.Posting, companyOverride string) (letter string, err error) {
	err = checkInput(cvText, job)
	if err != nil {
		return letter, err
	}

	p := resolve(job, companyOverride)
	facts := candidate.Extract(cvText)
	if facts.IsZero() {
		g.logger.Debug("no candidate facts found in cv, prompting with placeholders", zap.String("task", TaskCoverLetter))
	}

	system, user := g.letterPrompts(cvText, p, facts)

	plan := attemptPlan{
		task:   TaskCoverLetter,
		system: system,
		user:   user,
		validate: func(text string) (result quality.Result) {
			result = g.letterValidator.Validate(quality.Input{Text: text, JobTitle: p.title, Company: p.company})
			return result
		},
	}

	letter, ok := g.refine(ctx, plan)
	if !ok {
		letter = fallback.Letter(p.title, p.company, facts)
	}

	return letter, err
}

func (g *Generator) letterPrompts(cvText string, p posting, facts candidate.Facts) (system, user string) {
	system = prompt.BuildSystemPrompt(g.config.Limits())
	user = prompt.BuildUserPrompt(prompt.UserInput{
		JobTitle:       p.title,
		Company:        p.company,
		JobDescription: p.description,
		CVText:         cvText,
		Facts:          facts,
		Limits:         g.config.Limits(),
	})
	return system, user
}

// TailorCV rewrites cvText to emphasize what job asks for. When no attempt passes
// validation the original CV is returned unchanged.
func (g *Generator) TailorCV(ctx context.Context, cvText string, job *jobsource.Posting) (tailored string, err error) {
	err = checkInput(cvText, job)
	if err != nil {
		return tailored, err
	}

	p := resolve(job, "")

	plan := attemptPlan{
		task:   TaskTailorCV,
		system: prompt.BuildTailorSystemPrompt(),
		user:   prompt.BuildTailorPrompt(p.title, p.description, cvText),
		validate: func(text string) (result quality.Result) {
			result = g.cvValidator.Validate(quality.Input{Text: text, JobTitle: p.title, Company: p.company})
			return result
		},
	}

	tailored, ok := g.refine(ctx, plan)
	if !ok {
		tailored = cvText
	}

	return tailored, err
}

// refine runs the attempt loop. ok is false when every attempt failed or ctx ended.
func (g *Generator) refine(ctx context.Context, plan attemptPlan) (text string, ok bool) {
	logger := g.logger.With(zap.String("run_id", uuid.NewString()), zap.String("task", plan.task))

	temperature := g.config.Temperature
	backoff := g.config.InitialBackoff

	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 1 {
			if sleepErr := g.sleep(ctx, backoff); sleepErr != nil {
				logger.Warn("generation interrupted", zap.Int("attempt", attempt), zap.Error(sleepErr))
				break
			}
			backoff = time.Duration(float64(backoff) * g.config.BackoffMultiplier)
		}

		fields := []zap.Field{zap.Int("attempt", attempt), zap.Float64("temperature", temperature)}

		response, genErr := g.gateway.Generate(ctx, llm.Request{
			SystemPrompt: plan.system,
			UserPrompt:   plan.user,
			Model:        g.config.Model,
			Temperature:  temperature,
		})

		if genErr != nil {
			attemptsTotal.WithLabelValues(plan.task, OutcomeTransportError).Inc()
			logger.Warn("generation attempt failed", append(fields, zap.String("reason", OutcomeTransportError), zap.Error(genErr))...)
			continue
		}

		if strings.TrimSpace(response) == "" {
			attemptsTotal.WithLabelValues(plan.task, OutcomeEmptyResponse).Inc()
			logger.Warn("generation attempt failed", append(fields, zap.String("reason", OutcomeEmptyResponse))...)
			continue
		}

		clean := quality.Sanitize(response)
		result := plan.validate(clean)
		if result.OK {
			attemptsTotal.WithLabelValues(plan.task, OutcomeAccepted).Inc()
			resultsTotal.WithLabelValues(plan.task, ResultGenerated).Inc()
			logger.Info("generation attempt accepted", append(fields, zap.String("reason", string(result.Reason)))...)
			text = clean
			ok = true
			return text, ok
		}

		attemptsTotal.WithLabelValues(plan.task, OutcomeRejected).Inc()
		logger.Warn("generation attempt rejected",
			append(fields, zap.String("reason", string(result.Reason)), zap.String("rule", result.Rule), zap.String("detail", result.Detail))...)

		temperature = decay(temperature)
	}

	resultsTotal.WithLabelValues(plan.task, ResultFallback).Inc()
	logger.Error("generation exhausted, using fallback", zap.Int("max_retries", g.config.MaxRetries))

	return text, ok
}

// decay lowers the temperature by one step, never below the floor, rounded to hundredths.
func decay(temperature float64) (next float64) {
	next = math.Round((temperature-TemperatureStep)*100) / 100
	next = math.Max(MinTemperature, next)
	return next
}

func sleepContext(ctx context.Context, d time.Duration) (err error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
	}
	return err
}

func checkInput(cvText string, job *jobsource.Posting) (err error) {
	if strings.TrimSpace(cvText) == "" || job == nil {
		err = errors.WithStack(ErrMissingInput)
	}
	return err
}

func resolve(job *jobsource.Posting, companyOverride string) (p posting) {
	p.title = strings.TrimSpace(job.Title)
	if p.title == "" {
		p.title = DefaultTitle
	}

	p.company = strings.TrimSpace(companyOverride)
	if p.company == "" {
		p.company = strings.TrimSpace(job.Company)
	}
	if p.company == "" {
		p.company = DefaultCompany
	}

	p.description = strings.TrimSpace(job.Description)
	return p
}
