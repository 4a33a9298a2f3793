package generator

import (
	"context"
	"strings"

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

// ShortPitch writes a one-sentence pitch of at most maxWords words, e.g. for an email subject.
// It makes a single attempt and falls back to a template sentence.
func (g *Generator) ShortPitch(ctx context.Context, cvText string, job *jobsource.Posting, maxWords int) (pitch string, err error) {
	err = checkInput(cvText, job)
	if err != nil {
		return pitch, err
	}

	if maxWords <= 0 {
		maxWords = DefaultPitchWords
	}

	p := resolve(job, "")
	facts := candidate.Extract(cvText)
	logger := g.logger.With(zap.String("run_id", uuid.NewString()), zap.String("task", TaskPitch))

	response, genErr := g.gateway.Generate(ctx, llm.Request{
		SystemPrompt: prompt.BuildPitchSystemPrompt(),
		UserPrompt:   prompt.BuildPitchPrompt(p.title, facts, maxWords),
		Model:        g.config.Model,
		Temperature:  PreciseTemperature,
	})

	artifactsOK, artifact := quality.ArtifactRule.Check(quality.Input{Text: response})

	switch {
	case genErr != nil:
		attemptsTotal.WithLabelValues(TaskPitch, OutcomeTransportError).Inc()
		logger.Warn("pitch generation failed", zap.String("reason", OutcomeTransportError), zap.Error(genErr))
	case !artifactsOK:
		attemptsTotal.WithLabelValues(TaskPitch, OutcomeRejected).Inc()
		logger.Warn("pitch rejected", zap.String("reason", string(quality.ReasonForbiddenArtifact)), zap.String("detail", artifact))
	case quality.Sanitize(response) == "":
		attemptsTotal.WithLabelValues(TaskPitch, OutcomeEmptyResponse).Inc()
		logger.Warn("pitch generation failed", zap.String("reason", OutcomeEmptyResponse))
	default:
		attemptsTotal.WithLabelValues(TaskPitch, OutcomeAccepted).Inc()
		resultsTotal.WithLabelValues(TaskPitch, ResultGenerated).Inc()
		pitch = firstSentence(quality.Sanitize(response), maxWords)
		return pitch, err
	}

	resultsTotal.WithLabelValues(TaskPitch, ResultFallback).Inc()
	pitch = fallback.Pitch(facts, p.title)
	return pitch, err
}

// KeySkills asks the model for a comma-separated skill list. Any failure yields an empty list.
func (g *Generator) KeySkills(ctx context.Context, cvText string) (skills []string) {
	skills = []string{}
	if strings.TrimSpace(cvText) == "" {
		return skills
	}

	response, genErr := g.gateway.Generate(ctx, llm.Request{
		UserPrompt:  prompt.BuildSkillsPrompt(cvText),
		Model:       g.config.Model,
		Temperature: PreciseTemperature,
	})
	if genErr != nil {
		attemptsTotal.WithLabelValues(TaskKeySkills, OutcomeTransportError).Inc()
		g.logger.Warn("skill extraction failed", zap.String("task", TaskKeySkills), zap.Error(genErr))
		return skills
	}

	for _, s := range strings.Split(quality.Sanitize(response), ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	outcome := OutcomeAccepted
	if len(skills) == 0 {
		outcome = OutcomeEmptyResponse
	}
	attemptsTotal.WithLabelValues(TaskKeySkills, outcome).Inc()

	return skills
}

// Draft streams one unvalidated cover letter attempt, for previews.
// The caller validates the collected text if it needs to.
func (g *Generator) Draft(ctx context.Context, cvText string, job *jobsource.Posting, companyOverride string) (chunks <-chan llm.Chunk, err error) {
	err = checkInput(cvText, job)
	if err != nil {
		return chunks, err
	}

	p := resolve(job, companyOverride)
	facts := candidate.Extract(cvText)

	system, user := g.letterPrompts(cvText, p, facts)

	chunks, err = g.gateway.Stream(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        g.config.Model,
		Temperature:  g.config.Temperature,
	})
	if err != nil {
		attemptsTotal.WithLabelValues(TaskDraft, OutcomeTransportError).Inc()
		err = errors.Wrap(err, "failed to start draft stream")
		return chunks, err
	}
	attemptsTotal.WithLabelValues(TaskDraft, OutcomeAccepted).Inc()

	return chunks, err
}

// Resolved returns the title and company a generation for job would use.
func Resolved(job *jobsource.Posting, companyOverride string) (title, company string) {
	if job == nil {
		job = &jobsource.Posting{}
	}
	p := resolve(job, companyOverride)
	title = p.title
	company = p.company
	return title, company
}

// firstSentence keeps text up to the first period and caps it at maxWords words.
func firstSentence(text string, maxWords int) (sentence string) {
	sentence = strings.TrimSpace(strings.Split(text, ".")[0]) + "."

	words := strings.Fields(sentence)
	if len(words) > maxWords {
		sentence = strings.Join(words[:maxWords], " ") + "..."
	}
	return sentence
}
