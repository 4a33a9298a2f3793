// Package prompt assembles the system and user prompts sent to the generation backend.
// Builders are pure functions of their inputs.
package prompt

import (
	"fmt"

	"github.com/nikogura/cv-tailor/pkg/candidate"
)

// Placeholders used when a candidate fact could not be extracted.
const (
	NamePlaceholder     = "[Your Name]"
	HeadlinePlaceholder = "Professional"
	SeeCVPlaceholder    = "See CV below"
)

// Caps applied to the auxiliary prompts.
const (
	PitchFactChars = 200
	TailorJobChars = 1500
	SkillsCVChars  = 1000
)

// Limits carries the size and shape constraints the prompts advertise.
type Limits struct {
	MaxCVChars  int
	MaxJobChars int
	MinWords    int
	MaxWords    int
	Paragraphs  int
}

// UserInput is everything the cover letter user prompt is built from.
type UserInput struct {
	JobTitle       string
	Company        string
	JobDescription string
	CVText         string
	Facts          candidate.Facts
	Limits         Limits
}

// BuildSystemPrompt returns the fixed cover letter policy.
func BuildSystemPrompt(cfg Limits) (prompt string) {
	prompt = fmt.Sprintf(`You are a world-class professional cover letter writer and career strategist.

YOUR TASK: Write ONE complete, polished, professional cover letter.

STRICT RULES:
1. Output ONLY the final cover letter - NO reasoning, NO thinking process, NO chain-of-thought
2. NEVER use tags like <think>, </think>, <reason>, [thinking], [thought], or any internal commentary
3. NEVER invent skills, experience, or qualifications not present in the CV
4. Use ONLY factual information from the provided CV
5. Write in a professional yet engaging tone
6. Focus on alignment between the candidate's real experience and the job requirements
7. Be specific and quantitative when possible (cite real achievements)
8. Keep it concise: %d-%d words, %d paragraphs

FORMAT REQUIREMENTS:
- Professional business letter format
- Opening: Strong hook showing enthusiasm for THIS specific role
- Body: 2-3 key qualifications with specific examples from the CV
- Closing: Confident call-to-action
- Sign-off: Professional and warm

Begin writing the final cover letter now. No preamble, no explanation - just the letter.`,
		cfg.MinWords, cfg.MaxWords, cfg.Paragraphs)

	return prompt
}

// BuildUserPrompt returns the per-request cover letter prompt.
func BuildUserPrompt(in UserInput) (prompt string) {
	jobExcerpt := SafeTruncate(in.JobDescription, in.Limits.MaxJobChars)
	cvExcerpt := SafeTruncate(in.CVText, in.Limits.MaxCVChars)

	prompt = fmt.Sprintf(`GENERATE A PROFESSIONAL COVER LETTER

JOB POSTING:
Title: %s
Company: %s
Description: %s

CANDIDATE INFORMATION (use ONLY this factual data):
Name: %s
Professional Headline: %s
Key Skills: %s
Notable Achievements: %s

FULL CV (for context):
%s

INSTRUCTIONS:
- Write %d-%d words
- Structure: %d paragraphs
- Opening: Express genuine enthusiasm for THIS role at THIS company
- Body: Highlight 2-3 specific, relevant qualifications from the CV
- Include quantifiable achievements if available
- Show understanding of the company and role (if the job description provides it)
- Closing: Confident, professional call-to-action
- Format: [Date], [Contact Info], Dear Hiring Manager, [Body], Sincerely

OUTPUT ONLY THE FINAL LETTER. No commentary, no thinking process.`,
		in.JobTitle,
		in.Company,
		jobExcerpt,
		orDefault(in.Facts.Name, NamePlaceholder),
		orDefault(in.Facts.Headline, HeadlinePlaceholder),
		orDefault(in.Facts.Skills, SeeCVPlaceholder),
		orDefault(in.Facts.Achievements, SeeCVPlaceholder),
		cvExcerpt,
		in.Limits.MinWords, in.Limits.MaxWords,
		in.Limits.Paragraphs,
	)

	return prompt
}

// BuildPitchSystemPrompt returns the system prompt for one-sentence pitches.
func BuildPitchSystemPrompt() (prompt string) {
	prompt = `You are an expert at writing compelling, concise professional pitches.
Output ONLY a single sentence. NO reasoning, NO thinking process, NO extra commentary.`
	return prompt
}

// BuildPitchPrompt asks for a single pitch sentence of at most maxWords words.
func BuildPitchPrompt(jobTitle string, facts candidate.Facts, maxWords int) (prompt string) {
	prompt = fmt.Sprintf(`Write ONE compelling sentence (<= %d words) explaining why this candidate is perfect for the %s role.

CANDIDATE: %s
KEY SKILLS: %s
ACHIEVEMENT: %s

Write only the final pitch sentence:`,
		maxWords,
		jobTitle,
		orDefault(facts.Headline, HeadlinePlaceholder),
		truncateRunes(facts.Skills, PitchFactChars),
		truncateRunes(facts.Achievements, PitchFactChars),
	)

	return prompt
}

// BuildTailorSystemPrompt returns the rules for rewriting a CV against a posting.
func BuildTailorSystemPrompt() (prompt string) {
	prompt = `You are an expert CV/resume writer and career coach.
Your task is to tailor a CV to match a specific job posting.

IMPORTANT RULES:
1. ONLY edit and rephrase existing content - DO NOT add fake experience or skills
2. Emphasize relevant skills and experience that match the job requirements
3. Reorder sections to highlight the most relevant qualifications first
4. Use keywords from the job description naturally throughout the CV
5. Keep the same factual information - only improve presentation and emphasis
6. Maintain professional formatting and clear section headers
7. Keep it concise - ideally 1-2 pages
8. DO NOT fabricate or exaggerate - only reframe existing content
9. Output ONLY the CV - NO reasoning, NO <think> tags, NO commentary

Focus on making the candidate's REAL experience shine for this specific role.`
	return prompt
}

// BuildTailorPrompt returns the CV tailoring request.
func BuildTailorPrompt(jobTitle, jobDescription, cvText string) (prompt string) {
	prompt = fmt.Sprintf(`Please tailor this CV for the following job:

JOB TITLE: %s

JOB DESCRIPTION:
%s

ORIGINAL CV:
%s

Please provide a tailored version that:
- Highlights relevant experience and skills for this specific job
- Uses keywords from the job description
- Maintains all truthful information
- Improves overall presentation for ATS compatibility

Return ONLY the tailored CV text, no explanations.`,
		jobTitle,
		truncateRunes(jobDescription, TailorJobChars),
		cvText,
	)

	return prompt
}

// BuildSkillsPrompt asks for a comma-separated skill list.
func BuildSkillsPrompt(cvText string) (prompt string) {
	prompt = fmt.Sprintf(`Extract the key technical and soft skills from this CV.
Return them as a comma-separated list.

CV:
%s

Skills:`, truncateRunes(cvText, SkillsCVChars))

	return prompt
}

func orDefault(value, fallback string) (out string) {
	out = value
	if out == "" {
		out = fallback
	}
	return out
}

func truncateRunes(s string, maxChars int) (out string) {
	out = s
	runes := []rune(s)
	if len(runes) > maxChars {
		out = string(runes[:maxChars])
	}
	return out
}
