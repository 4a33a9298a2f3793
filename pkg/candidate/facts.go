// Package candidate derives structured candidate facts from free-form resume text.
//
// The extraction is a regex heuristic, not a parser. False positives and false negatives
// are expected; callers treat every field as optional.
package candidate

import (
	"regexp"
	"strings"
)

const (
	// HeadlineScanLines is how many leading lines are searched for a professional title.
	HeadlineScanLines = 6
	// MaxSkillLines is how many matching lines make up the skills summary.
	MaxSkillLines = 3
	// MaxSkillsChars caps the joined skills summary.
	MaxSkillsChars = 400
	// MaxAchievementLines is how many matching lines make up the achievements summary.
	MaxAchievementLines = 2
	// MaxAchievementsChars caps the joined achievements summary.
	MaxAchievementsChars = 500
	// MaxNameTokens is the largest token count a name line may have.
	MaxNameTokens = 4

	separator = "; "
)

//nolint:gochecknoglobals // Compiled once, read-only
var (
	capitalizedWord = regexp.MustCompile(`[A-Z][a-z]+`)
	titleVocabulary = regexp.MustCompile(`(?i)\b(engineer|developer|scientist|manager|analyst|designer|architect|consultant|specialist)\b`)
	techVocabulary  = regexp.MustCompile(`(?i)(\b(python|java|javascript|react|sql|aws|docker|kubernetes|tensorflow|pytorch|spring|django|flask|golang)\b|c\+\+|\bnode\.js\b)`)
	achievementMark = regexp.MustCompile(`(?i)(\d+%|increased|reduced|improved|led|delivered|built|achieved|designed)`)
)

// Facts is the projection of a resume onto the fields the prompts use.
// Every field defaults to the empty string.
type Facts struct {
	Name         string `json:"name"`
	Headline     string `json:"headline"`
	Skills       string `json:"skills"`
	Achievements string `json:"achievements"`
}

// IsZero reports whether nothing was extracted.
func (f Facts) IsZero() (zero bool) {
	zero = f == Facts{}
	return zero
}

// Extract derives Facts from raw resume text. It never fails.
func Extract(cvText string) (facts Facts) {
	lines := nonEmptyLines(cvText)
	if len(lines) == 0 {
		return facts
	}

	facts.Name = extractName(lines[0])
	facts.Headline = extractHeadline(lines)
	facts.Skills = summarize(matching(lines, techVocabulary), MaxSkillLines, MaxSkillsChars)
	facts.Achievements = summarize(matching(lines, achievementMark), MaxAchievementLines, MaxAchievementsChars)

	return facts
}

// nonEmptyLines splits text into trimmed, non-empty lines in order.
func nonEmptyLines(text string) (lines []string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func extractName(first string) (name string) {
	tokens := strings.Fields(first)
	if len(tokens) >= 1 && len(tokens) <= MaxNameTokens && capitalizedWord.MatchString(first) {
		name = first
	}
	return name
}

func extractHeadline(lines []string) (headline string) {
	limit := min(len(lines), HeadlineScanLines)
	for _, line := range lines[:limit] {
		if titleVocabulary.MatchString(line) {
			headline = line
			break
		}
	}
	return headline
}

func matching(lines []string, pattern *regexp.Regexp) (matched []string) {
	for _, line := range lines {
		if pattern.MatchString(line) {
			matched = append(matched, line)
		}
	}
	return matched
}

// summarize joins the first n lines and caps the result at maxChars runes.
func summarize(lines []string, n, maxChars int) (summary string) {
	if len(lines) == 0 {
		return summary
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	summary = truncateRunes(strings.Join(lines, separator), maxChars)
	return summary
}

func truncateRunes(s string, maxChars int) (out string) {
	runes := []rune(s)
	if len(runes) <= maxChars {
		out = s
		return out
	}
	out = string(runes[:maxChars])
	return out
}
