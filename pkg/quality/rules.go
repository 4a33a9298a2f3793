// Package quality sanitizes generated text and decides whether it is acceptable.
//
// Sanitizing and validating are separate steps over one shared artifact table: Sanitize
// strips what can be stripped, Check rejects whatever reasoning leakage remains.
package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinChars is the shortest trimmed text a rule set built on MinLengthRule accepts.
const MinChars = 200

// Reason is a stable code explaining a validation outcome.
type Reason string

// Reason codes.
const (
	ReasonOK                Reason = "ok"
	ReasonEmpty             Reason = "empty"
	ReasonTooShort          Reason = "too_short"
	ReasonForbiddenArtifact Reason = "forbidden_artifact"
	ReasonOffTopic          Reason = "off_topic"
)

// Input is the text under validation plus the context rules may consult.
type Input struct {
	Text     string
	JobTitle string
	Company  string
}

// Rule is one validation check. Check returns ok=false and an optional detail on violation.
type Rule struct {
	Name        string
	Reason      Reason
	Description string
	Check       func(in Input) (ok bool, detail string)
}

// Result is the outcome of validating a text.
type Result struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason"`
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}

//nolint:gochecknoglobals // Validation rule constants
var (
	// NonEmptyRule rejects blank text.
	NonEmptyRule = Rule{
		Name:        "NON_EMPTY",
		Reason:      ReasonEmpty,
		Description: "Response is empty or whitespace",
		Check: func(in Input) (ok bool, detail string) {
			ok = strings.TrimSpace(in.Text) != ""
			return ok, detail
		},
	}

	// MinLengthRule rejects text shorter than MinChars once trimmed.
	MinLengthRule = Rule{
		Name:        "MIN_LENGTH",
		Reason:      ReasonTooShort,
		Description: fmt.Sprintf("Response is shorter than %d characters", MinChars),
		Check: func(in Input) (ok bool, detail string) {
			n := utf8.RuneCountInString(strings.TrimSpace(in.Text))
			ok = n >= MinChars
			if !ok {
				detail = fmt.Sprintf("%d characters", n)
			}
			return ok, detail
		},
	}

	// ArtifactRule rejects any detectable reasoning leakage.
	ArtifactRule = Rule{
		Name:        "NO_REASONING_ARTIFACTS",
		Reason:      ReasonForbiddenArtifact,
		Description: "Response leaks reasoning markers or chain-of-thought phrases",
		Check: func(in Input) (ok bool, detail string) {
			found, hit := findArtifact(in.Text)
			ok = !hit
			if hit {
				detail = found.Name
			}
			return ok, detail
		},
	}

	// RelevanceRule requires the literal company or job title to appear in the text.
	// Blank literals never match; with neither given the rule fails.
	RelevanceRule = Rule{
		Name:        "MENTIONS_JOB_OR_COMPANY",
		Reason:      ReasonOffTopic,
		Description: "Response mentions neither the company nor the job title",
		Check: func(in Input) (ok bool, detail string) {
			given := false
			for _, literal := range []string{in.Company, in.JobTitle} {
				literal = strings.TrimSpace(literal)
				if literal == "" {
					continue
				}
				given = true
				if strings.Contains(in.Text, literal) {
					ok = true
					return ok, detail
				}
			}

			if !given {
				detail = "no job title or company to match"
			}
			return ok, detail
		},
	}
)

// LetterRules is the rule set applied to cover letters.
func LetterRules() (rules []Rule) {
	rules = []Rule{NonEmptyRule, MinLengthRule, ArtifactRule, RelevanceRule}
	return rules
}

// CVRules is the rule set applied to tailored CVs. A CV need not name the employer.
func CVRules() (rules []Rule) {
	rules = []Rule{NonEmptyRule, MinLengthRule, ArtifactRule}
	return rules
}
