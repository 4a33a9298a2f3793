package quality

import (
	"regexp"
	"strings"
)

// Artifact is one kind of reasoning leakage a model may emit.
// Detect rejects a response containing it. Strip, when set, removes it during sanitizing.
type Artifact struct {
	Name   string
	Detect *regexp.Regexp
	Strip  *regexp.Regexp
	Sample string // a literal occurrence, used by tests
}

//nolint:gochecknoglobals // Compiled once, read-only
var artifacts = []Artifact{
	{
		Name:   "think tag",
		Detect: regexp.MustCompile(`(?i)</?think>`),
		Strip:  regexp.MustCompile(`(?i)</?think>`),
		Sample: "<THINK>",
	},
	{
		Name:   "think tag spaced",
		Detect: regexp.MustCompile(`(?i)<\s*(/\s*)?think\b`),
		Sample: "< / think >",
	},
	{
		Name:   "reason tag",
		Detect: regexp.MustCompile(`(?i)</?reason>`),
		Strip:  regexp.MustCompile(`(?i)</?reason>`),
		Sample: "</Reason>",
	},
	{
		Name:   "thinking marker",
		Detect: regexp.MustCompile(`(?i)\[thinking\]`),
		Strip:  regexp.MustCompile(`(?i)\[thinking\]`),
		Sample: "[Thinking]",
	},
	{
		Name:   "thought marker",
		Detect: regexp.MustCompile(`(?i)\[thought\]`),
		Strip:  regexp.MustCompile(`(?i)\[thought\]`),
		Sample: "[THOUGHT]",
	},
	{
		Name:   "let me think",
		Detect: regexp.MustCompile(`(?i)let me think`),
		Sample: "Let Me Think",
	},
	{
		Name:   "my reasoning",
		Detect: regexp.MustCompile(`(?i)my reasoning`),
		Sample: "MY REASONING",
	},
	{
		Name:   "chain of thought",
		Detect: regexp.MustCompile(`(?i)chain of thought`),
		Sample: "Chain of Thought",
	},
}

// Artifacts returns a copy of the artifact table.
func Artifacts() (table []Artifact) {
	table = make([]Artifact, len(artifacts))
	copy(table, artifacts)
	return table
}

// Sanitize removes every strippable artifact token and trims the result.
func Sanitize(text string) (clean string) {
	clean = text
	for _, a := range artifacts {
		if a.Strip == nil {
			continue
		}
		clean = a.Strip.ReplaceAllString(clean, "")
	}
	clean = strings.TrimSpace(clean)
	return clean
}

// findArtifact returns the first artifact detected in text.
func findArtifact(text string) (found Artifact, ok bool) {
	for _, a := range artifacts {
		if a.Detect.MatchString(text) {
			found = a
			ok = true
			return found, ok
		}
	}
	return found, ok
}
