// Package fallback renders deterministic text used when generation never succeeds.
package fallback

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nikogura/cv-tailor/pkg/candidate"
)

const (
	namePlaceholder     = "[Your Name]"
	headlinePlaceholder = "Professional"
)

// Letter returns a complete business letter built only from the posting and the extracted facts.
func Letter(jobTitle, company string, facts candidate.Facts) (letter string) {
	name := facts.Name
	if name == "" {
		name = namePlaceholder
	}

	headline := facts.Headline
	if headline == "" {
		headline = headlinePlaceholder
	}

	letter = fmt.Sprintf(`[Date]
%s
[Your Contact Information]

Dear Hiring Manager,

I am writing to express my strong interest in the %s position at %s. As a %s, I am excited about the opportunity to contribute to your team.

My background and experience align well with the requirements of this role. I have developed strong technical and professional skills that would enable me to make meaningful contributions to %s.

I would welcome the opportunity to discuss how my qualifications match your needs. Thank you for considering my application.

Sincerely,
%s`, name, jobTitle, company, headline, company, name)

	return letter
}

// Pitch returns a one-sentence pitch naming the headline and the role.
func Pitch(facts candidate.Facts, jobTitle string) (pitch string) {
	headline := strings.TrimSpace(facts.Headline)
	if headline == "" {
		headline = "professional"
	} else if strings.ToUpper(headline) == headline {
		// All-caps CV headings read badly mid-sentence.
		headline = cases.Title(language.English).String(strings.ToLower(headline))
	}

	pitch = fmt.Sprintf("Experienced %s seeking %s role.", headline, jobTitle)
	return pitch
}
