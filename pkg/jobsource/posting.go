// Package jobsource obtains job postings from job boards, arbitrary pages or local files.
package jobsource

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Placeholder values a source uses when a field is absent from the page.
const (
	NotFound     = "Not found"
	NotSpecified = "Not specified"
	GenericTitle = "Job Title"
)

// Source names recorded on a Posting.
const (
	SourceLinkedIn  = "LinkedIn"
	SourceIndeed    = "Indeed"
	SourceStepStone = "StepStone"
	SourceGeneric   = "Generic"
	SourceBrowser   = "Browser"
	SourceManual    = "Manual"
)

// ErrNoContent is returned when a page yields no job description.
var ErrNoContent = errors.New("no job description found")

// Posting is a job posting. It is read-only once produced.
type Posting struct {
	Title       string `json:"title" validate:"required_without=Description"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description" validate:"required_without=Title"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source"`
}

// Validate requires a title or a description.
func (p *Posting) Validate() (err error) {
	err = validator.New().Struct(p)
	if err != nil {
		err = errors.Wrap(err, "invalid job posting")
		return err
	}
	return err
}
