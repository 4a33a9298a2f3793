package jobsource

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// IsURL reports whether input is an http or https URL.
func IsURL(input string) (ok bool) {
	parsed, err := url.Parse(input)
	ok = err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https")
	return ok
}

// Load retrieves a posting from a URL or a local file with a default Scraper.
func Load(ctx context.Context, input string, manual Posting) (posting *Posting, err error) {
	posting, err = NewScraper().Load(ctx, input, manual)
	return posting, err
}

// Load retrieves a posting from a URL or a local file.
//
// A URL is scraped; non-empty Title, Company and Location in manual then replace the
// scraped values. A file is read as the description of a manually entered posting.
func (s *Scraper) Load(ctx context.Context, input string, manual Posting) (posting *Posting, err error) {
	if IsURL(input) {
		posting, err = s.Scrape(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch job posting from URL: %s", input)
			return posting, err
		}
		applyOverrides(posting, manual)
		return posting, err
	}

	var content string
	content, err = readFile(input)
	if err != nil {
		err = errors.Wrapf(err, "failed to fetch job posting from file: %s", input)
		return posting, err
	}

	posting = &Posting{
		Title:       strings.TrimSpace(manual.Title),
		Company:     strings.TrimSpace(manual.Company),
		Location:    strings.TrimSpace(manual.Location),
		Description: content,
		Source:      SourceManual,
	}

	err = posting.Validate()
	return posting, err
}

func applyOverrides(posting *Posting, manual Posting) {
	if v := strings.TrimSpace(manual.Title); v != "" {
		posting.Title = v
	}
	if v := strings.TrimSpace(manual.Company); v != "" {
		posting.Company = v
	}
	if v := strings.TrimSpace(manual.Location); v != "" {
		posting.Location = v
	}
}

// readFile reads a job description from a file.
func readFile(path string) (content string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return content, err
	}

	content = strings.TrimSpace(string(data))
	if content == "" {
		err = errors.New("file is empty")
		return content, err
	}

	return content, err
}
