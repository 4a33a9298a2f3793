package jobsource

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxGenericChars caps the page text a generic source keeps as the description.
const MaxGenericChars = 2000

// Source extracts a posting from a parsed page.
type Source interface {
	// Name is recorded as Posting.Source.
	Name() (name string)
	// Matches reports whether the source handles pages from host.
	Matches(host string) (ok bool)
	// Extract reads the posting fields out of doc.
	Extract(doc *goquery.Document) (posting Posting)
}

// SiteSource extracts postings from one job board using CSS selectors.
// For each field the first selector that matches wins.
type SiteSource struct {
	SiteName             string
	Hosts                []string
	TitleSelectors       []string
	CompanySelectors     []string
	LocationSelectors    []string
	DescriptionSelectors []string
}

// Name returns the site name.
func (s SiteSource) Name() (name string) {
	name = s.SiteName
	return name
}

// Matches reports whether host contains one of the site's host fragments.
func (s SiteSource) Matches(host string) (ok bool) {
	host = strings.ToLower(host)
	for _, h := range s.Hosts {
		if strings.Contains(host, h) {
			ok = true
			return ok
		}
	}
	return ok
}

// Extract reads the posting from doc.
func (s SiteSource) Extract(doc *goquery.Document) (posting Posting) {
	posting = Posting{
		Title:    orDefault(firstText(doc, s.TitleSelectors), NotFound),
		Company:  orDefault(firstText(doc, s.CompanySelectors), NotFound),
		Location: orDefault(firstText(doc, s.LocationSelectors), NotSpecified),
		Source:   s.SiteName,
	}

	if sel := first(doc, s.DescriptionSelectors); sel != nil {
		posting.Description = textLines(sel)
	}

	return posting
}

// GenericSource handles any page: the first h1 and the page text.
type GenericSource struct {
	SourceName string
}

// Name returns the source name.
func (g GenericSource) Name() (name string) {
	name = g.SourceName
	if name == "" {
		name = SourceGeneric
	}
	return name
}

// Matches accepts every host.
func (g GenericSource) Matches(host string) (ok bool) {
	ok = true
	return ok
}

// Extract reads the first h1 as title and up to MaxGenericChars of page text as description.
func (g GenericSource) Extract(doc *goquery.Document) (posting Posting) {
	posting = Posting{
		Title:    orDefault(strings.TrimSpace(doc.Find("h1").First().Text()), GenericTitle),
		Company:  NotSpecified,
		Location: NotSpecified,
		Source:   g.Name(),
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	posting.Description = truncateRunes(textLines(body), MaxGenericChars)

	return posting
}

// LinkedIn returns the LinkedIn job page source.
func LinkedIn() (s SiteSource) {
	s = SiteSource{
		SiteName:             SourceLinkedIn,
		Hosts:                []string{"linkedin.com"},
		TitleSelectors:       []string{"h1.top-card-layout__title", "h1"},
		CompanySelectors:     []string{"a.topcard__org-name-link", "span.topcard__flavor"},
		LocationSelectors:    []string{"span.topcard__flavor--bullet"},
		DescriptionSelectors: []string{"div.description__text", "div.show-more-less-html__markup"},
	}
	return s
}

// Indeed returns the Indeed job page source.
func Indeed() (s SiteSource) {
	s = SiteSource{
		SiteName:             SourceIndeed,
		Hosts:                []string{"indeed.com", "indeed.de"},
		TitleSelectors:       []string{"h1.jobsearch-JobInfoHeader-title"},
		CompanySelectors:     []string{"div[data-company-name]"},
		LocationSelectors:    []string{`div[data-testid="job-location"]`},
		DescriptionSelectors: []string{"div#jobDescriptionText"},
	}
	return s
}

// StepStone returns the StepStone job page source.
func StepStone() (s SiteSource) {
	s = SiteSource{
		SiteName:             SourceStepStone,
		Hosts:                []string{"stepstone"},
		TitleSelectors:       []string{`h1[data-at="header-job-title"]`},
		CompanySelectors:     []string{`span[data-at="header-company-name"]`},
		LocationSelectors:    []string{`span[data-at="job-location"]`},
		DescriptionSelectors: []string{`div[data-at="jobdescription-content"]`},
	}
	return s
}

// DefaultSources lists the site sources in dispatch order.
func DefaultSources() (sources []Source) {
	sources = []Source{LinkedIn(), Indeed(), StepStone()}
	return sources
}

func first(doc *goquery.Document, selectors []string) (sel *goquery.Selection) {
	for _, selector := range selectors {
		if found := doc.Find(selector); found.Length() > 0 {
			sel = found.First()
			return sel
		}
	}
	return sel
}

func firstText(doc *goquery.Document, selectors []string) (text string) {
	if sel := first(doc, selectors); sel != nil {
		text = strings.TrimSpace(sel.Text())
	}
	return text
}

// textLines returns every non-blank text node under sel, trimmed, one per line.
func textLines(sel *goquery.Selection) (text string) {
	var lines []string

	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					lines = append(lines, t)
				}
			case "script", "style", "noscript", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(sel)

	text = strings.Join(lines, "\n")
	return text
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
