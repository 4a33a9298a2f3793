package jobsource

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultUserAgent is sent with every page request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 10 * time.Second
	// DefaultBrowserTimeout bounds a headless browser render.
	DefaultBrowserTimeout = 30 * time.Second
)

// Scraper fetches job pages and dispatches them to a Source by host.
type Scraper struct {
	client    *http.Client
	userAgent string
	sources   []Source
	generic   Source
	render    Renderer
	logger    *zap.Logger
}

// ScraperOption customizes a Scraper.
type ScraperOption func(s *Scraper)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) (opt ScraperOption) {
	opt = func(s *Scraper) {
		if client != nil {
			s.client = client
		}
	}
	return opt
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) (opt ScraperOption) {
	opt = func(s *Scraper) {
		if userAgent != "" {
			s.userAgent = userAgent
		}
	}
	return opt
}

// WithSources replaces the site sources. The generic source is always tried last.
func WithSources(sources ...Source) (opt ScraperOption) {
	opt = func(s *Scraper) {
		s.sources = sources
	}
	return opt
}

// WithRenderer enables the browser fallback for site sources.
func WithRenderer(render Renderer) (opt ScraperOption) {
	opt = func(s *Scraper) {
		s.render = render
	}
	return opt
}

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) (opt ScraperOption) {
	opt = func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
	return opt
}

// NewScraper creates a Scraper for LinkedIn, Indeed, StepStone and generic pages.
// The browser fallback is off unless WithRenderer is given.
func NewScraper(opts ...ScraperOption) (s *Scraper) {
	s = &Scraper{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		sources:   DefaultSources(),
		generic:   GenericSource{},
		logger:    zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceFor returns the source that handles host.
func (s *Scraper) SourceFor(host string) (source Source) {
	for _, candidate := range s.sources {
		if candidate.Matches(host) {
			source = candidate
			return source
		}
	}
	source = s.generic
	return source
}

// Scrape fetches rawURL and extracts a posting. A site source that fails or finds no
// description falls back to rendering the page in a browser when a Renderer is set.
// ErrNoContent is returned, together with whatever was extracted, when no description is found.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (posting *Posting, err error) {
	var parsed *url.URL
	parsed, err = url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		err = errors.Errorf("invalid job posting URL: %q", rawURL)
		return posting, err
	}

	source := s.SourceFor(parsed.Hostname())
	logger := s.logger.With(zap.String("url", rawURL), zap.String("source", source.Name()))

	var page string
	page, err = s.fetch(ctx, rawURL)
	if err == nil {
		posting, err = parse(page, source)
	}

	_, isSite := source.(SiteSource)
	needsBrowser := err != nil || posting.Description == ""
	if isSite && needsBrowser && s.render != nil {
		logger.Info("falling back to browser rendering", zap.NamedError("cause", err))

		var rendered *Posting
		rendered, err = s.scrapeRendered(ctx, rawURL, source)
		if err != nil {
			err = errors.Wrap(err, "browser fallback failed")
			return posting, err
		}
		posting = rendered
	}

	if err != nil {
		err = errors.Wrapf(err, "failed to scrape %s", rawURL)
		return posting, err
	}

	posting.URL = rawURL
	if posting.Description == "" {
		err = errors.Wrapf(ErrNoContent, "%s", rawURL)
		return posting, err
	}

	logger.Debug("scraped posting", zap.String("title", posting.Title), zap.Int("description_chars", len(posting.Description)))
	return posting, err
}

func (s *Scraper) scrapeRendered(ctx context.Context, rawURL string, source Source) (posting *Posting, err error) {
	var html string
	html, err = s.render(ctx, rawURL)
	if err != nil {
		return posting, err
	}

	posting, err = parse(html, source)
	if err != nil {
		return posting, err
	}

	if posting.Description == "" {
		posting, err = parse(html, s.generic)
		if err != nil {
			return posting, err
		}
	}

	posting.Source = SourceBrowser
	return posting, err
}

// fetch retrieves a page body.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (body string, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return body, err
	}

	req.Header.Set("User-Agent", s.userAgent)

	var resp *http.Response
	resp, err = s.client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return body, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return body, err
	}

	var bodyBytes []byte
	bodyBytes, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return body, err
	}

	body = string(bodyBytes)
	return body, err
}

func parse(page string, source Source) (posting *Posting, err error) {
	var doc *goquery.Document
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		err = errors.Wrap(err, "failed to parse HTML")
		return posting, err
	}

	extracted := source.Extract(doc)
	posting = &extracted
	return posting, err
}
