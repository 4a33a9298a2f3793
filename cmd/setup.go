package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/config"
	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
	"github.com/nikogura/cv-tailor/pkg/resume"
)

// app bundles what every command needs.
type app struct {
	cfg       config.Config
	gateway   llm.Gateway
	generator *generator.Generator
	scraper   *jobsource.Scraper
}

// setupApp loads the config and wires the gateway, generator and scraper.
func setupApp() (a app, err error) {
	a.cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return a, err
	}

	a.gateway, err = llm.NewGateway(a.cfg.GatewaySettings())
	if err != nil {
		err = errors.Wrap(err, "failed to create gateway")
		return a, err
	}

	a.generator, err = generator.New(a.gateway,
		generator.WithConfig(a.cfg.GenerationConfig()),
		generator.WithLogger(zap.L()),
	)
	if err != nil {
		err = errors.Wrap(err, "failed to create generator")
		return a, err
	}

	a.scraper = newScraper(a.cfg)
	return a, err
}

func newScraper(cfg config.Config) (s *jobsource.Scraper) {
	userAgent := cfg.Scraper.UserAgent
	if userAgent == "" {
		userAgent = jobsource.DefaultUserAgent
	}

	opts := []jobsource.ScraperOption{
		jobsource.WithHTTPClient(&http.Client{Timeout: cfg.ScraperTimeout()}),
		jobsource.WithUserAgent(userAgent),
		jobsource.WithLogger(zap.L()),
	}
	if cfg.Scraper.UseBrowser {
		opts = append(opts, jobsource.WithRenderer(jobsource.ChromeRenderer(userAgent, jobsource.DefaultBrowserTimeout)))
	}

	s = jobsource.NewScraper(opts...)
	return s
}

// checkGateway warns when the model server does not answer. Generation still runs and falls back.
func checkGateway(ctx context.Context, a app) {
	if a.gateway.Available(ctx) {
		if getVerbose() {
			fmt.Printf("Model server reachable at %s (model %s)\n", a.cfg.Gateway.BaseURL, a.cfg.Gateway.Model)
		}
		return
	}

	fmt.Printf("Warning: model server not reachable at %s\n", a.cfg.Gateway.BaseURL)
	fmt.Println("Start it (e.g. 'ollama serve') or template texts will be used.")
}

// loadCV extracts the CV text from a PDF, DOCX, TXT or MD file.
func loadCV(path string) (text string, err error) {
	if path == "" {
		err = errors.New("--cv is required")
		return text, err
	}

	if getVerbose() {
		fmt.Printf("Loading CV from: %s\n", path)
	}

	text, err = resume.Load(path)
	if err != nil {
		err = errors.Wrap(err, "failed to load CV")
		return text, err
	}

	if getVerbose() {
		fmt.Printf("CV loaded (%d characters)\n", len([]rune(text)))
	}

	return text, err
}

// loadPosting fetches the job posting from a URL or file. When a URL cannot be
// scraped the description is read from stdin instead.
func loadPosting(ctx context.Context, scraper *jobsource.Scraper, input string, manual jobsource.Posting) (posting *jobsource.Posting, err error) {
	if getVerbose() {
		fmt.Printf("Loading job posting from: %s\n", input)
	}

	posting, err = scraper.Load(ctx, input, manual)
	if err == nil {
		if getVerbose() {
			fmt.Printf("Job posting loaded from %s (%d characters)\n", posting.Source, len([]rune(posting.Description)))
		}
		return posting, err
	}

	if !jobsource.IsURL(input) {
		return posting, err
	}

	fmt.Printf("\nWarning: Failed to fetch job posting from URL: %v\n", err)
	fmt.Println("This often happens with JavaScript-rendered pages (set scraper.use_browser in the config).")
	fmt.Println("\nPlease paste the job description text below.")
	fmt.Println("When finished, press Ctrl+D (Unix/Mac) or Ctrl+Z then Enter (Windows):")
	fmt.Println()

	var description string
	description, err = readStdin()
	if err != nil {
		return posting, err
	}

	posting = &jobsource.Posting{
		Title:       strings.TrimSpace(manual.Title),
		Company:     strings.TrimSpace(manual.Company),
		Location:    strings.TrimSpace(manual.Location),
		Description: description,
		URL:         input,
		Source:      jobsource.SourceManual,
	}

	fmt.Printf("\nJob description received (%d characters)\n", len([]rune(description)))
	err = posting.Validate()
	return posting, err
}

func readStdin() (text string, err error) {
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if scanner.Err() != nil {
		err = errors.Wrap(scanner.Err(), "failed to read job description from stdin")
		return text, err
	}

	text = strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		err = errors.New("no job description provided")
		return text, err
	}

	return text, err
}

// spinner provides a simple text-based progress indicator.
type spinner struct {
	message string
	stop    chan bool
	done    chan bool
	mu      sync.Mutex
	active  bool
}

func newSpinner(message string) (s *spinner) {
	s = &spinner{
		message: message,
		stop:    make(chan bool),
		done:    make(chan bool),
	}
	return s
}

func (s *spinner) start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		chars := []string{"|", "/", "-", "\\"}
		i := 0
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		fmt.Printf("%s ", s.message)
		for {
			select {
			case <-s.stop:
				fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.message)+2))
				s.done <- true
				return
			case <-ticker.C:
				fmt.Printf("\r%s %s", s.message, chars[i%len(chars)])
				i++
			}
		}
	}()
}

func (s *spinner) stopSpinner() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.stop <- true
	<-s.done

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// withProgress runs fn behind a spinner unless output is verbose, where log lines would garble it.
func withProgress(message string, fn func()) {
	if getVerbose() {
		fmt.Println(message)
		fn()
		return
	}

	sp := newSpinner(message)
	sp.start()
	fn()
	sp.stopSpinner()
}

// sanitizeFilename turns a company or role into a lower-case, hyphenated file name part.
func sanitizeFilename(name string) (sanitized string) {
	suffixes := []string{
		", LLC", ", Inc.", ", Inc",
		" GmbH", " AG", " LLC", " Inc.", " Inc",
		" Corporation", " Corp.", " Corp", " Limited", " Ltd.", " Ltd",
	}

	sanitized = strings.TrimSpace(name)
	for _, suffix := range suffixes {
		if strings.HasSuffix(strings.ToLower(sanitized), strings.ToLower(suffix)) {
			sanitized = sanitized[:len(sanitized)-len(suffix)]
		}
	}

	sanitized = strings.ToLower(sanitized)
	sanitized = strings.Map(func(r rune) (result rune) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result = r
			return result
		}
		result = '-'
		return result
	}, sanitized)

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-")
	return sanitized
}

// outputFiles holds the base paths, without extension, of one application's documents.
type outputFiles struct {
	cv          string
	coverLetter string
	posting     string
}

// buildFilenames names the documents after company and role.
func buildFilenames(outDir, company, role string) (files outputFiles) {
	roleWords := strings.Fields(role)
	if len(roleWords) > 4 {
		role = strings.Join(roleWords[:4], " ")
	}

	base := sanitizeFilename(company) + "-" + sanitizeFilename(role)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "application"
	}

	files = outputFiles{
		cv:          filepath.Join(outDir, base+"-cv"),
		coverLetter: filepath.Join(outDir, base+"-cover-letter"),
		posting:     filepath.Join(outDir, base+"-job.txt"),
	}
	return files
}
