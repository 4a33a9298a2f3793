package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/renderer"
)

// Output formats.
const (
	formatTxt  = "txt"
	formatDocx = "docx"
	formatBoth = "both"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cvPath string

//nolint:gochecknoglobals // Cobra boilerplate
var company string

//nolint:gochecknoglobals // Cobra boilerplate
var role string

//nolint:gochecknoglobals // Cobra boilerplate
var location string

//nolint:gochecknoglobals // Cobra boilerplate
var outputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var format string

//nolint:gochecknoglobals // Cobra boilerplate
var renderPDF bool

//nolint:gochecknoglobals // Cobra boilerplate
var skipCV bool

//nolint:gochecknoglobals // Cobra boilerplate
var skipLetter bool

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate <job-url-or-file>",
	Short: "Generate a tailored CV and cover letter",
	Long: `Generate a tailored CV and a cover letter for a job posting.

The job posting can be provided as:
- A URL (LinkedIn, Indeed and StepStone pages are read field by field; any other page as text)
- A file path containing the job description

Your CV can be a PDF, DOCX, TXT or MD file.

Example:
  cv-tailor generate https://www.linkedin.com/jobs/view/123 --cv cv.pdf
  cv-tailor generate job.txt --cv cv.docx --company "Acme" --role "Staff Engineer"
  cv-tailor generate job.txt --cv cv.md --format both --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	addPostingFlags(generateCmd)
	generateCmd.Flags().StringVar(&location, "location", "", "Job location (overrides the posting)")
	generateCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory (default from config)")
	generateCmd.Flags().StringVar(&format, "format", formatBoth, "Output format: txt, docx or both")
	generateCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Also render PDFs with pandoc")
	generateCmd.Flags().BoolVar(&skipCV, "skip-cv", false, "Do not generate a tailored CV")
	generateCmd.Flags().BoolVar(&skipLetter, "skip-letter", false, "Do not generate a cover letter")
}

// addPostingFlags registers the flags shared by commands that take a CV and a posting.
func addPostingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cvPath, "cv", "", "CV file (pdf, docx, txt or md)")
	cmd.Flags().StringVar(&company, "company", "", "Company name (overrides the posting)")
	cmd.Flags().StringVar(&role, "role", "", "Role title (overrides the posting)")
}

// commandContext bounds a command and cancels it on interrupt.
func commandContext(timeout time.Duration) (ctx context.Context, cancel context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		cancel = stop
		return ctx, cancel
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	cancel = func() {
		cancelTimeout()
		stop()
	}
	return ctx, cancel
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := commandContext(15 * time.Minute)
	defer cancel()

	err = validateFormat(format)
	if err != nil {
		return err
	}

	if skipCV && skipLetter {
		err = errors.New("nothing to do: --skip-cv and --skip-letter are both set")
		return err
	}

	var a app
	a, err = setupApp()
	if err != nil {
		return err
	}

	var cvText string
	cvText, err = loadCV(cvPath)
	if err != nil {
		return err
	}

	var posting *jobsource.Posting
	posting, err = loadPosting(ctx, a.scraper, args[0], jobsource.Posting{Title: role, Company: company, Location: location})
	if err != nil {
		return err
	}

	checkGateway(ctx, a)

	finalRole, finalCompany := generator.Resolved(posting, company)
	fmt.Printf("Applying for %s at %s\n", finalRole, finalCompany)

	var outDir string
	outDir, err = createCompanyOutputDir(getBaseOutputDir(a), finalCompany)
	if err != nil {
		return err
	}

	files := buildFilenames(outDir, finalCompany, finalRole)

	err = renderer.WriteText(posting.Description, files.posting)
	if err != nil {
		return err
	}

	var written []string

	if !skipCV {
		var tailored string
		withProgress("Tailoring CV...", func() {
			tailored, err = a.generator.TailorCV(ctx, cvText, posting)
		})
		if err != nil {
			err = errors.Wrap(err, "CV tailoring failed")
			return err
		}
		fmt.Println("✓ CV ready")

		var paths []string
		paths, err = writeDocument(tailored, "Curriculum Vitae", files.cv)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	if !skipLetter {
		var letter string
		withProgress("Writing cover letter...", func() {
			letter, err = a.generator.CoverLetter(ctx, cvText, posting, company)
		})
		if err != nil {
			err = errors.Wrap(err, "cover letter generation failed")
			return err
		}
		fmt.Println("✓ Cover letter ready")

		var paths []string
		paths, err = writeDocument(letter, "Cover Letter", files.coverLetter)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	if skills := a.generator.KeySkills(ctx, cvText); len(skills) > 0 {
		fmt.Printf("Key skills: %s\n", strings.Join(skills, ", "))
	}

	fmt.Println("\nFiles written:")
	for _, path := range written {
		fmt.Printf("  %s\n", path)
	}

	return err
}

func validateFormat(f string) (err error) {
	switch f {
	case formatTxt, formatDocx, formatBoth:
	default:
		err = errors.Errorf("invalid format %q: must be txt, docx or both", f)
	}
	return err
}

// writeDocument writes text in the selected formats next to base, plus a PDF when requested.
func writeDocument(text, title, base string) (paths []string, err error) {
	if format == formatTxt || format == formatBoth {
		path := base + ".txt"
		err = renderer.WriteText(text, path)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if format == formatDocx || format == formatBoth {
		path := base + ".docx"
		err = renderer.WriteDOCX(text, title, path)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if !renderPDF {
		return paths, err
	}

	var pdf string
	pdf, err = writePDF(text, base)
	if err != nil {
		return paths, err
	}
	paths = append(paths, pdf)

	return paths, err
}

// writePDF renders base.pdf from the text output, or from a temporary markdown copy
// when no text file was written.
func writePDF(text, base string) (pdf string, err error) {
	pdf = base + ".pdf"
	source := base + ".txt"

	temporary := format == formatDocx
	if temporary {
		source = base + ".md"
		err = renderer.WriteText(text, source)
		if err != nil {
			return pdf, err
		}
	}

	if getVerbose() {
		fmt.Printf("Rendering %s\n", pdf)
	}

	err = renderer.RenderPDF(source, pdf)
	if temporary {
		if cleanupErr := renderer.Cleanup(source); cleanupErr != nil && getVerbose() {
			fmt.Printf("Warning: %v\n", cleanupErr)
		}
	}
	if err != nil {
		err = errors.Wrap(err, "PDF rendering failed")
		return pdf, err
	}

	return pdf, err
}

// getBaseOutputDir returns the base output directory from flag or config.
func getBaseOutputDir(a app) (baseOutDir string) {
	baseOutDir = outputDir
	if baseOutDir == "" {
		baseOutDir = a.cfg.Defaults.OutputDir
	}
	return baseOutDir
}

func createCompanyOutputDir(baseOutDir, company string) (outDir string, err error) {
	outDir = filepath.Join(baseOutDir, sanitizeFilename(company))
	err = os.MkdirAll(outDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outDir)
		return outDir, err
	}
	return outDir, err
}
