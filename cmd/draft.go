package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
	"github.com/nikogura/cv-tailor/pkg/quality"
)

//nolint:gochecknoglobals // Cobra boilerplate
var draftCmd = &cobra.Command{
	Use:   "draft <job-url-or-file>",
	Short: "Stream a cover letter draft and check it",
	Long: `Stream a single cover letter attempt to the terminal as the model writes it,
then report whether it would pass the quality checks used by 'generate'.

Nothing is retried and nothing is written to disk.

Example:
  cv-tailor draft job.txt --cv cv.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runDraft,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(draftCmd)
	addPostingFlags(draftCmd)
}

func runDraft(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := commandContext(5 * time.Minute)
	defer cancel()

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
	posting, err = loadPosting(ctx, a.scraper, args[0], jobsource.Posting{Title: role, Company: company})
	if err != nil {
		return err
	}

	var chunks <-chan llm.Chunk
	chunks, err = a.generator.Draft(ctx, cvText, posting, company)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			err = errors.Wrap(chunk.Err, "draft stream failed")
			return err
		}
		fmt.Print(chunk.Content)
		sb.WriteString(chunk.Content)
	}
	fmt.Println()

	title, finalCompany := generator.Resolved(posting, company)
	printVerdict(quality.Check(quality.Sanitize(sb.String()), title, finalCompany))

	return err
}

func printVerdict(result quality.Result) {
	fmt.Println()
	if result.OK {
		fmt.Println("✓ Passes quality checks")
		return
	}

	fmt.Printf("✗ Rejected: %s (%s)", result.Reason, result.Rule)
	if result.Detail != "" {
		fmt.Printf(": %s", result.Detail)
	}
	fmt.Println()
}
