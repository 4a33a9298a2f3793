package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
)

//nolint:gochecknoglobals // Cobra boilerplate
var pitchMaxWords int

//nolint:gochecknoglobals // Cobra boilerplate
var pitchCmd = &cobra.Command{
	Use:   "pitch <job-url-or-file>",
	Short: "Write a one-sentence pitch for an application",
	Long: `Write a single sentence introducing you for the role, for an email subject
or the first line of a message.

Example:
  cv-tailor pitch job.txt --cv cv.pdf
  cv-tailor pitch https://de.indeed.com/viewjob?jk=abc --cv cv.docx --max-words 20`,
	Args: cobra.ExactArgs(1),
	RunE: runPitch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(pitchCmd)
	addPostingFlags(pitchCmd)
	pitchCmd.Flags().IntVar(&pitchMaxWords, "max-words", generator.DefaultPitchWords, "Maximum words in the pitch")
}

func runPitch(cmd *cobra.Command, args []string) (err error) {
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

	var pitch string
	withProgress("Writing pitch...", func() {
		pitch, err = a.generator.ShortPitch(ctx, cvText, posting, pitchMaxWords)
	})
	if err != nil {
		err = errors.Wrap(err, "pitch generation failed")
		return err
	}

	fmt.Println(pitch)
	return err
}
