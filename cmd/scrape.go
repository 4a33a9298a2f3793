package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/config"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Print the job posting found at a URL as JSON",
	Long: `Fetch a job posting and print the extracted fields as JSON.

LinkedIn, Indeed and StepStone pages are read field by field; any other page
yields its first heading and its text.

Example:
  cv-tailor scrape https://www.stepstone.de/stellenangebote--SRE-123.html`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := commandContext(time.Minute)
	defer cancel()

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return err
	}

	var posting *jobsource.Posting
	posting, err = newScraper(cfg).Scrape(ctx, args[0])
	if err != nil && !errors.Is(err, jobsource.ErrNoContent) {
		return err
	}

	var data []byte
	data, err = json.MarshalIndent(posting, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to encode posting")
		return err
	}

	fmt.Println(string(data))

	if posting.Description == "" {
		err = errors.Wrap(jobsource.ErrNoContent, args[0])
		return err
	}

	return err
}
