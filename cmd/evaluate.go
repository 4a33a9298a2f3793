package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/quality"
	"github.com/nikogura/cv-tailor/pkg/renderer"
)

//nolint:gochecknoglobals // Cobra boilerplate
var evaluateFix bool

//nolint:gochecknoglobals // Cobra boilerplate
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <letter-file>",
	Short: "Check an existing cover letter",
	Long: `Check a cover letter against the rules every generated letter must pass:

- The letter is not empty
- It is at least 200 characters long
- It contains no leaked model reasoning (<think> tags, "let me think", ...)
- It mentions the job title or the company

Reasoning tags are stripped before checking, as they are during generation.
With --fix the stripped text is written back to the file.

Example:
  cv-tailor evaluate applications/acme/acme-sre-cover-letter.txt --role SRE --company Acme`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&role, "role", "", "Job title the letter should mention")
	evaluateCmd.Flags().StringVar(&company, "company", "", "Company the letter should mention")
	evaluateCmd.Flags().BoolVar(&evaluateFix, "fix", false, "Write the sanitized letter back to the file")
}

func runEvaluate(cmd *cobra.Command, args []string) (err error) {
	path := args[0]

	if strings.TrimSpace(role) == "" && strings.TrimSpace(company) == "" {
		err = errors.New("provide --role or --company to check relevance against")
		return err
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read letter: %s", path)
		return err
	}

	original := string(data)
	clean := quality.Sanitize(original)

	validator := quality.NewValidator()
	if getVerbose() {
		fmt.Printf("Rules: %v\n", validator.Rules())
	}

	result := validator.Validate(quality.Input{Text: clean, JobTitle: role, Company: company})

	fmt.Printf("Evaluating %s (%d characters)\n", path, len([]rune(clean)))
	printVerdict(result)

	if evaluateFix && clean != original {
		err = renderer.WriteText(clean, path)
		if err != nil {
			return err
		}
		fmt.Println("✓ Sanitized letter written back")
	}

	if !result.OK {
		err = errors.Errorf("letter rejected: %s", result.Reason)
		return err
	}

	return err
}
