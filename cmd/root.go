package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/logging"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cv-tailor",
	Short: "Generate tailored CVs and cover letters with a local language model",
	Long: `cv-tailor reads your CV and a job posting and writes a tailored CV, a cover letter
and a short pitch for the application.

Generation runs against a locally hosted model (Ollama by default, or any
OpenAI-compatible server). Every response is checked before it is used; when the
model cannot produce an acceptable text a template letter is written instead.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cv-tailor/config.json)")
}

func setupLogging(cmd *cobra.Command, args []string) (err error) {
	var logger *zap.Logger
	logger, err = logging.New(getVerbose())
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return err
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}
