package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikogura/cv-tailor/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default configuration to $HOME/.cv-tailor/config.json (or --config).

Environment variables override the file: CV_TAILOR_GATEWAY_URL, CV_TAILOR_MODEL,
CV_TAILOR_PROVIDER and OPENAI_API_KEY. A .env file in the working directory is read too.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	var path string
	path, err = config.InitConfig(getConfigFile())
	if err != nil {
		return err
	}

	fmt.Printf("Config written to %s\n", path)
	return err
}
