package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show whether the model server is up and which models it has",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	var a app
	a, err = setupApp()
	if err != nil {
		return err
	}

	fmt.Printf("Provider: %s\n", a.cfg.Gateway.Provider)
	fmt.Printf("Server:   %s\n", a.cfg.Gateway.BaseURL)

	policy := a.generator.Config()
	fmt.Printf("Retries:  %d attempts, temperature %.2f, backoff %s x%.1f\n",
		policy.MaxRetries, policy.Temperature, policy.InitialBackoff, policy.BackoffMultiplier)

	if !a.gateway.Available(ctx) {
		fmt.Println("Status:   not reachable")
		return err
	}
	fmt.Println("Status:   reachable")

	models := a.gateway.Models(ctx)
	if len(models) == 0 {
		fmt.Println("No models installed (try 'ollama pull llama3')")
		return err
	}

	fmt.Println("Models:")
	for _, m := range models {
		marker := " "
		if m == a.cfg.Gateway.Model || m == a.cfg.Gateway.Model+":latest" {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, m)
	}

	return err
}
