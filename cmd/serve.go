package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/server"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveAddr string

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	Long: `Serve cover letter, CV, pitch and scraping endpoints as a JSON API.

Endpoints:
  GET  /api/v1/health
  GET  /api/v1/models
  POST /api/v1/cover-letter
  POST /api/v1/cv
  POST /api/v1/pitch
  POST /api/v1/scrape
  GET  /metrics

Example:
  cv-tailor serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := commandContext(0)
	defer cancel()

	var a app
	a, err = setupApp()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	if !getVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	checkGateway(ctx, a)
	zap.L().Info("starting server", zap.String("addr", addr), zap.String("model", a.cfg.Gateway.Model))

	err = server.New(a.generator, a.gateway, a.scraper, zap.L()).Run(ctx, addr)
	return err
}
