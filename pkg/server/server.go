// Package server exposes generation over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
	"github.com/nikogura/cv-tailor/pkg/llm"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to a Generator.
type Server struct {
	engine    *gin.Engine
	generator *generator.Generator
	gateway   llm.Gateway
	scraper   *jobsource.Scraper
	logger    *zap.Logger
}

// New builds the router. A nil logger means zap.L().
func New(gen *generator.Generator, gw llm.Gateway, scraper *jobsource.Scraper, logger *zap.Logger) (s *Server) {
	if logger == nil {
		logger = zap.L()
	}

	s = &Server{
		engine:    gin.New(),
		generator: gen,
		gateway:   gw,
		scraper:   scraper,
		logger:    logger,
	}

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.engine.Use(gin.Recovery(), metrics(), s.requestLog(), cors.New(config))

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/v1")
	{
		api.GET("/health", s.health)
		api.GET("/models", s.models)
		api.POST("/cover-letter", s.coverLetter)
		api.POST("/cv", s.tailorCV)
		api.POST("/pitch", s.pitch)
		api.POST("/scrape", s.scrape)
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() (h http.Handler) {
	h = s.engine
	return h
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) (err error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		err = errors.Wrap(err, "server failed")
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		err = errors.Wrap(err, "server shutdown failed")
		return err
	}

	return err
}

func (s *Server) requestLog() (handler gin.HandlerFunc) {
	handler = func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.logger.Debug("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return handler
}
