package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nikogura/cv-tailor/pkg/generator"
	"github.com/nikogura/cv-tailor/pkg/jobsource"
)

// LetterRequest is the body of POST /api/v1/cover-letter.
type LetterRequest struct {
	CVText  string             `json:"cv_text" binding:"required"`
	Job     *jobsource.Posting `json:"job" binding:"required"`
	Company string             `json:"company"`
}

// CVRequest is the body of POST /api/v1/cv.
type CVRequest struct {
	CVText string             `json:"cv_text" binding:"required"`
	Job    *jobsource.Posting `json:"job" binding:"required"`
}

// PitchRequest is the body of POST /api/v1/pitch.
type PitchRequest struct {
	CVText   string             `json:"cv_text" binding:"required"`
	Job      *jobsource.Posting `json:"job" binding:"required"`
	MaxWords int                `json:"max_words" binding:"gte=0"`
}

// ScrapeRequest is the body of POST /api/v1/scrape.
type ScrapeRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"gateway_available": s.gateway.Available(c.Request.Context())})
}

func (s *Server) models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.gateway.Models(c.Request.Context())})
}

func (s *Server) coverLetter(c *gin.Context) {
	var req LetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	letter, err := s.generator.CoverLetter(c.Request.Context(), req.CVText, req.Job, req.Company)
	if err != nil {
		s.generationFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cover_letter": letter})
}

func (s *Server) tailorCV(c *gin.Context) {
	var req CVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cv, err := s.generator.TailorCV(c.Request.Context(), req.CVText, req.Job)
	if err != nil {
		s.generationFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cv": cv})
}

func (s *Server) pitch(c *gin.Context) {
	var req PitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pitch, err := s.generator.ShortPitch(c.Request.Context(), req.CVText, req.Job, req.MaxWords)
	if err != nil {
		s.generationFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pitch": pitch})
}

func (s *Server) scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	posting, err := s.scraper.Scrape(c.Request.Context(), req.URL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, posting)
	case errors.Is(err, jobsource.ErrNoContent):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "posting": posting})
	default:
		s.logger.Warn("scrape failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func (s *Server) generationFailed(c *gin.Context, err error) {
	if errors.Is(err, generator.ErrMissingInput) {
		badRequest(c, err)
		return
	}
	s.logger.Error("generation failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
