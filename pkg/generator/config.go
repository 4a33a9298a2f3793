package generator

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nikogura/cv-tailor/pkg/prompt"
)

// Config controls prompt limits and the retry policy.
type Config struct {
	MaxCVChars        int           `json:"max_cv_chars" validate:"gt=0"`
	MaxJobChars       int           `json:"max_job_chars" validate:"gt=0"`
	MinWords          int           `json:"min_words" validate:"gt=0"`
	MaxWords          int           `json:"max_words" validate:"gtefield=MinWords"`
	Paragraphs        int           `json:"paragraphs" validate:"gt=0"`
	MaxRetries        int           `json:"max_retries" validate:"gte=1"`
	BackoffMultiplier float64       `json:"backoff_multiplier" validate:"gt=1"`
	InitialBackoff    time.Duration `json:"initial_backoff" validate:"gte=0"`
	Temperature       float64       `json:"temperature" validate:"gte=0,lte=1"`
	Model             string        `json:"model"`
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() (cfg Config) {
	cfg = Config{
		MaxCVChars:        8000,
		MaxJobChars:       4000,
		MinWords:          300,
		MaxWords:          450,
		Paragraphs:        4,
		MaxRetries:        3,
		BackoffMultiplier: 1.3,
		InitialBackoff:    time.Second,
		Temperature:       0.7,
	}
	return cfg
}

// Validate checks the configuration invariants.
func (c Config) Validate() (err error) {
	err = validator.New().Struct(c)
	if err != nil {
		err = errors.Wrap(err, "invalid generation config")
		return err
	}
	return err
}

// Limits projects the configuration onto the prompt builder's limits.
func (c Config) Limits() (limits prompt.Limits) {
	limits = prompt.Limits{
		MaxCVChars:  c.MaxCVChars,
		MaxJobChars: c.MaxJobChars,
		MinWords:    c.MinWords,
		MaxWords:    c.MaxWords,
		Paragraphs:  c.Paragraphs,
	}
	return limits
}
