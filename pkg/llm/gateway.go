// Package llm talks to the text generation backend.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// ProviderOllama selects the native Ollama API.
	ProviderOllama = "ollama"
	// ProviderOpenAI selects an OpenAI-compatible chat completions API.
	ProviderOpenAI = "openai"

	// DefaultOllamaURL is where a local Ollama server listens.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultModel is used when neither the request nor the settings name a model.
	DefaultModel = "llama3"
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 120 * time.Second

	availabilityTimeout = 2 * time.Second
	listTimeout         = 5 * time.Second
)

// Gateway is the generation backend as the rest of the program sees it.
type Gateway interface {
	// Available reports whether the backend answers at all.
	Available(ctx context.Context) (ok bool)
	// Models lists installed model names. It is empty when the backend is unreachable.
	Models(ctx context.Context) (models []string)
	// Generate returns the full response text for one request.
	Generate(ctx context.Context, req Request) (text string, err error)
	// Stream returns a channel of chunks which the producer closes when done.
	// Callers must drain the channel or cancel ctx, otherwise the producer blocks.
	Stream(ctx context.Context, req Request) (chunks <-chan Chunk, err error)
}

// Settings selects and configures a Gateway.
type Settings struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewGateway builds the gateway named by settings.Provider. An empty provider means Ollama.
func NewGateway(settings Settings) (gw Gateway, err error) {
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	switch strings.ToLower(settings.Provider) {
	case "", ProviderOllama:
		gw = NewOllamaClient(settings.BaseURL, settings.Model, settings.Timeout)
	case ProviderOpenAI:
		gw = NewOpenAIClient(settings.BaseURL, settings.APIKey, settings.Model, settings.Timeout)
	default:
		err = errors.Errorf("unknown gateway provider %q", settings.Provider)
	}

	return gw, err
}

// Collect drains a stream into a single string.
func Collect(chunks <-chan Chunk) (text string, err error) {
	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			err = chunk.Err
			continue
		}
		b.WriteString(chunk.Content)
	}
	text = b.String()
	return text, err
}

// send delivers a chunk unless ctx ends first.
func send(ctx context.Context, out chan<- Chunk, chunk Chunk) (ok bool) {
	select {
	case out <- chunk:
		ok = true
	case <-ctx.Done():
	}
	return ok
}
