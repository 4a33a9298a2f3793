package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkg/errors"
)

// DefaultOpenAIURL is Ollama's OpenAI-compatible endpoint.
const DefaultOpenAIURL = "http://localhost:11434/v1"

// OpenAIClient talks to any OpenAI-compatible chat completions server
// (Ollama's /v1, LM Studio, vLLM or the hosted API).
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a client for the OpenAI-compatible server at baseURL.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) (client *OpenAIClient) {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		// Local servers ignore the key but the header must be present.
		apiKey = "unused"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client = &OpenAIClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(timeout),
			option.WithMaxRetries(0),
		),
		model: model,
	}
	return client
}

// Available reports whether the model list endpoint answers.
func (c *OpenAIClient) Available(ctx context.Context) (ok bool) {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	_, err := c.client.Models.List(ctx)
	ok = err == nil
	return ok
}

// Models lists the model IDs the server reports.
func (c *OpenAIClient) Models(ctx context.Context) (models []string) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	page, err := c.client.Models.List(ctx)
	if err != nil || page == nil {
		return models
	}

	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models
}

// Generate runs one chat completion and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (text string, err error) {
	var completion *openai.ChatCompletion
	completion, err = c.client.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		err = errors.Wrap(err, "chat completion failed")
		return text, err
	}

	if len(completion.Choices) == 0 {
		err = errors.New("no choices in chat completion")
		return text, err
	}

	text = completion.Choices[0].Message.Content
	return text, err
}

// Stream runs one streaming chat completion.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (chunks <-chan Chunk, err error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	if stream == nil {
		err = errors.New("failed to open completion stream")
		return chunks, err
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			current := stream.Current()
			if len(current.Choices) == 0 || current.Choices[0].Delta.Content == "" {
				continue
			}
			if !send(ctx, out, Chunk{Content: current.Choices[0].Delta.Content}) {
				return
			}
		}

		if streamErr := stream.Err(); streamErr != nil {
			send(ctx, out, Chunk{Err: errors.Wrap(streamErr, "completion stream failed")})
		}
	}()

	chunks = out
	return chunks, err
}

func (c *OpenAIClient) params(req Request) (params openai.ChatCompletionNewParams) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.UserPrompt))

	params = openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	return params
}
