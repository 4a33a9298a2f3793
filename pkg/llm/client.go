package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// maxLineBytes bounds a single NDJSON line in a streamed response.
const maxLineBytes = 1 << 20

// OllamaClient represents an Ollama API client.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates a client for the Ollama server at baseURL.
func NewOllamaClient(baseURL, model string, timeout time.Duration) (client *OllamaClient) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client = &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	return client
}

// Available checks whether the Ollama server is running.
func (c *OllamaClient) Available(ctx context.Context) (ok bool) {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return ok
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ok
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok = resp.StatusCode == http.StatusOK
	return ok
}

// Models lists the models installed on the server.
func (c *OllamaClient) Models(ctx context.Context) (models []string) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return models
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models
	}

	var tags TagsResponse
	if json.NewDecoder(resp.Body).Decode(&tags) != nil {
		return models
	}

	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	return models
}

// Generate sends a non-streaming chat request and returns the message content.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (text string, err error) {
	var resp *http.Response
	resp, err = c.sendRequest(ctx, req, false)
	if err != nil {
		err = errors.Wrap(err, "generation request failed")
		return text, err
	}
	defer resp.Body.Close()

	var chatResp ChatResponse
	err = json.NewDecoder(resp.Body).Decode(&chatResp)
	if err != nil {
		err = errors.Wrap(err, "failed to parse chat response")
		return text, err
	}

	if chatResp.Error != "" {
		err = errors.Errorf("ollama error: %s", chatResp.Error)
		return text, err
	}

	text = chatResp.Message.Content
	return text, err
}

// Stream sends a streaming chat request. Each NDJSON line becomes one chunk.
func (c *OllamaClient) Stream(ctx context.Context, req Request) (chunks <-chan Chunk, err error) {
	var resp *http.Response
	resp, err = c.sendRequest(ctx, req, true)
	if err != nil {
		err = errors.Wrap(err, "stream request failed")
		return chunks, err
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var part ChatResponse
			if decodeErr := json.Unmarshal(line, &part); decodeErr != nil {
				send(ctx, out, Chunk{Err: errors.Wrap(decodeErr, "failed to parse stream line")})
				return
			}
			if part.Error != "" {
				send(ctx, out, Chunk{Err: errors.Errorf("ollama error: %s", part.Error)})
				return
			}
			if part.Message.Content != "" && !send(ctx, out, Chunk{Content: part.Message.Content}) {
				return
			}
			if part.Done {
				return
			}
		}

		if scanErr := scanner.Err(); scanErr != nil {
			send(ctx, out, Chunk{Err: errors.Wrap(scanErr, "failed to read stream")})
		}
	}()

	chunks = out
	return chunks, err
}

// sendRequest posts to /api/chat and returns the response once the status is known to be OK.
func (c *OllamaClient) sendRequest(ctx context.Context, req Request, stream bool) (resp *http.Response, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	chatReq := ChatRequest{
		Model:    model,
		Messages: messages(req),
		Stream:   stream,
		Options:  ChatOptions{Temperature: req.Temperature},
	}

	var reqBody []byte
	reqBody, err = json.Marshal(chatReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return resp, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return resp, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		resp = nil
		return resp, err
	}

	return resp, err
}
