package llm

// Request is one generation attempt.
type Request struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
}

// Chunk is one piece of a streamed response. A chunk carrying Err is the last one sent.
type Chunk struct {
	Content string
	Err     error
}

// ChatRequest represents the Ollama /api/chat request format.
type ChatRequest struct {
	Model    string      `json:"model"`
	Messages []Message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  ChatOptions `json:"options"`
}

// ChatOptions carries sampling options.
type ChatOptions struct {
	Temperature float64 `json:"temperature"`
}

// ChatResponse represents one Ollama /api/chat response object.
// Streaming responses are a sequence of these, one per line.
type ChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TagsResponse represents the Ollama /api/tags response.
type TagsResponse struct {
	Models []ModelTag `json:"models"`
}

// ModelTag is one installed model.
type ModelTag struct {
	Name string `json:"name"`
}

func messages(req Request) (msgs []Message) {
	if req.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, Message{Role: "user", Content: req.UserPrompt})
	return msgs
}
