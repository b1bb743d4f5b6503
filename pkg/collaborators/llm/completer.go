// Package llm provides a concrete Completer collaborator satisfying
// pkg/metaagent.Completer and pkg/notes.Completer, the narrow
// completion contracts those packages declare locally rather than
// depend on this one.
//
// It talks to a completion backend over plain HTTP+JSON: a net/http
// client posts a JSON request body and decodes a JSON response,
// covering both chat-style completions and embeddings.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one turn in a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config configures an HTTPCompleter.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// DefaultConfig returns sane local-inference defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:1234/v1",
		Model:       "local-model",
		Timeout:     60 * time.Second,
		Temperature: 0.2,
	}
}

// HTTPCompleter implements the Completer contract declared by
// pkg/metaagent and pkg/notes against an OpenAI-chat-completions-
// shaped HTTP endpoint.
type HTTPCompleter struct {
	config Config
	client *http.Client
}

// NewHTTPCompleter constructs an HTTPCompleter.
func NewHTTPCompleter(config Config) *HTTPCompleter {
	return &HTTPCompleter{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a single user-role message and returns the model's
// reply content.
func (c *HTTPCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []Message{{Role: "user", Content: prompt}})
}

// CompleteWithSystem sends a system-role message followed by a
// user-role message and returns the model's reply content.
func (c *HTTPCompleter) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}

func (c *HTTPCompleter) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion endpoint returned %s: %s", resp.Status, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion endpoint returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
