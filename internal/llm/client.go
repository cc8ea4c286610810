// Package llm is the capability boundary around the external language model:
// a chat-completions HTTP client with an explicit timeout and typed failures.
// It is the only network-facing dependency of the core.
package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks lineage-ai/internal/llm Generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrTimeout is returned when generation exceeds the configured timeout or
// the caller's context is cancelled. No partial text is ever returned.
var ErrTimeout = errors.New("generation timed out")

// ServiceError is returned when the LLM service responds but cannot serve
// the request.
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("llm service error: status %d: %s", e.Status, e.Body)
}

// Generator is the generate(prompt) -> text capability the answer composer
// depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a client for an OpenAI-compatible chat completions API.
// It implements Generator.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	client  *http.Client
}

// NewClient creates a new LLM client. timeout bounds each Generate call.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Timeout: timeout,
		client:  http.DefaultClient,
	}
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate sends the prompt as a single user message and returns the model's
// reply. A timeout or cancellation surfaces as ErrTimeout; a non-2xx response
// surfaces as *ServiceError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v1/chat/completions", c.BaseURL)
	payload := ChatRequest{
		Model: c.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ServiceError{Status: resp.StatusCode, Body: string(raw)}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", &ServiceError{Status: resp.StatusCode, Body: "no choices returned"}
	}

	return chatResp.Choices[0].Message.Content, nil
}
