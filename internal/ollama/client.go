// Package ollama is a thin HTTP client for a local Ollama-compatible model
// server: batch embeddings via /api/embed and chat completions via the
// OpenAI-compatible /v1/chat/completions endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ServiceError is a non-2xx or malformed response from the model server.
type ServiceError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("model server %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a client for the given base URL. A zero timeout keeps
// the http.Client default (no timeout); callers bound calls via context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates embeddings for all inputs in one batch call. The result
// is positionally parallel to the input: callers rely on index 0 being the
// first input (the prefixed query, by convention). A count mismatch from
// the server is an error, never silently padded.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	req := embedRequest{Model: model, Input: inputs}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/embed", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ServiceError{Endpoint: "/api/embed", Status: resp.StatusCode, Body: string(body)}
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if len(embResp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d inputs, got %d vectors",
			len(inputs), len(embResp.Embeddings))
	}

	return embResp.Embeddings, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends a single-user-message chat completion and returns the
// model output text. Temperature below zero means "server default".
func (c *Client) Complete(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	req := chatRequest{
		Model:     model,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	if temperature >= 0 {
		req.Temperature = &temperature
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Required by the OpenAI-compatible surface but unused by Ollama.
	httpReq.Header.Set("Authorization", "Bearer ollama")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ServiceError{Endpoint: "/v1/chat/completions", Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
