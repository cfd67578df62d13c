// Package cleanup rewrites chapter text through an OpenAI-compatible
// chat completions endpoint.
package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the chat completions URL used when none is configured.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// RequestTimeout bounds a single cleanup call.
const RequestTimeout = 90 * time.Second

// Client calls a chat completions API to clean one chapter at a time.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	Stats      *LLMStats
}

// NewClient returns a client for endpoint. An empty endpoint selects
// DefaultEndpoint. stats may be nil.
func NewClient(apiKey, model, endpoint string, stats *LLMStats) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		Stats: stats,
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Clean sends text for cleanup and returns the model's markdown reply.
// Any non-2xx status or malformed body is an error; there is no retry.
func (c *Client) Clean(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := c.clean(ctx, text)
	if c.Stats != nil {
		c.Stats.Record(time.Since(start).Milliseconds(), err == nil)
	}
	return out, err
}

func (c *Client) clean(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    buildMessages(text),
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("cleanup api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w (raw: %s)", err, truncate(string(respBody), 200))
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from cleanup api")
	}
	msg := apiResp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", fmt.Errorf("decode response: choice has no message content (raw: %s)", truncate(string(respBody), 200))
	}

	return UnwrapMarkdownFence(strings.TrimSpace(*msg.Content)), nil
}

// APIError is a non-success HTTP status from the cleanup endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cleanup api status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
