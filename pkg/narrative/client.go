// Package narrative talks to an OpenAI-compatible chat-completion service
// and builds the soil improvement prompt.
package narrative

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

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint of the narrative provider
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the chat model used for improvement plans
	DefaultModel = "llama-3.3-70b-versatile"
)

// ErrNoChoices is returned when a completion carries no choices
var ErrNoChoices = errors.New("no completion returned")

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("narrative service error (status %d): %s", e.StatusCode, e.Body)
}

// Client is a chat-completion client authenticated with a bearer credential
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new narrative client. The credential is sent as
// "Authorization: Bearer <apiKey>"; it may be a provider key or a proxy token.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithModel sets the chat model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.Named("narrative")
	}
}

// Model returns the configured chat model
func (c *Client) Model() string {
	return c.model
}

// Do sends a raw chat request. An empty model is replaced by the client's.
func (c *Client) Do(ctx context.Context, chatReq ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("narrative API key not configured")
	}
	if chatReq.Model == "" {
		chatReq.Model = c.model
	}

	jsonData, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	c.logger.Debug("chat completion received",
		zap.String("model", chatReq.Model),
		zap.Int("choices", len(chatResp.Choices)),
		zap.Duration("duration", time.Since(start)))

	return &chatResp, nil
}

// Complete sends the messages and returns the first choice's text
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.Do(ctx, ChatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Narrate sends a system instruction and a user prompt
func (c *Client) Narrate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.Complete(ctx, []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: userPrompt},
	})
}
