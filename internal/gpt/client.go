// Package gpt provides an OpenAI-compatible chat client and the cooking
// assistant built on it: step guidance, recipe questions and general
// kitchen help.
package gpt

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
	"unicode/utf8"

	"github.com/hammamikhairi/souschef/internal/logger"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextMessage builds a message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// completionRequest is the chat-completions body. Model is left out for
// Azure deployments, where the URL names the model.
type completionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// maxResponseBytes caps how much of a reply body is read.
const maxResponseBytes = 1 << 20

// ErrEmptyReply is returned when the API answers without any choices.
var ErrEmptyReply = errors.New("gpt: reply has no choices")

// APIError is a non-2xx answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gpt: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Temporary reports whether retrying may help.
func (e *APIError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithModel names the model. Needed for OpenAI, not for Azure.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *Client) { c.temperature = t }
}

// WithMaxTokens caps the reply length. Answers are read aloud, so the
// default is short.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) { c.maxTokens = n }
}

// WithBearerAuth sends the key as "Authorization: Bearer" instead of the
// Azure "api-key" header.
func WithBearerAuth() ClientOption {
	return func(c *Client) { c.bearer = true }
}

// WithHTTPTimeout bounds each HTTP attempt.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets how many times a rate-limited or unavailable request
// is retried, waiting backoff, then twice that, between attempts.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint, such as
// "https://<resource>.openai.azure.com/openai/deployments/<dep>/chat/completions?api-version=2024-02-01".
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	bearer      bool
	retries     int
	backoff     time.Duration
	http        *http.Client
	log         *logger.Logger
}

// NewClient creates a chat client for endpoint.
func NewClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		temperature: 0.7,
		maxTokens:   400,
		retries:     1,
		backoff:     500 * time.Millisecond,
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat sends the conversation and returns the first choice's text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gpt: encode request: %w", err)
	}

	wait := c.backoff
	for attempt := 0; ; attempt++ {
		reply, err := c.post(ctx, body)
		var apiErr *APIError
		if err == nil || attempt >= c.retries || !errors.As(err, &apiErr) || !apiErr.Temporary() {
			return reply, err
		}
		c.log.Warn("gpt: %v, retrying in %s", err, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		wait *= 2
	}
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gpt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		req.Header.Set("api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gpt: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("gpt: read reply: %w", err)
	}
	c.log.Debug("gpt: %s in %s (%d bytes)", resp.Status, time.Since(start).Round(time.Millisecond), len(raw))

	var out completionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := truncate(strings.TrimSpace(string(raw)), 200)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("gpt: decode reply: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}

	first := out.Choices[0]
	if first.FinishReason == "length" {
		c.log.Warn("gpt: reply cut off at %d tokens", c.maxTokens)
	}
	return strings.TrimSpace(first.Message.Content), nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
