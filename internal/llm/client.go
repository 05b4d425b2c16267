// Package llm wraps the external text generation service: an
// OpenAI-compatible HTTP client, a typed error taxonomy, and a bounded
// retry gateway around single calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Request defines one completion call.
type Request struct {
	Prompt string
	Model  string

	// Temperature controls randomness. nil uses the service default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the service default.
	MaxTokens int
}

// Service is the external text generation contract. Implementations make
// exactly one upstream call per Complete and return *Error on failure.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatClientOption configures a ChatClient.
type ChatClientOption func(*ChatClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ChatClientOption {
	return func(client *ChatClient) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ChatClientOption {
	return func(client *ChatClient) {
		client.logger = logger
	}
}

// NewChatClient creates a client for the service at baseURL.
func NewChatClient(baseURL, apiKey string, opts ...ChatClientOption) *ChatClient {
	c := &ChatClient{
		url:    chatURL(baseURL),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func chatURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a single chat completion request.
func (c *ChatClient) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = &req.MaxTokens
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", NewError(KindUnknown, "", fmt.Errorf("build request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", NewError(KindUnknown, "", fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("Sending generation request", "url", c.url, "model", req.Model, "prompt_bytes", len(req.Prompt))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", NewError(KindNetworkUnavailable, "", fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewError(KindNetworkUnavailable, "", fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	return parseResponse(respBody)
}

// classifyHTTPError maps a non-200 response onto a typed Error, preferring
// the upstream error message when one is present.
func classifyHTTPError(statusCode int, body []byte) error {
	var parsed errorResponse
	message := ""
	if json.Unmarshal(body, &parsed) == nil {
		message = strings.TrimSpace(parsed.Error.Message)
	}

	kind := ClassifyStatus(statusCode)
	if message == "" && kind == KindUnknown {
		raw := strings.TrimSpace(string(body))
		if len(raw) > 200 {
			raw = raw[:200] + "..."
		}
		if raw != "" {
			message = fmt.Sprintf("status %d: %s", statusCode, raw)
		}
	}

	e := NewError(kind, message, nil)
	e.StatusCode = statusCode
	return e
}

func parseResponse(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", NewError(KindUnknown, "The text generation service returned an unreadable response.",
			fmt.Errorf("parse response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", NewError(KindUnknown, "The text generation service returned no choices.", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", NewError(KindUnknown, "The text generation service returned an empty summary.", nil)
	}
	return content, nil
}
