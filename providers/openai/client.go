// Package openai implements llm.Client against any OpenAI-compatible chat
// completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/postgatehq/postgate/llm"
)

const defaultEndpoint = "https://api.openai.com"

type Client struct {
	Endpoint string
	APIKey   string

	HTTP             *http.Client
	MaxResponseBytes int64
}

func New(endpoint, apiKey string) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		Endpoint:         endpoint,
		APIKey:           strings.TrimSpace(apiKey),
		HTTP:             &http.Client{Timeout: 120 * time.Second},
		MaxResponseBytes: 4 * 1024 * 1024,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	if c == nil {
		return llm.Result{}, fmt.Errorf("nil openai client")
	}
	if strings.TrimSpace(req.Model) == "" {
		return llm.Result{}, fmt.Errorf("missing model")
	}

	body := chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}
	if req.ForceJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if v, ok := req.Parameters["max_tokens"]; ok {
		if n, ok := asInt(v); ok {
			body.MaxTokens = n
		}
	}
	if v, ok := req.Parameters["temperature"]; ok {
		if f, ok := asFloat(v); ok {
			body.Temperature = &f
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL(), bytes.NewReader(payload))
	if err != nil {
		return llm.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return llm.Result{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = 4 * 1024 * 1024
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return llm.Result{}, fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Result{}, fmt.Errorf("parse chat response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return llm.Result{}, fmt.Errorf("chat api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Result{}, fmt.Errorf("chat api status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("chat response has no choices")
	}

	return llm.Result{
		Text: parsed.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}

func (c *Client) chatURL() string {
	if strings.HasSuffix(c.Endpoint, "/chat/completions") {
		return c.Endpoint
	}
	if strings.HasSuffix(c.Endpoint, "/v1") {
		return c.Endpoint + "/chat/completions"
	}
	return c.Endpoint + "/v1/chat/completions"
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
