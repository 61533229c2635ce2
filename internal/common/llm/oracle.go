// internal/common/llm/oracle.go

// Package llm holds the clients for the external text-generation and embedding
// services. Both speak the OpenAI-compatible HTTP API.
package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "quotegenius/internal/common/errors"
	httpclient "quotegenius/internal/common/http"
)

// Oracle turns a rendered prompt into text. Implementations keep no memory
// between calls and make no promise about the shape of the reply.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Ask calls o once. Failures that do not already carry an error code are
// classified as oracle request failures.
func Ask(ctx context.Context, o Oracle, prompt string) (string, error) {
	text, err := o.Complete(ctx, prompt)
	if err == nil {
		return text, nil
	}
	if _, ok := apperrors.AsStandardError(err); ok {
		return "", err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "", apperrors.NewOracleTimeoutError(err)
	}
	return "", apperrors.NewOracleRequestError(err)
}

type ChatConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
}

// ChatClient calls /v1/chat/completions once per Complete. It does not retry;
// retry policy belongs to whoever schedules the workflow.
type ChatClient struct {
	config ChatConfig
	http   *httpclient.Client
}

func NewChatClient(config ChatConfig) *ChatClient {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &ChatClient{
		config: config,
		http:   httpclient.NewClient(config.Timeout),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if c.config.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: c.config.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	var resp chatResponse
	err := c.http.PostJSON(ctx, endpoint(c.config.BaseURL, "/v1/chat/completions"), authHeaders(c.config.APIKey), req, &resp)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.NewOracleTimeoutError(err)
		}
		return "", apperrors.NewOracleRequestError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewOracleRequestError(fmt.Errorf("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}

func endpoint(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
	}
	return base + path
}

func authHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
