package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"silverland-assistant/internal/config"
	"silverland-assistant/internal/model"

	"go.uber.org/zap"
)

// ChatClient is the completion-service collaborator: ordered messages in,
// assistant text out. Transport and auth errors propagate to the caller,
// which owns parsing and fallback.
type ChatClient interface {
	Chat(ctx context.Context, messages []model.ChatMessage) (string, error)
}

// Client calls an OpenRouter-compatible chat completions API.
type Client struct {
	cfg        *config.LLMConfig
	httpClient *http.Client
	log        *zap.Logger
}

var _ ChatClient = (*Client)(nil)

// NewClient creates a completion client with a bounded request timeout.
func NewClient(cfg *config.LLMConfig, log *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []model.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int               `json:"index"`
		Message      model.ChatMessage `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat performs one chat completion call and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, messages []model.ChatMessage) (string, error) {
	reqBody, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.cfg.APIBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	if c.cfg.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		httpReq.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	c.log.Debug("chat completion",
		zap.String("model", result.Model),
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("completion_tokens", result.Usage.CompletionTokens),
	)

	return result.Choices[0].Message.Content, nil
}
