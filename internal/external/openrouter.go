package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Chat completion defaults. The temperature stays fixed so repeated
// analyses of the same squad read consistently.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel             = "anthropic/claude-3-haiku:beta"

	analysisTemperature = 0.6
	generationTimeout   = 20 * time.Second
	maxResponseBytes    = 1 << 20

	openRouterReferer = "https://github.com/pitchside/dreamteam"
	openRouterTitle   = "Dream Team Analyzer"
)

// chatMessage / chatRequest / chatResponse mirror the OpenAI-compatible
// chat completion wire shapes OpenRouter speaks.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenRouterConfig configures the text-generation client.
type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenRouterService issues single-shot chat completions for tactical
// analysis. One attempt per request: a failed generation is reported to
// the caller, never retried.
type OpenRouterService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewOpenRouterService creates a chat completion client. Zero-value config
// fields fall back to the package defaults.
func NewOpenRouterService(cfg OpenRouterConfig, logger *slog.Logger) *OpenRouterService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = generationTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenRouterService{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (s *OpenRouterService) Model() string { return s.model }

// Generate sends one user prompt and returns the completion text
// unmodified. The client's timeout applies when the context carries no
// deadline of its own.
func (s *OpenRouterService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.httpClient.Timeout)
		defer cancel()
	}

	payload := chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: analysisTemperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("HTTP-Referer", openRouterReferer)
	req.Header.Set("X-Title", openRouterTitle)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter returned %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openrouter error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	content := out.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty completion content")
	}

	s.logger.Debug("Chat completion finished",
		"model", s.model, "duration_ms", time.Since(start).Milliseconds(), "response_len", len(content))
	return content, nil
}

// Status returns client configuration for the health endpoint. The key
// itself is never exposed.
func (s *OpenRouterService) Status() map[string]interface{} {
	return map[string]interface{}{
		"base_url":        s.baseURL,
		"model":           s.model,
		"key_configured":  s.apiKey != "",
		"timeout_seconds": s.httpClient.Timeout.Seconds(),
	}
}
