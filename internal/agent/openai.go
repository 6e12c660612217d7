package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OpenAIConfig configures a client for any OpenAI-compatible chat completions API
// (OpenAI, DeepSeek, AvalAI, ...).
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type openAIClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &openAIClient{
		httpClient: client,
		model:      cfg.Model,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model            string          `json:"model"`
	Messages         []chatMessage   `json:"messages"`
	ResponseFormat   *responseFormat `json:"response_format,omitempty"`
	Temperature      float64         `json:"temperature"`
	MaxTokens        int             `json:"max_tokens,omitempty"`
	TopP             *float64        `json:"top_p,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64        `json:"presence_penalty,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}
	if body.Model == "" {
		body.Model = c.model
	}
	if req.JSONObject {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	c.logger.Debug("calling chat completions",
		zap.String("model", body.Model),
		zap.Int("prompt_bytes", len(req.SystemPrompt)+len(req.UserPrompt)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.IsError() {
		return "", &ServiceError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", &ServiceError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if len(out.Choices) == 0 {
		return "", &ServiceError{StatusCode: http.StatusBadGateway, Body: "no choices in completion response"}
	}

	c.logger.Debug("chat completion received",
		zap.String("finish_reason", out.Choices[0].FinishReason),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return out.Choices[0].Message.Content, nil
}
