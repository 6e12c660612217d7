package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type geminiClient struct {
	cli    *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient builds a Generator on top of the official genai SDK.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiClient{cli: cli, model: model, logger: logger}, nil
}

func (g *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	cfg := generateConfig(req)

	g.logger.Debug("calling gemini", zap.String("model", model))
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return "", &ServiceError{StatusCode: http.StatusBadGateway, Body: "no candidates in gemini response"}
	}
	return resp.Text(), nil
}

// generateConfig maps a Request onto the genai decoding settings.
func generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		TopP:              float32Ptr(req.TopP),
		FrequencyPenalty:  float32Ptr(req.FrequencyPenalty),
		PresencePenalty:   float32Ptr(req.PresencePenalty),
	}
	if req.JSONObject {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &ServiceError{StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return &TransportError{Err: err}
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
