// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package nebius talks to the Nebius AI Studio OpenAI-compatible API for
// chat completions and text embeddings.
package nebius

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// Defaults for the Nebius AI Studio endpoint and models.
const (
	DefaultBaseURL        = "https://api.studio.nebius.com/v1"
	DefaultModel          = "openai/gpt-oss-120b"
	DefaultEmbeddingModel = "BAAI/bge-en-icl"

	defaultRetries = 3
	retryDelay     = 2 * time.Second
)

// Client is a Nebius AI Studio client.
type Client struct {
	rest       *resty.Client
	model      string
	embedModel string
	retries    uint
}

// NewClient creates a Client from AI settings. The API key is required;
// base URL and model names fall back to the Nebius defaults.
func NewClient(cfg types.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NEBIUS_API_KEY is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}
	retries := uint(defaultRetries)
	if cfg.MaxRetries > 0 {
		retries = uint(cfg.MaxRetries)
	}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		rest:       rest,
		model:      model,
		embedModel: embedModel,
		retries:    retries,
	}, nil
}

// Model returns the configured chat model name.
func (c *Client) Model() string { return c.model }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Chat sends a system and user message and returns the completion text.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	return c.chat(ctx, system, user, nil)
}

// ChatJSON is Chat with the response constrained to a JSON object.
func (c *Client) ChatJSON(ctx context.Context, system, user string) (string, error) {
	return c.chat(ctx, system, user, &responseFormat{Type: "json_object"})
}

func (c *Client) chat(ctx context.Context, system, user string, format *responseFormat) (string, error) {
	req := chatRequest{
		Model:          c.model,
		Temperature:    0.2,
		ResponseFormat: format,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var out chatResponse
	err := c.post(ctx, "/chat/completions", req, &out)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completion: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out embeddingsResponse
	err := c.post(ctx, "/embeddings", embeddingsRequest{Model: c.embedModel, Input: texts}, &out)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embeddings: %s", out.Error.Message)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(out.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// post issues the request with retries on transport errors and 5xx/429
// responses.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.rest.R().
				SetContext(ctx).
				SetBody(body).
				SetResult(result).
				Post(path)
			if err != nil {
				return err
			}
			code := resp.StatusCode()
			switch {
			case code == 200:
				return nil
			case code == 429 || code >= 500:
				return fmt.Errorf("HTTP %d from %s", code, path)
			default:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d from %s: %s", code, path, resp.String()))
			}
		},
		retry.Attempts(c.retries),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
}
