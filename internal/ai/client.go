package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Image is an input photo handed to the vision model.
type Image struct {
	MimeType string
	Data     []byte
}

// GenerateRequest is a single provider call: a prompt, optional images, an
// optional JSON schema constraining the reply, and a sampling temperature.
type GenerateRequest struct {
	Prompt      string
	Images      []Image
	Schema      map[string]any
	Temperature float64
	Vision      bool
}

// Provider is the black-box text/vision generation capability.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	http *resty.Client
	cfg  *Config
}

// NewClient constructs the provider client once at process start; stages
// receive it by injection and never build their own.
func NewClient(cfg *Config) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetAuthToken(cfg.APIKey).
			SetTimeout(cfg.TimeoutDuration()),
		cfg: cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one chat-completions call and returns the raw text reply.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := c.cfg.Model
	if req.Vision {
		model = c.cfg.VisionModel
	}

	body := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: messageContent(req)}},
		Temperature: req.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	if req.Schema != nil {
		body.ResponseFormat = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "recipe",
				"strict": true,
				"schema": req.Schema,
			},
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("provider request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrProviderResponse, resp.StatusCode())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderResponse, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProviderResponse, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrProviderResponse)
	}

	return parsed.Choices[0].Message.Content, nil
}

// messageContent builds the multimodal content array: one text part plus one
// image_url part per photo, inlined as a data URI.
func messageContent(req GenerateRequest) any {
	if len(req.Images) == 0 {
		return req.Prompt
	}

	parts := []map[string]any{{"type": "text", "text": req.Prompt}}
	for _, img := range req.Images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, map[string]any{
			"type": "image_url",
			"image_url": map[string]string{
				"url": fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data)),
			},
		})
	}
	return parts
}
