// Package llm implements the AI identifier backends: an image-capable model
// and a text model, both speaking the OpenAI-compatible chat completions
// protocol with a strict JSON output schema.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("LLM API key is not configured")
	ErrAPIError      = errors.New("LLM API error")
)

const systemPrompt = `You identify movies, TV series, documentaries, and online videos from the user's input.
Respond with a single JSON object and nothing else, using this schema:
{"found": true, "title": "...", "mediaKind": "movie|series|documentary|video", "year": 2010, "confidence": "high|medium|low", "synopsis": "one or two sentences"}
If you cannot identify a specific title, respond with {"found": false}.`

// Client talks to the configured chat completion endpoint with both the
// vision and the text model.
type Client struct {
	httpClient *http.Client
	config     config.LLMConfig
	logger     zerolog.Logger
}

// NewClient creates a new LLM client.
func NewClient(cfg config.LLMConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "llm").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "llm"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// HasVision returns true if an image-capable model is configured.
func (c *Client) HasVision() bool {
	return c.IsConfigured() && c.config.VisionModel != ""
}

// Test verifies connectivity with a minimal text completion.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	_, err := c.complete(ctx, c.textModel(), []Message{
		{Role: "user", Content: "Respond with {\"found\": false}."},
	})
	return err
}

// IdentifyImage sends image bytes to the vision model. A nil Identification
// with nil error means the model returned the not-found sentinel or output
// that did not parse.
func (c *Client) IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*Identification, error) {
	if !c.HasVision() {
		return nil, ErrAPIKeyMissing
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: "Identify the movie, series, or video shown in this image. Use any visible text, actors, scenes, or branding."},
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
			},
		},
	}

	raw, err := c.complete(ctx, c.config.VisionModel, messages)
	if err != nil {
		return nil, err
	}

	return c.parseIdentification(raw), nil
}

// IdentifyText sends assembled text context to the text model. A nil
// Identification with nil error means no identifiable title.
func (c *Client) IdentifyText(ctx context.Context, contextText string) (*Identification, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Identify the title described or referenced by the following input:\n\n" + contextText},
	}

	raw, err := c.complete(ctx, c.textModel(), messages)
	if err != nil {
		return nil, err
	}

	return c.parseIdentification(raw), nil
}

// textModel returns the configured text model, falling back to the vision
// model so a single-model deployment still works.
func (c *Client) textModel() string {
	if c.config.TextModel != "" {
		return c.config.TextModel
	}
	return c.config.VisionModel
}

// complete performs one chat completion request and returns the assistant
// message content.
func (c *Client) complete(ctx context.Context, model string, messages []Message) (string, error) {
	request := ChatRequest{
		Model:          model,
		Messages:       messages,
		MaxTokens:      c.config.MaxTokens,
		Temperature:    0.1,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("model", model).Msg("HTTP request failed")
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("model", model).
			Str("body", string(respBody)).
			Msg("LLM API error")
		return "", fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrAPIError)
	}

	return response.Choices[0].Message.Content, nil
}

// parseIdentification extracts the structured record from model output.
// Code fences are tolerated; anything that does not parse, or the explicit
// not-found sentinel, yields nil.
func (c *Client) parseIdentification(raw string) *Identification {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var ident Identification
	if err := json.Unmarshal([]byte(cleaned), &ident); err != nil {
		c.logger.Warn().
			Err(err).
			Str("output", truncate(raw, 200)).
			Msg("model output did not parse, treating as no result")
		return nil
	}

	if !ident.Found || ident.Title == "" {
		c.logger.Debug().Msg("model returned not-found sentinel")
		return nil
	}

	return &ident
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
