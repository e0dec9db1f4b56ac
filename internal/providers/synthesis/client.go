// Package synthesis wraps the external image-synthesis service. The core
// only exchanges storage locators with it; image bytes never pass through
// this process.
package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photoshoot-server/internal/providers/apierr"
)

// Request asks for one synthesized image from a source photo and a resolved
// scenario prompt.
type Request struct {
	SourceKey string
	Prompt    string
	RequestID string
}

// Result is the provider's answer: where the synthesized image landed.
type Result struct {
	Locator   string
	RequestID string
}

// Generator is the narrow surface the generation worker consumes.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Options configures the HTTP client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the synthesis HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a synthesis client. A nil HTTP client gets a reusable
// default with a generous timeout; synthesis calls are slow.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("synthesis: base url is required")
	}

	model := opts.Model
	if model == "" {
		model = "photoreal-1"
	}

	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type synthesizeRequest struct {
	Model     string `json:"model"`
	Source    string `json:"source"`
	Prompt    string `json:"prompt"`
	RequestID string `json:"request_id,omitempty"`
}

type synthesizeResponse struct {
	Locator   string `json:"locator"`
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Generate performs one synthesis call. Quota rejections surface as
// *apierr.RateLimitError carrying the provider's Retry-After hint.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	payload := synthesizeRequest{
		Model:     c.model,
		Source:    req.SourceKey,
		Prompt:    req.Prompt,
		RequestID: req.RequestID,
	}

	var response synthesizeResponse
	if err := c.invoke(ctx, "/v1/synthesize", payload, &response); err != nil {
		return Result{}, err
	}
	if response.Locator == "" {
		return Result{}, fmt.Errorf("synthesis: response missing locator")
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Str("locator", response.Locator).
		Msg("synthesis: image generated")

	return Result{Locator: response.Locator, RequestID: response.RequestID}, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoke synthesis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return &apierr.RateLimitError{Service: "synthesis", Wait: apierr.ParseRetryAfter(resp.Header)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("synthesis status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("synthesis status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode synthesis response: %w", err)
	}
	return nil
}

var _ Generator = (*Client)(nil)
