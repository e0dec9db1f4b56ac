// Package analysis wraps the external content-analysis service used for
// photo validation. The client submits image bytes with a structured criteria
// prompt and returns the model's raw JSON output; interpreting it is the
// validator's job.
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photoshoot-server/internal/providers/apierr"
)

// Analyzer is the narrow surface the photo validator consumes.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// Options configures the HTTP client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the content-analysis HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs an analysis client.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("analysis: base url is required")
	}

	model := opts.Model
	if model == "" {
		model = "vision-check-1"
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

type analyzeRequest struct {
	Model  string `json:"model"`
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

type analyzeResponse struct {
	Output json.RawMessage `json:"output"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Analyze submits the image and criteria prompt and returns the structured
// output verbatim.
func (c *Client) Analyze(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	payload := analyzeRequest{
		Model:  c.model,
		Image:  base64.StdEncoding.EncodeToString(image),
		Prompt: prompt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoke analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, &apierr.RateLimitError{Service: "analysis", Wait: apierr.ParseRetryAfter(resp.Header)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("analysis status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("analysis status %d", resp.StatusCode)
	}

	var response analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if len(response.Output) == 0 {
		return nil, fmt.Errorf("analysis: response missing output")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("image_bytes", len(image)).
		Msg("analysis: image analyzed")

	return response.Output, nil
}

var _ Analyzer = (*Client)(nil)
