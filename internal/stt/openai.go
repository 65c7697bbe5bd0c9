package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient recognizes speech through an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
	retry      retryPolicy

	client *openai.Client
}

// OpenAIOption is a function that configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIBaseURL points the client at a compatible server instead of
// api.openai.com.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.baseURL = url
	}
}

// WithOpenAIModel sets the transcription model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithOpenAILanguage sets the ISO-639-1 language hint.
func WithOpenAILanguage(lang string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.language = lang
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		c.httpClient = hc
	}
}

// WithOpenAIMaxRetries sets the maximum number of retries for transient failures.
func WithOpenAIMaxRetries(n int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.retry.maxRetries = n
	}
}

// WithOpenAIBaseBackoff sets the initial backoff duration for retries.
func WithOpenAIBaseBackoff(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) {
		c.retry.baseBackoff = d
	}
}

// NewOpenAIClient creates a new OpenAI transcription client.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:     apiKey,
		model:      openai.Whisper1,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(c.baseURL, "/")
	}
	cfg.HTTPClient = c.httpClient
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

// Name implements Recognizer.Name.
func (c *OpenAIClient) Name() string {
	return BackendOpenAI
}

// Recognize implements Recognizer.Recognize.
func (c *OpenAIClient) Recognize(ctx context.Context, wav []byte) (string, error) {
	var text string
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.model,
			FilePath: "chunk.wav",
			Reader:   bytes.NewReader(wav),
			Language: c.language,
			Format:   openai.AudioResponseFormatJSON,
		})
		if err != nil {
			return classifyOpenAIError(ctx, err)
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnknownValue
	}
	return text, nil
}

// classifyOpenAIError marks rate limits, server errors and transport
// failures as retryable.
func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("openai: request cancelled: %w", ctx.Err())
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		// No HTTP status: the request never completed.
		return &retryableError{err: fmt.Errorf("openai: request failed: %w", err)}
	}

	if status == http.StatusTooManyRequests || status >= 500 {
		return &retryableError{err: fmt.Errorf("openai: status %d: %w", status, err)}
	}
	return fmt.Errorf("openai: status %d: %w", status, err)
}

// Compile-time check that OpenAIClient implements Recognizer.
var _ Recognizer = (*OpenAIClient)(nil)
