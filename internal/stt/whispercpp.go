package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrServerError is returned when the server returns a 5xx status code.
var ErrServerError = errors.New("whispercpp: server error")

// ErrRateLimited is returned when the server returns a 429 status code.
var ErrRateLimited = errors.New("whispercpp: rate limited")

// WhisperCPPClient recognizes speech through a whisper.cpp server's
// /inference endpoint.
type WhisperCPPClient struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	retry      retryPolicy
}

// WhisperCPPOption is a function that configures a WhisperCPPClient.
type WhisperCPPOption func(*WhisperCPPClient)

// WithWhisperCPPAPIKey sets a bearer token, for servers behind an auth proxy.
func WithWhisperCPPAPIKey(key string) WhisperCPPOption {
	return func(c *WhisperCPPClient) {
		c.apiKey = key
	}
}

// WithWhisperCPPLanguage sets the spoken language hint.
func WithWhisperCPPLanguage(lang string) WhisperCPPOption {
	return func(c *WhisperCPPClient) {
		c.language = lang
	}
}

// WithWhisperCPPHTTPClient sets a custom HTTP client.
func WithWhisperCPPHTTPClient(hc *http.Client) WhisperCPPOption {
	return func(c *WhisperCPPClient) {
		c.httpClient = hc
	}
}

// WithWhisperCPPMaxRetries sets the maximum number of retries for transient failures.
func WithWhisperCPPMaxRetries(n int) WhisperCPPOption {
	return func(c *WhisperCPPClient) {
		c.retry.maxRetries = n
	}
}

// WithWhisperCPPBaseBackoff sets the initial backoff duration for retries.
func WithWhisperCPPBaseBackoff(d time.Duration) WhisperCPPOption {
	return func(c *WhisperCPPClient) {
		c.retry.baseBackoff = d
	}
}

// NewWhisperCPPClient creates a client for the server at baseURL.
// If baseURL is empty, it defaults to a local server on port 8080.
func NewWhisperCPPClient(baseURL string, opts ...WhisperCPPOption) *WhisperCPPClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	c := &WhisperCPPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// inferenceResponse is the JSON body returned by /inference.
type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Name implements Recognizer.Name.
func (c *WhisperCPPClient) Name() string {
	return BackendWhisperCPP
}

// Recognize implements Recognizer.Recognize.
func (c *WhisperCPPClient) Recognize(ctx context.Context, wav []byte) (string, error) {
	var resp inferenceResponse
	err := c.retry.do(ctx, func() error {
		return c.doInference(ctx, wav, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrRequest, resp.Error)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" || text == "[BLANK_AUDIO]" {
		return "", ErrUnknownValue
	}
	return text, nil
}

// doInference performs a single multipart upload of the chunk.
func (c *WhisperCPPClient) doInference(ctx context.Context, wav []byte, result *inferenceResponse) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return fmt.Errorf("whispercpp: create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return fmt.Errorf("whispercpp: write form file: %w", err)
	}
	_ = writer.WriteField("temperature", "0.0")
	_ = writer.WriteField("response_format", "json")
	if c.language != "" {
		_ = writer.WriteField("language", c.language)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("whispercpp: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
	if err != nil {
		return fmt.Errorf("whispercpp: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("whispercpp: request cancelled: %w", ctx.Err())
		}
		return &retryableError{err: fmt.Errorf("whispercpp: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("whispercpp: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 5xx errors are retryable
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		// 429 (rate limit) is retryable
		if resp.StatusCode == http.StatusTooManyRequests {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		return fmt.Errorf("whispercpp: request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("whispercpp: unmarshal response: %w", err)
	}
	return nil
}

// Compile-time check that WhisperCPPClient implements Recognizer.
var _ Recognizer = (*WhisperCPPClient)(nil)
