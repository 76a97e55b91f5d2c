// pkg/bunny/client.go

// Package bunny is a small client for the Bunny Stream REST API covering the
// calls this service makes: live session provisioning, video asset
// management, TUS upload signing and webhook signature checks.
package bunny

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://video.bunnycdn.com"
	DefaultTUSEndpoint = "https://video.bunnycdn.com/tusupload"
	embedBaseURL       = "https://iframe.mediadelivery.net/embed"
	maxErrorBody       = 4 << 10
)

type Options struct {
	BaseURL           string
	APIKey            string
	LibraryID         string
	CDNHostname       string
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

type Client struct {
	baseURL     string
	apiKey      string
	libraryID   string
	cdnHostname string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      opts.APIKey,
		libraryID:   opts.LibraryID,
		cdnHostname: opts.CDNHostname,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *Client) LibraryID() string {
	return c.libraryID
}

// APIError carries a non-2xx provider response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bunny %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) libraryPath(format string, args ...any) string {
	return "/library/" + c.libraryID + fmt.Sprintf(format, args...)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("bunny rate limiter: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bunny %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
