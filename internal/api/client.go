// Package api is the single point of contact with the places backend.
// Every request carries a bearer credential obtained from the injected
// TokenSource; list responses are normalized before decoding.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 20 * time.Second

// TokenSource supplies the bearer credential attached to every request.
// The bot binds this to an init-data envelope builder; a signed
// service-account credential can replace it without touching call sites.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, tokens TokenSource, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body any,
) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req)
}

// doMultipart posts a multipart form; fields are plain values, files are
// keyed by field name.
func (c *Client) doMultipart(
	ctx context.Context,
	path string,
	fields map[string]string,
	files map[string]multipartFile,
) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field %q: %w", name, err)
		}
	}

	for name, file := range files {
		part, err := writer.CreateFormFile(name, file.Name)
		if err != nil {
			return nil, fmt.Errorf("create form file %q: %w", name, err)
		}
		if _, err = part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("write form file %q: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req)
}

type multipartFile struct {
	Name    string
	Content []byte
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.ErrorContext(req.Context(), "Failed to close response body",
				"error", closeErr,
				"method", req.Method,
				"path", req.URL.Path)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Status:  resp.StatusCode,
			Message: serverMessage(raw),
		}
	}

	return raw, nil
}

// serverMessage pulls a human-readable message out of an error response
// body when the backend bothered to provide one.
func serverMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	return strings.TrimSpace(string(raw))
}
