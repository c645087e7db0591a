// Package gist stores snapshot documents as single-file GitHub Gists.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	DefaultFileName = "timeclock.json"
)

// Client talks to the GitHub Gists REST API. It implements snapshot.RemoteStore.
type Client struct {
	baseURL    string
	fileName   string
	public     bool
	timeout    time.Duration
	attempts   uint
	retryDelay time.Duration
	base       http.RoundTripper
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithFileName(name string) Option {
	return func(c *Client) { c.fileName = name }
}

func WithPublic(public bool) Option {
	return func(c *Client) { c.public = public }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetry sets how many times a request is attempted on transport
// failure, and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		fileName:   DefaultFileName,
		timeout:    15 * time.Second,
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
		base:       http.DefaultTransport,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts == 0 {
		c.attempts = 1
	}
	return c
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistRequest struct {
	Description string              `json:"description"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

type gistResponse struct {
	ID    string              `json:"id"`
	Files map[string]gistFile `json:"files"`
}

// Create implements snapshot.RemoteStore.
func (c *Client) Create(ctx context.Context, credential string, content []byte, description string) (string, error) {
	public := c.public
	body := gistRequest{
		Description: description,
		Public:      &public,
		Files:       map[string]gistFile{c.fileName: {Content: string(content)}},
	}

	var resp gistResponse
	if err := c.do(ctx, credential, "create gist", http.MethodPost, c.baseURL+"/gists", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &snapshot.RemoteError{Op: "create gist", StatusCode: http.StatusCreated, Message: "response has no gist id"}
	}
	return resp.ID, nil
}

// Update implements snapshot.RemoteStore.
func (c *Client) Update(ctx context.Context, credential string, targetID string, content []byte, description string) error {
	body := gistRequest{
		Description: description,
		Files:       map[string]gistFile{c.fileName: {Content: string(content)}},
	}
	return c.do(ctx, credential, "update gist", http.MethodPatch, c.gistURL(targetID), body, nil)
}

// Read implements snapshot.RemoteStore.
func (c *Client) Read(ctx context.Context, credential string, targetID string) ([]byte, error) {
	var resp gistResponse
	if err := c.do(ctx, credential, "read gist", http.MethodGet, c.gistURL(targetID), nil, &resp); err != nil {
		return nil, err
	}

	file, ok := resp.Files[c.fileName]
	if !ok {
		// Older gists may carry the document under another name.
		names := make([]string, 0, len(resp.Files))
		for name := range resp.Files {
			names = append(names, name)
		}
		if len(names) > 0 {
			sort.Strings(names)
			file, ok = resp.Files[names[0]], true
		}
	}
	if !ok {
		return nil, fmt.Errorf("read gist %s: %w", targetID, snapshot.ErrMalformedSnapshot)
	}

	if !file.Truncated {
		return []byte(file.Content), nil
	}
	if file.RawURL == "" {
		return nil, fmt.Errorf("read gist %s: truncated file has no raw_url: %w", targetID, snapshot.ErrMalformedSnapshot)
	}

	var raw []byte
	err := c.withRetry(ctx, credential, "read raw gist", func(client *http.Client) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.RawURL, nil)
		if err != nil {
			return err
		}
		res, err := client.Do(req)
		if err != nil {
			return &snapshot.NetworkError{Op: "read raw gist", Err: err}
		}
		defer res.Body.Close()
		if err := checkStatus("read raw gist", res); err != nil {
			return err
		}
		raw, err = io.ReadAll(res.Body)
		if err != nil {
			return &snapshot.NetworkError{Op: "read raw gist", Err: err}
		}
		return nil
	})
	return raw, err
}

func (c *Client) gistURL(id string) string {
	return c.baseURL + "/gists/" + id
}

func (c *Client) httpClient(credential string) *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "token"}),
			Base:   c.base,
		},
	}
}

func (c *Client) do(ctx context.Context, credential, op, method, url string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	return c.withRetry(ctx, credential, op, func(client *http.Client) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", op, err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := client.Do(req)
		if err != nil {
			return &snapshot.NetworkError{Op: op, Err: err}
		}
		defer res.Body.Close()

		if err := checkStatus(op, res); err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, snapshot.ErrMalformedSnapshot)
		}
		return nil
	})
}

// withRetry runs fn until it succeeds or fails with anything other than a
// transport error.
func (c *Client) withRetry(ctx context.Context, credential, op string, fn func(*http.Client) error) error {
	if credential == "" {
		return snapshot.ErrMissingCredential
	}
	client := c.httpClient(credential)

	return retry.Do(
		func() error { return fn(client) },
		retry.Attempts(c.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*c.retryDelay),
		retry.MaxJitter(c.retryDelay/5+1),
		retry.RetryIf(func(err error) bool {
			var netErr *snapshot.NetworkError
			return errors.As(err, &netErr)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("retrying gist request", "op", op, "attempt", n+1, "err", err)
		}),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func checkStatus(op string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, snapshot.ErrInvalidCredential)
	case http.StatusForbidden:
		// GitHub also answers 403 when the rate limit is exhausted.
		if res.Header.Get("X-RateLimit-Remaining") != "0" {
			return fmt.Errorf("%s: %w", op, snapshot.ErrInvalidCredential)
		}
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, snapshot.ErrTargetNotFound)
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if json.Unmarshal(data, &apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return &snapshot.RemoteError{Op: op, StatusCode: res.StatusCode, Message: apiErr.Message}
}
