// Package client talks to the DevPulse analysis service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRepoURL is returned for anything that is not a GitHub repository URL.
var ErrInvalidRepoURL = errors.New("invalid GitHub repository URL")

var repoURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?github\.com/[A-Za-z0-9_-]+/[A-Za-z0-9_.-]+/?$`)

// ValidateRepoURL trims and checks a repository URL.
func ValidateRepoURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", fmt.Errorf("%w: repository URL is required", ErrInvalidRepoURL)
	}
	if !repoURLPattern.MatchString(u) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, u)
	}
	return u, nil
}

// ServiceError is a non-2xx answer from the service. Detail is the service's own message.
type ServiceError struct {
	Status int
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("analysis service returned %d %s", e.Status, http.StatusText(e.Status))
}

// ReportSummary is one entry of the service's report list.
type ReportSummary struct {
	ID        int    `json:"id"`
	RepoURL   string `json:"repo_url"`
	GitSHA    string `json:"git_sha"`
	Timestamp string `json:"timestamp"`
}

// Client calls the analysis service. Payloads are returned raw for the normalizer.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze asks the service to analyze a repository and returns the raw result payload.
func (c *Client) Analyze(ctx context.Context, repoURL string) ([]byte, error) {
	u, err := ValidateRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"repo_url": u})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/analyze", body)
}

// Reports lists stored reports, as the service orders them.
func (c *Client) Reports(ctx context.Context) ([]ReportSummary, error) {
	data, err := c.do(ctx, http.MethodGet, "/reports", nil)
	if err != nil {
		return nil, err
	}
	var list []ReportSummary
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding report list: %w", err)
	}
	return list, nil
}

// Report fetches one stored report's raw payload.
func (c *Client) Report(ctx context.Context, id int) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/reports/"+strconv.Itoa(id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analysis service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{Status: resp.StatusCode, Detail: detail(data)}
	}
	return data, nil
}

// detail extracts the service's error message. Structured details are kept as compact JSON.
func detail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body.Detail); err != nil {
		return string(body.Detail)
	}
	return buf.String()
}
