// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package duro is a small client for the DURO GraphQL API: it finds an
// assembly by CPN, reads its direct children and replaces the children list.
package duro

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

	"go.uber.org/zap"

	"github.com/pdiddy/bom-reconcile/internal/httputil"
	"github.com/pdiddy/bom-reconcile/internal/logging"
	"github.com/pdiddy/bom-reconcile/internal/metrics"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

const (
	// TokenHeader carries the API token on every request.
	TokenHeader = "apiToken"

	defaultSearchLimit = 20
	defaultTimeout     = 30 * time.Second
)

var (
	// ErrNotConfigured is returned when the endpoint or token is missing.
	ErrNotConfigured = errors.New("DURO API not configured: set DURO_API_URL and DURO_API_TOKEN")

	// ErrAssemblyNotFound is returned by FetchBOM when no component carries
	// the requested CPN.
	ErrAssemblyNotFound = errors.New("assembly not found")
)

// GraphQLError reports errors returned in a GraphQL response body.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "GraphQL error"
	}
	return "GraphQL error: " + strings.Join(e.Messages, "; ")
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("DURO API returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("DURO API returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client talks to one DURO GraphQL endpoint.
type Client struct {
	URL         string
	Token       string
	UserAgent   string
	MaxRetries  int
	SearchLimit int
	HTTP        *http.Client
	Log         *zap.Logger
}

// New builds a client from configuration.
func New(cfg types.DuroConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		URL:         cfg.APIURL,
		Token:       cfg.APIToken,
		UserAgent:   cfg.UserAgent,
		MaxRetries:  cfg.MaxRetries,
		SearchLimit: cfg.SearchLimit,
		HTTP:        &http.Client{Timeout: timeout},
		Log:         logging.OrNop(log),
	}
}

// Configured reports whether the client has an endpoint and a token.
func (c *Client) Configured() bool {
	return c.URL != "" && c.Token != ""
}

type gqlRequest struct {
	Query string `json:"query"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Do posts a raw GraphQL request body and returns the upstream status and
// body unchanged. It is the transport behind the HTTP proxy.
func (c *Client) Do(ctx context.Context, body []byte) (int, []byte, error) {
	if !c.Configured() {
		return 0, nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TokenHeader, c.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.MaxRetries)
	if err != nil {
		return 0, nil, fmt.Errorf("DURO API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading DURO response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// query runs a GraphQL document and decodes its data field into out.
func (c *Client) query(ctx context.Context, op, doc string, out any) error {
	timer := metrics.NewTimer()
	status := "error"
	defer func() {
		metrics.RecordDuroRequest(op, status, timer.Duration())
	}()

	body, err := json.Marshal(gqlRequest{Query: doc})
	if err != nil {
		return fmt.Errorf("encoding %s query: %w", op, err)
	}

	code, data, err := c.Do(ctx, body)
	if err != nil {
		return err
	}
	c.Log.Debug("duro request", zap.String("op", op), zap.Int("status", code), zap.Int("bytes", len(data)))

	if code < 200 || code > 299 {
		status = fmt.Sprintf("%d", code)
		return &StatusError{StatusCode: code, Body: snippet(data)}
	}

	var gr gqlResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return fmt.Errorf("parsing %s response: %w", op, err)
	}
	if len(gr.Errors) > 0 {
		status = "graphql_error"
		gerr := &GraphQLError{}
		for _, e := range gr.Errors {
			gerr.Messages = append(gerr.Messages, e.Message)
		}
		return gerr
	}
	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("parsing %s data: %w", op, err)
		}
	}
	status = "ok"
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// literal renders s as a GraphQL string literal. JSON string escaping is a
// valid subset of GraphQL's.
func literal(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
