// ABOUTME: HTTP client for the back-office API: deals, speaker matching, proposal creation
// ABOUTME: Retries idempotent reads with exponential backoff; creation is sent exactly once
package api

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

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/metrics"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/proposal"
)

// Operation names used in logs, errors, and metrics.
const (
	OpListDeals      = "list_deals"
	OpMatchSpeakers  = "match_speakers"
	OpCreateProposal = "create_proposal"
)

// APIError is a non-2xx response from the back office.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the back-office API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	metrics    *metrics.Metrics
	retries    uint64
	newBackOff func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client, e.g. one carrying OAuth tokens.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetries sets how many times an idempotent read is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = uint64(n)
		}
	}
}

// WithBackOff replaces the delay policy between retries.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log.Default(),
		retries:    3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDeals returns every deal known to the back office.
func (c *Client) ListDeals(ctx context.Context) ([]models.Deal, error) {
	var deals []models.Deal
	err := c.withRetry(ctx, OpListDeals, func() error {
		return c.do(ctx, OpListDeals, http.MethodGet, "/deals", nil, nil, &deals)
	})
	if err != nil {
		return nil, err
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	return deals, nil
}

type matchRequest struct {
	DealID   string            `json:"dealId,omitempty"`
	Criteria matching.Criteria `json:"criteria"`
}

type matchResponse struct {
	Speakers []models.SpeakerCandidate `json:"speakers"`
}

// MatchSpeakers returns ranked speaker candidates for the criteria.
func (c *Client) MatchSpeakers(ctx context.Context, dealID string, criteria matching.Criteria) ([]models.SpeakerCandidate, error) {
	body := matchRequest{DealID: dealID, Criteria: criteria}
	var resp matchResponse
	err := c.withRetry(ctx, OpMatchSpeakers, func() error {
		return c.do(ctx, OpMatchSpeakers, http.MethodPost, "/speakers/match", body, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Speakers == nil {
		resp.Speakers = []models.SpeakerCandidate{}
	}
	return resp.Speakers, nil
}

// CreateProposal persists a new proposal. It is never retried here; the
// idempotency key lets the caller retry safely.
func (c *Client) CreateProposal(ctx context.Context, payload proposal.Payload, idempotencyKey string) (*models.Proposal, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	var created models.Proposal
	if err := c.do(ctx, OpCreateProposal, http.MethodPost, "/proposals", payload, headers, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.retries), ctx)

	attempt := func() error {
		err := fn()
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.ObserveRetry(op)
		c.logger.Warn("retrying request", "op", op, "wait", wait, "err", err)
	}

	return backoff.RetryNotify(attempt, b, notify)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

type decodeError struct {
	op  string
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.op, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, op, method, path string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, 0, time.Since(start))
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(op, resp.StatusCode, time.Since(start))
	c.logger.Debug("api response", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{op: op, err: err}
	}
	return nil
}
