// Package gkb implements kb.Client over the knowledge base's HTTP API.
// Transport policy is deliberately thin: token login with one re-login on
// auth expiry, and pagination until a short page. Retry schedules and
// response caching belong to the deployment in front of the API.
package gkb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/variantkb/kbmatch/internal/kb"
)

// DefaultPageLimit is the page size used for paginated queries.
const DefaultPageLimit = 1000

// Client is an authenticated HTTP connection to the knowledge base.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	limit    int
	username string
	password string
	token    string
}

// New creates a client for the API at baseURL. Call Login before issuing
// queries.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  zap.NewNop(),
		limit:   DefaultPageLimit,
	}
}

// SetLogger sets the logger for request tracing.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetPageLimit overrides the query page size.
func (c *Client) SetPageLimit(limit int) {
	c.limit = limit
}

// Login obtains an API token for the given credentials and keeps them for
// automatic re-login when the token expires.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.username = username
	c.password = password

	body, err := c.post(ctx, "token", map[string]any{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var content struct {
		Token string `json:"kbToken"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return fmt.Errorf("login: decode token response: %w", err)
	}
	c.token = content.Token
	return nil
}

// Query runs a declarative query, following pagination until the full result
// is assembled.
func (c *Client) Query(ctx context.Context, q *kb.Query) ([]kb.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	spec, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	var base map[string]any
	if err := json.Unmarshal(spec, &base); err != nil {
		return nil, err
	}

	var records []kb.Record
	for {
		base["limit"] = c.limit
		base["skip"] = len(records)

		body, err := c.post(ctx, "query", base, true)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		page, err := decodeResult(body)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		records = append(records, page...)
		if len(page) < c.limit {
			return records, nil
		}
	}
}

// Parse decomposes an HGVS-like notation string via the API's parser.
func (c *Client) Parse(ctx context.Context, notation string, requireFeatures bool) (*kb.ParsedVariant, error) {
	body, err := c.post(ctx, "parse", map[string]any{
		"content":         notation,
		"requireFeatures": requireFeatures,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var content struct {
		Result *kb.ParsedVariant `json:"result"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("parse: decode response: %w", err)
	}
	return content.Result, nil
}

// GetRecordsByID fetches records by id, failing if any id does not resolve.
func (c *Client) GetRecordsByID(ctx context.Context, ids []string) ([]kb.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := c.Query(ctx, &kb.Query{Target: kb.Target{RecordIDs: ids}})
	if err != nil {
		return nil, err
	}
	if len(records) != len(ids) {
		return nil, &kb.RecordNotFoundError{Requested: len(ids), Fetched: len(records)}
	}
	return records, nil
}

// post sends one JSON request, re-authenticating once when the token has
// expired.
func (c *Client) post(ctx context.Context, endpoint string, payload any, relogin bool) ([]byte, error) {
	requestID := uuid.NewString()
	start := time.Now()

	status, body, err := c.send(ctx, endpoint, payload, requestID)
	if err != nil {
		return nil, err
	}
	if relogin && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
		if err := c.Login(ctx, c.username, c.password); err != nil {
			return nil, err
		}
		status, body, err = c.send(ctx, endpoint, payload, requestID)
		if err != nil {
			return nil, err
		}
	}

	c.logger.Debug("api request",
		zap.String("endpoint", endpoint),
		zap.String("requestId", requestID),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))

	if status >= 400 {
		return nil, apiError(endpoint, status, body)
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, endpoint string, payload any, requestID string) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return resp.StatusCode, body, nil
}

// apiError extracts the server's error message when one is present.
func apiError(endpoint string, status int, body []byte) error {
	var content struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &content); err == nil && content.Message != "" {
		return fmt.Errorf("/%s returned %d: %s", endpoint, status, content.Message)
	}
	return fmt.Errorf("/%s returned %d", endpoint, status)
}

func decodeResult(body []byte) ([]kb.Record, error) {
	var content struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]kb.Record, 0, len(content.Result))
	for _, raw := range content.Result {
		rec, err := kb.DecodeRecord(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
