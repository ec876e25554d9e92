package hpkv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultQueryLimit is used by Query when the caller passes a non-positive
// limit.
const DefaultQueryLimit = 100

const (
	recordPath  = "/record"
	atomicPath  = "/record/atomic"
	recordsPath = "/records"
)

// Client talks to an HPKV endpoint. It holds only immutable configuration and
// the underlying pooled transport, so a single Client is safe for concurrent
// use and meant to be constructed once and shared.
type Client struct {
	rc      *resty.Client
	baseURL string
	log     *zap.SugaredLogger
}

// Option customizes a Client at construction time.
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.SugaredLogger
	userAgent  string
}

// WithTimeout sets a per-request timeout on the underlying transport. Without
// it the transport's default (no timeout) applies.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient runs all requests over the provided http.Client instead of a
// freshly constructed one.
func WithHTTPClient(h *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = h }
}

// WithLogger enables debug-level request logging through the provided logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// New creates a Client for the given base URL and API key. Both are required;
// no network activity happens until the first operation is called.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("hpkv: baseURL is required")
	}
	if apiKey == "" {
		return nil, errors.New("hpkv: apiKey is required")
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	var rc *resty.Client
	if o.httpClient != nil {
		rc = resty.NewWithClient(o.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("Content-Type", "application/json")
	if o.timeout > 0 {
		rc.SetTimeout(o.timeout)
	}
	if o.userAgent != "" {
		rc.SetHeader("User-Agent", o.userAgent)
	}

	return &Client{rc: rc, baseURL: baseURL, log: o.log}, nil
}

// Close releases idle connections held by the transport pool. The Client must
// not be used afterwards.
func (c *Client) Close() {
	if c == nil || c.rc == nil {
		return
	}
	c.rc.GetClient().CloseIdleConnections()
}

// Set inserts or replaces the record under key. String values are transmitted
// unchanged; any other value is serialized to JSON text first, so the stored
// representation is always text. With partialUpdate the server merges a
// structured value into the existing record instead of replacing it; the
// merge semantics live entirely server-side.
func (c *Client) Set(ctx context.Context, key string, value any, partialUpdate bool) (*OperationResponse, error) {
	encoded, err := encodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("hpkv: serialize value: %w", err)
	}

	body, status, err := c.call(ctx, http.MethodPost, recordPath, func(req *resty.Request) {
		req.SetBody(setRecordRequest{
			Key:           url.PathEscape(key),
			Value:         encoded,
			PartialUpdate: partialUpdate,
		})
	})
	if err != nil {
		return nil, err
	}

	var out OperationResponse
	if err := decodeResponse(body, status, &out, "success"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get retrieves the record stored under key. The returned value is the raw
// stored text; callers holding structured data decode it themselves.
func (c *Client) Get(ctx context.Context, key string) (*GetRecordResponse, error) {
	body, status, err := c.call(ctx, http.MethodGet, recordPath+"/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}

	var out GetRecordResponse
	if err := decodeResponse(body, status, &out, "key", "value"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the record stored under key.
func (c *Client) Delete(ctx context.Context, key string) (*OperationResponse, error) {
	body, status, err := c.call(ctx, http.MethodDelete, recordPath+"/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}

	var out OperationResponse
	if err := decodeResponse(body, status, &out, "success"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Increment atomically adds delta to the numeric record under key; a negative
// delta decrements. The response carries the value after the delta was
// applied. Overflow behavior is server-defined.
func (c *Client) Increment(ctx context.Context, key string, delta int64) (*IncrementResponse, error) {
	body, status, err := c.call(ctx, http.MethodPost, atomicPath, func(req *resty.Request) {
		req.SetBody(incrementRequest{
			Key:       url.PathEscape(key),
			Increment: delta,
		})
	})
	if err != nil {
		return nil, err
	}

	var out IncrementResponse
	if err := decodeResponse(body, status, &out, "result"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query returns the records whose keys fall within [startKey, endKey], both
// bounds inclusive, up to limit (DefaultQueryLimit when non-positive). A
// truncated response flag is passed through verbatim; no follow-up request is
// issued.
func (c *Client) Query(ctx context.Context, startKey, endKey string, limit int) (*RangeQueryResponse, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	body, status, err := c.call(ctx, http.MethodGet, recordsPath, func(req *resty.Request) {
		req.SetQueryParam("startKey", url.QueryEscape(startKey)).
			SetQueryParam("endKey", url.QueryEscape(endKey)).
			SetQueryParam("limit", strconv.Itoa(limit))
	})
	if err != nil {
		return nil, err
	}

	var out RangeQueryResponse
	if err := decodeResponse(body, status, &out, "records", "count"); err != nil {
		return nil, err
	}
	return &out, nil
}

// call issues a single request and returns the raw success body along with
// its status code. Failing statuses are classified into an *Error before any
// shape validation happens.
func (c *Client) call(ctx context.Context, method, path string, build func(*resty.Request)) ([]byte, int, error) {
	req := c.rc.R().SetContext(ctx)
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, 0, fmt.Errorf("hpkv: %s %s: %w", method, path, err)
	}

	if c.log != nil {
		c.log.Debugw("hpkv request", "method", method, "path", path, "status", resp.StatusCode())
	}

	if resp.IsError() {
		return nil, 0, classify(resp.StatusCode(), resp.Body())
	}
	return resp.Body(), resp.StatusCode(), nil
}

// decodeResponse validates that body is a JSON object carrying the fields the
// operation requires, then decodes it into out. Any violation is reported as
// a response-format error carrying the status and the decoded body.
func decodeResponse(body []byte, status int, out any, required ...string) error {
	obj, ok := decodeObject(body)
	if !ok || !hasFields(obj, required...) {
		return formatError(status, obj)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return formatError(status, obj)
	}
	return nil
}

// encodeValue produces the wire representation of a record value: strings
// pass through, everything else becomes JSON text.
func encodeValue(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
