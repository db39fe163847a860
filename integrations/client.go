package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZacxDev/hotel-site/logging"
	goerrors "github.com/goliatone/go-errors"
	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

// StatusError is returned when an upstream answers with a non 2xx status.
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Client is the HTTP client shared by the upstream integrations. Requests
// that fail with a 5xx status are sent exactly one more time.
type Client struct {
	http       *http.Client
	logger     logging.Logger
	retryDelay time.Duration
}

func NewClient(timeout time.Duration, logger logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		logger:     logging.OrNoOp(logger),
		retryDelay: 250 * time.Millisecond,
	}
}

// Request describes one upstream call. Body is encoded as JSON and Out, if
// set, receives the decoded JSON response.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
	Out    any
}

// Do sends req and decodes the response.
func (c *Client) Do(ctx context.Context, req Request) error {
	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return errors.Wrap(err, "encode request body")
		}
	}

	resp, err := c.send(ctx, req, payload)
	if err == nil && resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("integrations.retry", "method", req.Method, "url", req.URL, "status", resp.StatusCode)
		drain(resp)
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(c.retryDelay):
		}
		resp, err = c.send(ctx, req, payload)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, req.Method+" "+req.URL)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{Method: req.Method, URL: req.URL, Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
		return goerrors.Wrap(statusErr, goerrors.CategoryExternal, "upstream request failed")
	}
	if req.Out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(req.Out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "decode "+req.URL)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(httpReq)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
