// Package backend is the REST client for the annotation backend. Every
// authenticated call goes through Client.do, which attaches the bearer token
// and enforces the 401 contract: the unauthorized hook runs, then the call
// fails with model.ErrUnauthorized.
package backend

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

	"tagwise-console/internal/model"
	"tagwise-console/pkg/apierror"
)

const maxResponseBytes = 4 << 20

// TokenFunc returns the bearer token of the request carried by ctx, or "".
type TokenFunc func(ctx context.Context) string

// UnauthorizedFunc is invoked once per 401 received on an authenticated call.
type UnauthorizedFunc func(ctx context.Context)

type Client struct {
	baseURL        string
	authPrefix     string
	httpClient     *http.Client
	token          TokenFunc
	onUnauthorized UnauthorizedFunc
}

func NewClient(baseURL string, authPrefix string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if strings.TrimSpace(authPrefix) == "" {
		authPrefix = "/api/auth"
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authPrefix: "/" + strings.Trim(authPrefix, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetTokenSource tells the client where to find the caller's token.
func (c *Client) SetTokenSource(fn TokenFunc) {
	c.token = fn
}

// OnUnauthorized registers the cleanup run when the backend rejects a token.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.onUnauthorized = fn
}

type request struct {
	method        string
	path          string
	body          io.Reader
	contentType   string
	authenticated bool
	fallback      string
}

func jsonBody(v any) (io.Reader, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(payload), nil
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	if r.authenticated && c.token != nil {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apierror.New("BACKEND_UNAVAILABLE",
			"The annotation service could not be reached. Please try again.",
			err.Error(), http.StatusBadGateway)
	}
	defer resp.Body.Close()

	// Decided on the status alone: the body may be unreadable once a sibling
	// call has cancelled ctx.
	if r.authenticated {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			if c.onUnauthorized != nil {
				c.onUnauthorized(context.WithoutCancel(ctx))
			}
			return fmt.Errorf("%s %s: %w", r.method, r.path, model.ErrUnauthorized)
		case http.StatusForbidden:
			return fmt.Errorf("%s %s: %w", r.method, r.path, model.ErrForbidden)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp.StatusCode, body, r.fallback)
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = body
		return nil
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}

	return nil
}

// doMessage is for endpoints whose success body is opaque: JSON with a
// message field, a JSON string, plain text, or nothing.
func (c *Client) doMessage(ctx context.Context, r request) (model.MessageResponse, error) {
	var raw []byte
	if err := c.do(ctx, r, &raw); err != nil {
		return model.MessageResponse{}, err
	}

	var out model.MessageResponse
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
	case json.Unmarshal(trimmed, &out) == nil:
	case json.Unmarshal(trimmed, &out.Message) == nil:
	default:
		out.Message = string(trimmed)
	}

	return out, nil
}
