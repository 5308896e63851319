package backend

import (
	"context"
	"net/http"

	"tagwise-console/internal/model"
)

func (c *Client) AdvancedOptions(ctx context.Context) (model.AdvancedOptions, error) {
	var out model.AdvancedOptions
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/admin/advanced-options",
		authenticated: true,
		fallback:      "Failed to load advanced options.",
	}, &out)

	return out, err
}

func (c *Client) UpdateAdvancedOptions(ctx context.Context, opts model.AdvancedOptions) error {
	body, err := jsonBody(opts)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:        http.MethodPut,
		path:          "/api/admin/advanced-options",
		body:          body,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to save advanced options.",
	}, nil)
}
