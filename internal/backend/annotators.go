package backend

import (
	"context"
	"fmt"
	"net/http"

	"tagwise-console/internal/model"
)

func (c *Client) ListAnnotators(ctx context.Context) ([]model.Annotator, error) {
	var out []model.Annotator
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/admin/annotators",
		authenticated: true,
		fallback:      "Failed to load annotators.",
	}, &out)

	return out, err
}

func (c *Client) AddAnnotator(ctx context.Context, req model.SignupRequest) (model.Annotator, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.Annotator{}, err
	}

	var out model.Annotator
	err = c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/api/admin/annotators/add",
		body:          body,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to add the annotator.",
	}, &out)

	return out, err
}

// ValidateAnnotator enables a self-registered annotator account.
func (c *Client) ValidateAnnotator(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method:        http.MethodPost,
		path:          fmt.Sprintf("/api/admin/annotators/users/validate/%d", id),
		authenticated: true,
		fallback:      "Failed to validate the annotator.",
	}, nil)
}
