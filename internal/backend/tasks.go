package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tagwise-console/internal/model"
)

func (c *Client) TaskCount(ctx context.Context) (int64, error) {
	var out int64
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/tasks/count",
		authenticated: true,
		fallback:      "Failed to load task count.",
	}, &out)

	return out, err
}

func (c *Client) CompletedTaskCount(ctx context.Context) (int64, error) {
	var out int64
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/tasks/completed/count",
		authenticated: true,
		fallback:      "Failed to load completed task count.",
	}, &out)

	return out, err
}

func (c *Client) TasksForAnnotator(ctx context.Context, annotatorID string) ([]model.Task, error) {
	var out []model.Task
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/tasks/annotator/" + url.PathEscape(annotatorID),
		authenticated: true,
		fallback:      "Failed to load your tasks.",
	}, &out)

	return out, err
}

func (c *Client) Task(ctx context.Context, id int64) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          fmt.Sprintf("/api/tasks/%d", id),
		authenticated: true,
		fallback:      "Failed to load the task.",
	}, &out)

	return out, err
}

// Annotate submits a label. The backend takes both values as query
// parameters.
func (c *Client) Annotate(ctx context.Context, taskID int64, annotatorID string, annotation string) (model.Task, error) {
	query := url.Values{}
	query.Set("annotatorId", annotatorID)
	query.Set("annotation", annotation)

	var out model.Task
	err := c.do(ctx, request{
		method:        http.MethodPost,
		path:          fmt.Sprintf("/api/tasks/%d/annotate?%s", taskID, query.Encode()),
		authenticated: true,
		fallback:      "Failed to submit the annotation.",
	}, &out)

	return out, err
}
