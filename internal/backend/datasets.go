package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"tagwise-console/internal/model"
)

func (c *Client) ListDatasets(ctx context.Context) ([]model.DatasetSummary, error) {
	var out []model.DatasetSummary
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          "/api/admin/datasets/list",
		authenticated: true,
		fallback:      "Failed to load datasets.",
	}, &out)

	return out, err
}

func (c *Client) DatasetDetails(ctx context.Context, id int64) (model.DatasetDetails, error) {
	var out model.DatasetDetails
	err := c.do(ctx, request{
		method:        http.MethodGet,
		path:          fmt.Sprintf("/api/admin/datasets/%d/details", id),
		authenticated: true,
		fallback:      "Failed to load dataset details.",
	}, &out)

	return out, err
}

// UploadDataset streams the CSV as multipart/form-data with the file, name,
// classes and description fields the backend expects.
func (c *Client) UploadDataset(ctx context.Context, upload model.DatasetUpload) (model.CreatedDataset, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", upload.Name},
		{"classes", upload.Classes},
	}
	if upload.Description != "" {
		fields = append(fields, [2]string{"description", upload.Description})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return model.CreatedDataset{}, fmt.Errorf("write form field %s: %w", field[0], err)
		}
	}

	part, err := writer.CreateFormFile("file", upload.FileName)
	if err != nil {
		return model.CreatedDataset{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return model.CreatedDataset{}, fmt.Errorf("copy dataset content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return model.CreatedDataset{}, fmt.Errorf("close multipart writer: %w", err)
	}

	var out model.CreatedDataset
	err = c.do(ctx, request{
		method:        http.MethodPost,
		path:          "/api/admin/datasets/upload",
		body:          &buf,
		contentType:   writer.FormDataContentType(),
		authenticated: true,
		fallback:      "Dataset upload failed. Only CSV files are accepted.",
	}, &out)

	return out, err
}

func (c *Client) AssignAnnotators(ctx context.Context, datasetID int64, annotatorIDs []int64) error {
	body, err := jsonBody(annotatorIDs)
	if err != nil {
		return err
	}

	return c.do(ctx, request{
		method:        http.MethodPost,
		path:          fmt.Sprintf("/api/admin/datasets/%d/assign-users", datasetID),
		body:          body,
		contentType:   "application/json",
		authenticated: true,
		fallback:      "Failed to assign annotators.",
	}, nil)
}

func (c *Client) RemoveAnnotator(ctx context.Context, datasetID int64, annotatorID int64) error {
	return c.do(ctx, request{
		method:        http.MethodDelete,
		path:          fmt.Sprintf("/api/admin/annotators/remove/%d/%d", datasetID, annotatorID),
		authenticated: true,
		fallback:      "Failed to remove the annotator from the dataset.",
	}, nil)
}
