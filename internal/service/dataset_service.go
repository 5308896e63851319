package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"tagwise-console/internal/event"
	"tagwise-console/internal/model"
	"tagwise-console/internal/util"
)

const (
	maxDatasetNameRunes        = 120
	maxDatasetDescriptionRunes = 1000
)

type DatasetAPI interface {
	ListDatasets(ctx context.Context) ([]model.DatasetSummary, error)
	DatasetDetails(ctx context.Context, id int64) (model.DatasetDetails, error)
	UploadDataset(ctx context.Context, upload model.DatasetUpload) (model.CreatedDataset, error)
	AssignAnnotators(ctx context.Context, datasetID int64, annotatorIDs []int64) error
	RemoveAnnotator(ctx context.Context, datasetID int64, annotatorID int64) error
}

type DatasetService struct {
	api           DatasetAPI
	bus           event.Bus
	maxUploadSize int64
}

func NewDatasetService(api DatasetAPI, bus event.Bus, maxUploadSize int64) *DatasetService {
	if maxUploadSize <= 0 {
		maxUploadSize = 50 << 20
	}
	return &DatasetService{api: api, bus: bus, maxUploadSize: maxUploadSize}
}

func (s *DatasetService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

func (s *DatasetService) List(ctx context.Context) ([]model.DatasetSummary, error) {
	return s.api.ListDatasets(ctx)
}

func (s *DatasetService) Details(ctx context.Context, id int64) (model.DatasetDetails, error) {
	details, err := s.api.DatasetDetails(ctx, id)
	if err != nil {
		return model.DatasetDetails{}, notFound(err, model.ErrDatasetNotFound)
	}
	return details, nil
}

// Upload checks the CSV and its metadata before handing it to the backend,
// which only accepts .csv files.
func (s *DatasetService) Upload(ctx context.Context, upload model.DatasetUpload, actor string) (model.CreatedDataset, error) {
	upload.Name = util.SanitizeText(upload.Name, maxDatasetNameRunes)
	if upload.Name == "" {
		return model.CreatedDataset{}, badRequest("Dataset name is required.")
	}

	classes := model.SplitClasses(util.SanitizeText(upload.Classes, 0))
	if len(classes) < 2 {
		return model.CreatedDataset{}, badRequest("Provide at least two classes separated by semicolons.")
	}
	upload.Classes = strings.Join(dedupe(classes), ";")
	upload.Description = util.SanitizeText(upload.Description, maxDatasetDescriptionRunes)

	fileName, err := util.SanitizeFilename(upload.FileName)
	if err != nil {
		return model.CreatedDataset{}, err
	}
	if !util.IsCSVExtension(fileName) {
		return model.CreatedDataset{}, badRequest("Only CSV files are accepted.")
	}
	upload.FileName = fileName

	if upload.Content == nil {
		return model.CreatedDataset{}, badRequest("The dataset file is empty.")
	}
	content, isText, err := util.SniffCSV(io.LimitReader(upload.Content, s.maxUploadSize+1))
	if err != nil {
		return model.CreatedDataset{}, fmt.Errorf("read dataset file: %w", err)
	}
	if !isText {
		return model.CreatedDataset{}, badRequest("The file does not look like CSV text.")
	}
	upload.Content = &sizeGuard{r: content, limit: s.maxUploadSize}

	created, err := s.api.UploadDataset(ctx, upload)
	if err != nil {
		return model.CreatedDataset{}, err
	}

	event.Publish(s.bus, event.New(event.TypeDatasetUploaded, actor, created))
	return created, nil
}

func (s *DatasetService) Assign(ctx context.Context, datasetID int64, annotatorIDs []int64, actor string) error {
	ids := dedupe(annotatorIDs)
	if len(ids) == 0 {
		return badRequest("Select at least one annotator.")
	}

	if err := s.api.AssignAnnotators(ctx, datasetID, ids); err != nil {
		return notFound(err, model.ErrDatasetNotFound)
	}

	event.Publish(s.bus, event.New(event.TypeDatasetAssigned, actor, map[string]any{
		"datasetId":    datasetID,
		"annotatorIds": ids,
	}))
	return nil
}

func (s *DatasetService) RemoveAnnotator(ctx context.Context, datasetID int64, annotatorID int64) error {
	if err := s.api.RemoveAnnotator(ctx, datasetID, annotatorID); err != nil {
		return notFound(err, model.ErrAnnotatorNotFound)
	}
	return nil
}

// Assignable lists the enabled annotators not yet on the dataset.
func Assignable(all []model.Annotator, details model.DatasetDetails) []model.Annotator {
	assigned := make(map[int64]struct{}, len(details.AssignedAnnotators))
	for _, a := range details.AssignedAnnotators {
		assigned[a.ID] = struct{}{}
	}

	out := make([]model.Annotator, 0, len(all))
	for _, a := range all {
		if _, ok := assigned[a.ID]; ok || !a.Enabled || a.Deleted {
			continue
		}
		out = append(out, a)
	}

	slices.SortFunc(out, func(a, b model.Annotator) int {
		return strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
	})
	return out
}

func dedupe[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sizeGuard fails the upload once more than limit bytes were read.
type sizeGuard struct {
	r     io.Reader
	limit int64
	read  int64
}

func (g *sizeGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	g.read += int64(n)
	if g.read > g.limit {
		return n, badRequest(fmt.Sprintf("The dataset file exceeds the %d MB limit.", g.limit>>20))
	}
	return n, err
}
