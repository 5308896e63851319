package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tagwise-console/internal/model"
)

type DashboardAPI interface {
	ListDatasets(ctx context.Context) ([]model.DatasetSummary, error)
	ListAnnotators(ctx context.Context) ([]model.Annotator, error)
	TaskCount(ctx context.Context) (int64, error)
	CompletedTaskCount(ctx context.Context) (int64, error)
}

type DashboardService struct {
	api DashboardAPI
}

func NewDashboardService(api DashboardAPI) *DashboardService {
	return &DashboardService{api: api}
}

// Overview fetches the admin counters in parallel and returns the dataset
// list it loaded along the way.
func (s *DashboardService) Overview(ctx context.Context) (model.DashboardStats, []model.DatasetSummary, error) {
	var (
		stats      model.DashboardStats
		datasets   []model.DatasetSummary
		annotators []model.Annotator
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		datasets, err = s.api.ListDatasets(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		annotators, err = s.api.ListAnnotators(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		stats.Tasks, err = s.api.TaskCount(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		stats.CompletedTasks, err = s.api.CompletedTaskCount(gctx)
		return err
	})

	if err := group.Wait(); err != nil {
		return model.DashboardStats{}, nil, err
	}

	stats.Datasets = len(datasets)
	for _, a := range annotators {
		if !a.Deleted {
			stats.Annotators++
		}
	}

	return stats, datasets, nil
}
