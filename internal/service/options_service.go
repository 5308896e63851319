package service

import (
	"context"

	"tagwise-console/internal/model"
)

type OptionsAPI interface {
	AdvancedOptions(ctx context.Context) (model.AdvancedOptions, error)
	UpdateAdvancedOptions(ctx context.Context, opts model.AdvancedOptions) error
}

type OptionsService struct {
	api OptionsAPI
}

func NewOptionsService(api OptionsAPI) *OptionsService {
	return &OptionsService{api: api}
}

func (s *OptionsService) Get(ctx context.Context) (model.AdvancedOptions, error) {
	return s.api.AdvancedOptions(ctx)
}

func (s *OptionsService) Update(ctx context.Context, opts model.AdvancedOptions) error {
	return s.api.UpdateAdvancedOptions(ctx, opts)
}
