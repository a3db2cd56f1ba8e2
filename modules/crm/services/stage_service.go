package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

type StageService struct {
	repo stage.Repository
}

func NewStageService(repo stage.Repository) *StageService {
	return &StageService{repo: repo}
}

func (s *StageService) List(ctx context.Context) ([]stage.Stage, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, caller.ID())
}

// UpdateBatch renames and reorders the caller's stages in one transaction
// and returns the resulting stage list. Entries naming stages the caller
// does not own are skipped.
func (s *StageService) UpdateBatch(ctx context.Context, updates []stage.Update) ([]stage.Stage, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateMany(txCtx, caller.ID(), updates)
	}); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, caller.ID())
}

// SeedDefaults creates the default stage template for a new user. It is a
// no-op when the user already has stages.
func (s *StageService) SeedDefaults(ctx context.Context, userID uuid.UUID) error {
	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	stages := make([]stage.Stage, 0, len(stage.DefaultTemplate()))
	for _, entry := range stage.DefaultTemplate() {
		stages = append(stages, stage.New(userID, entry.Name, entry.Order))
	}
	return s.repo.CreateMany(ctx, stages)
}
