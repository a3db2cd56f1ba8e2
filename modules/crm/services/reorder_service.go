package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/eventbus"
)

// ReorderService applies drag-and-drop move batches. A batch is validated
// against the caller's stage set, applied atomically, and answered with the
// caller's full lead list in canonical order so the client can reconcile.
type ReorderService struct {
	repo      lead.Repository
	stages    stage.Repository
	publisher eventbus.EventBus
}

func NewReorderService(repo lead.Repository, stages stage.Repository, publisher eventbus.EventBus) *ReorderService {
	return &ReorderService{
		repo:      repo,
		stages:    stages,
		publisher: publisher,
	}
}

// Reorder validates that every destination stage in the batch belongs to
// the caller, then applies all moves in one transaction. Moves naming leads
// the caller does not own match zero rows and are skipped; with duplicate
// lead ids in one batch the last occurrence wins. Any failure rolls the
// whole batch back.
func (s *ReorderService) Reorder(ctx context.Context, moves []lead.Move) ([]lead.Lead, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return nil, err
	}

	stageIDs := distinctStageIDs(moves)
	owned, err := s.stages.CountOwned(ctx, caller.ID(), stageIDs)
	if err != nil {
		return nil, err
	}
	if owned != len(stageIDs) {
		return nil, stage.ErrInvalidReference
	}

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.MoveMany(txCtx, caller.ID(), moves)
	}); err != nil {
		return nil, err
	}

	s.publisher.Publish(&lead.ReorderedEvent{UserID: caller.ID(), MoveCount: len(moves)})

	return s.repo.List(ctx, &lead.FindParams{UserID: caller.ID(), WithStage: true})
}

func distinctStageIDs(moves []lead.Move) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(moves))
	ids := make([]uuid.UUID, 0, len(moves))
	for _, m := range moves {
		if _, ok := seen[m.StageID]; ok {
			continue
		}
		seen[m.StageID] = struct{}{}
		ids = append(ids, m.StageID)
	}
	return ids
}
