package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/eventbus"
)

type LeadService struct {
	repo      lead.Repository
	stages    stage.Repository
	publisher eventbus.EventBus
}

func NewLeadService(repo lead.Repository, stages stage.Repository, publisher eventbus.EventBus) *LeadService {
	return &LeadService{
		repo:      repo,
		stages:    stages,
		publisher: publisher,
	}
}

// List returns the caller's leads in canonical board order together with
// the caller's stages.
func (s *LeadService) List(ctx context.Context) ([]lead.Lead, []stage.Stage, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	leads, err := s.repo.List(ctx, &lead.FindParams{UserID: caller.ID(), WithStage: true})
	if err != nil {
		return nil, nil, err
	}
	stages, err := s.stages.List(ctx, caller.ID())
	if err != nil {
		return nil, nil, err
	}
	return leads, stages, nil
}

func (s *LeadService) GetByID(ctx context.Context, id uuid.UUID) (lead.Lead, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	return s.repo.GetByID(ctx, caller.ID(), id)
}

// Create inserts a new lead. The target stage defaults to the caller's
// lowest-order stage; the position is allocated as max+1 within the target
// (user, stage) pair, 0 when the column is empty. A caller with no stages
// gets a stageless lead at position 0.
func (s *LeadService) Create(ctx context.Context, dto *lead.CreateDTO) (lead.Lead, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	dto.Normalize()

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (lead.Lead, error) {
		var stageID *uuid.UUID
		if dto.StageID != "" {
			id, err := uuid.Parse(dto.StageID)
			if err != nil {
				return lead.Lead{}, stage.ErrInvalidReference
			}
			if _, err := s.stages.GetByID(txCtx, caller.ID(), id); err != nil {
				if errors.Is(err, stage.ErrNotFound) {
					return lead.Lead{}, stage.ErrInvalidReference
				}
				return lead.Lead{}, err
			}
			stageID = &id
		} else {
			first, err := s.stages.First(txCtx, caller.ID())
			if err != nil && !errors.Is(err, stage.ErrNotFound) {
				return lead.Lead{}, err
			}
			if err == nil {
				id := first.ID()
				stageID = &id
			}
		}

		position := 0
		if stageID != nil {
			max, found, err := s.repo.MaxPositionInStage(txCtx, caller.ID(), *stageID)
			if err != nil {
				return lead.Lead{}, err
			}
			if found {
				position = max + 1
			}
		}

		opts := []lead.Option{
			lead.WithCompany(dto.Company),
			lead.WithEmail(dto.Email),
			lead.WithPhone(dto.Phone),
			lead.WithNotes(dto.Notes),
		}
		if dto.Value != nil {
			opts = append(opts, lead.WithValue(*dto.Value))
		}
		return s.repo.Create(txCtx, lead.New(caller.ID(), dto.Name, stageID, position, opts...))
	})
	if err != nil {
		return lead.Lead{}, err
	}

	s.publisher.Publish(&lead.CreatedEvent{Result: created})
	return created, nil
}

// Update replaces the editable fields of a lead owned by the caller. The
// stage assignment only changes when the DTO names a stage, and it must be
// one of the caller's own.
func (s *LeadService) Update(ctx context.Context, id uuid.UUID, dto *lead.UpdateDTO) (lead.Lead, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	dto.Normalize()

	return composables.InTxResult(ctx, func(txCtx context.Context) (lead.Lead, error) {
		existing, err := s.repo.GetByID(txCtx, caller.ID(), id)
		if err != nil {
			return lead.Lead{}, err
		}

		stageID := existing.StageID()
		if dto.StageID != "" {
			parsed, err := uuid.Parse(dto.StageID)
			if err != nil {
				return lead.Lead{}, stage.ErrInvalidReference
			}
			if _, err := s.stages.GetByID(txCtx, caller.ID(), parsed); err != nil {
				if errors.Is(err, stage.ErrNotFound) {
					return lead.Lead{}, stage.ErrInvalidReference
				}
				return lead.Lead{}, err
			}
			stageID = &parsed
		}

		value := existing.Value()
		if dto.Value != nil {
			value = dto.Value
		}
		position := existing.Position()
		if dto.Position != nil {
			position = *dto.Position
		}

		updated := lead.Hydrate(
			existing.ID(),
			caller.ID(),
			stageID,
			dto.Name,
			dto.Company,
			dto.Email,
			dto.Phone,
			value,
			dto.Notes,
			position,
			existing.CreatedAt(),
			existing.UpdatedAt(),
		)
		return s.repo.Update(txCtx, updated)
	})
}

func (s *LeadService) Delete(ctx context.Context, id uuid.UUID) error {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, caller.ID(), id); err != nil {
		return err
	}
	s.publisher.Publish(&lead.DeletedEvent{UserID: caller.ID(), LeadID: id})
	return nil
}
