package services

import (
	"context"

	"github.com/flowcrm/flowcrm/modules/core/domain/entities/session"
)

type SessionService struct {
	repo session.Repository
}

func NewSessionService(repo session.Repository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *SessionService) Create(ctx context.Context, dto *session.CreateDTO) error {
	return s.repo.Create(ctx, dto.ToEntity())
}

func (s *SessionService) Delete(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
