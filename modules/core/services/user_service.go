package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

var avatarDataRe = regexp.MustCompile(`^data:image/(png|jpeg|jpg);base64,(.+)$`)

var ErrAvatarFormat = errors.New("invalid avatar format")

type UserService struct {
	repo       user.Repository
	avatarsDir string
}

func NewUserService(repo user.Repository, avatarsDir string) *UserService {
	return &UserService{repo: repo, avatarsDir: avatarsDir}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) Create(ctx context.Context, u user.User) (user.User, error) {
	return s.repo.Create(ctx, u)
}

func (s *UserService) Update(ctx context.Context, u user.User) (user.User, error) {
	return s.repo.Update(ctx, u)
}

type UpdateProfileParams struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
	AvatarData      string
}

// UpdateProfile applies the caller's profile changes. Changing the password
// requires the current one; changing the e-mail requires it to be free.
func (s *UserService) UpdateProfile(ctx context.Context, params UpdateProfileParams) (user.User, error) {
	caller, err := composables.UseUser(ctx)
	if err != nil {
		return user.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email != caller.Email() {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			return user.User{}, err
		}
		if err == nil && existing.ID() != caller.ID() {
			return user.User{}, user.ErrEmailTaken
		}
	}

	updated := caller.WithName(params.Name).WithEmail(email)

	if params.NewPassword != "" {
		if !caller.CheckPassword(params.CurrentPassword) {
			return user.User{}, composables.ErrInvalidPassword
		}
		hash, err := user.HashPassword(params.NewPassword)
		if err != nil {
			return user.User{}, err
		}
		updated = updated.WithPasswordHash(hash)
	}

	if params.AvatarData != "" {
		url, err := s.saveAvatar(caller.ID(), params.AvatarData)
		if err != nil {
			return user.User{}, err
		}
		updated = updated.WithAvatarURL(url)
	}

	return s.repo.Update(ctx, updated)
}

func (s *UserService) saveAvatar(userID uuid.UUID, data string) (string, error) {
	matches := avatarDataRe.FindStringSubmatch(data)
	if matches == nil {
		return "", ErrAvatarFormat
	}
	raw, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return "", ErrAvatarFormat
	}
	ext := "jpg"
	if matches[1] == "png" {
		ext = "png"
	}
	if err := os.MkdirAll(s.avatarsDir, 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s.%s", userID, ext)
	if err := os.WriteFile(filepath.Join(s.avatarsDir, filename), raw, 0o644); err != nil {
		return "", err
	}
	return "/avatars/" + filename, nil
}
