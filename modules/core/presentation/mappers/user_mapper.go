package mappers

import (
	"time"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/core/presentation/viewmodels"
)

func UserToViewModel(u user.User) viewmodels.User {
	return viewmodels.User{
		ID:        u.ID().String(),
		Name:      u.Name(),
		Email:     u.Email(),
		AvatarURL: u.AvatarURL(),
		CreatedAt: u.CreatedAt().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt().Format(time.RFC3339),
	}
}
