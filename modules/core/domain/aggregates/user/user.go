package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Option func(*User)

func WithID(id uuid.UUID) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithAvatarURL(url string) Option {
	return func(u *User) {
		u.avatarURL = url
	}
}

// User is the owning identity for stages and leads. Every record in the
// system is scoped to exactly one user.
type User struct {
	id           uuid.UUID
	name         string
	email        string
	passwordHash string
	avatarURL    string
	createdAt    time.Time
	updatedAt    time.Time
}

func New(name, email, passwordHash string, opts ...Option) User {
	u := User{
		id:           uuid.New(),
		name:         strings.TrimSpace(name),
		email:        normalizeEmail(email),
		passwordHash: passwordHash,
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

func Hydrate(
	id uuid.UUID,
	name string,
	email string,
	passwordHash string,
	avatarURL string,
	createdAt time.Time,
	updatedAt time.Time,
) User {
	return User{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		avatarURL:    avatarURL,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (u User) ID() uuid.UUID        { return u.id }
func (u User) Name() string         { return u.name }
func (u User) Email() string        { return u.email }
func (u User) PasswordHash() string { return u.passwordHash }
func (u User) AvatarURL() string    { return u.avatarURL }
func (u User) CreatedAt() time.Time { return u.createdAt }
func (u User) UpdatedAt() time.Time { return u.updatedAt }
func (u User) IsZero() bool         { return u.id == uuid.Nil }

func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

func (u User) WithName(name string) User {
	u.name = strings.TrimSpace(name)
	return u
}

func (u User) WithEmail(email string) User {
	u.email = normalizeEmail(email)
	return u
}

func (u User) WithPasswordHash(hash string) User {
	u.passwordHash = hash
	return u
}

func (u User) WithAvatarURL(url string) User {
	u.avatarURL = url
	return u
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
