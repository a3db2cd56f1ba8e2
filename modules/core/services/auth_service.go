package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/resettoken"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/session"
	"github.com/flowcrm/flowcrm/modules/core/infrastructure/email"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/eventbus"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
)

type AuthService struct {
	users       *UserService
	sessions    *SessionService
	stages      stage.Repository
	resetTokens resettoken.Repository
	mailer      email.Sender
	publisher   eventbus.EventBus
}

func NewAuthService(
	users *UserService,
	sessions *SessionService,
	stages stage.Repository,
	resetTokens resettoken.Repository,
	mailer email.Sender,
	publisher eventbus.EventBus,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		stages:      stages,
		resetTokens: resetTokens,
		mailer:      mailer,
		publisher:   publisher,
	}
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register creates the account and seeds the default pipeline in one
// transaction, then opens a session for the new user.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user.User, *session.Session, error) {
	hash, err := user.HashPassword(params.Password)
	if err != nil {
		return user.User{}, nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		u, err := s.users.Create(txCtx, user.New(params.Name, params.Email, hash))
		if err != nil {
			return user.User{}, err
		}

		template := stage.DefaultTemplate()
		stages := make([]stage.Stage, 0, len(template))
		for _, entry := range template {
			stages = append(stages, stage.New(u.ID(), entry.Name, entry.Order))
		}
		if err := s.stages.CreateMany(txCtx, stages); err != nil {
			return user.User{}, err
		}
		return u, nil
	})
	if err != nil {
		return user.User{}, nil, err
	}

	sess, err := s.authenticate(ctx, created)
	if err != nil {
		return user.User{}, nil, err
	}

	s.publisher.Publish(&user.RegisteredEvent{UserID: created.ID(), Email: created.Email()})
	return created, sess, nil
}

// Authenticate verifies credentials and opens a session. Unknown e-mail and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (user.User, *session.Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, nil, ErrInvalidCredentials
		}
		return user.User{}, nil, err
	}
	if !u.CheckPassword(password) {
		return user.User{}, nil, ErrInvalidCredentials
	}
	sess, err := s.authenticate(ctx, u)
	if err != nil {
		return user.User{}, nil, err
	}
	return u, sess, nil
}

// Authorize resolves a session token to its user, rejecting expired sessions.
func (s *AuthService) Authorize(ctx context.Context, token string) (user.User, error) {
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return user.User{}, err
	}
	if sess.Expired() {
		return user.User{}, session.ErrNotFound
	}
	return s.users.GetByID(ctx, sess.UserID)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// RequestPasswordReset stores a single-use token and mails the reset link.
// It reports success regardless of whether the account exists, so the
// endpoint cannot be used to enumerate e-mail addresses.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	conf := configuration.Use()
	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	t := &resettoken.ResetToken{
		ID:        uuid.New(),
		Token:     token,
		UserID:    u.ID(),
		ExpiresAt: time.Now().Add(conf.ResetTokenTTL),
	}
	if err := s.resetTokens.Create(ctx, t); err != nil {
		return err
	}

	resetURL := conf.AppBaseURL + "/reset-password/" + token
	return s.mailer.SendPasswordReset(ctx, u.Email(), resetURL)
}

// ConfirmPasswordReset redeems a reset token: the password change and the
// token consumption commit together.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	t, err := s.resetTokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !t.Usable(time.Now()) {
		return ErrInvalidResetToken
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return err
	}

	return composables.InTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.GetByID(txCtx, t.UserID)
		if err != nil {
			return err
		}
		if _, err := s.users.Update(txCtx, u.WithPasswordHash(hash)); err != nil {
			return err
		}
		return s.resetTokens.MarkUsed(txCtx, t.ID, time.Now())
	})
}

// Cookie builds the session cookie for a freshly opened session.
func (s *AuthService) Cookie(sess *session.Session) *http.Cookie {
	conf := configuration.Use()
	domain := ""
	if conf.GoAppEnvironment == configuration.Production {
		domain = conf.Domain
	}
	return &http.Cookie{
		Name:     conf.SidCookieKey,
		Value:    sess.Token,
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   conf.GoAppEnvironment == configuration.Production,
		Domain:   domain,
		Path:     "/",
	}
}

// ExpiredCookie clears the session cookie on logout.
func (s *AuthService) ExpiredCookie() *http.Cookie {
	conf := configuration.Use()
	return &http.Cookie{
		Name:     conf.SidCookieKey,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(1, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

func (s *AuthService) authenticate(ctx context.Context, u user.User) (*session.Session, error) {
	conf := configuration.Use()

	ip, ok := composables.UseIP(ctx)
	if !ok {
		ip = "0.0.0.0"
	}
	userAgent, ok := composables.UseUserAgent(ctx)
	if !ok {
		userAgent = "Unknown"
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	dto := &session.CreateDTO{
		Token:     token,
		UserID:    u.ID(),
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(conf.SessionDuration),
	}
	if err := s.sessions.Create(ctx, dto); err != nil {
		return nil, err
	}
	return dto.ToEntity(), nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
