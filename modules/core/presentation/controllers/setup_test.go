package controllers_test

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/resettoken"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/session"
	"github.com/flowcrm/flowcrm/modules/core/presentation/controllers"
	"github.com/flowcrm/flowcrm/modules/core/services"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/eventbus"
)

// noopTx satisfies the transaction composables, which reuse a transaction
// already present on the context. None of its methods are ever called.
type noopTx struct {
	pgx.Tx
}

type userRepoFake struct {
	users map[uuid.UUID]user.User
}

func (f *userRepoFake) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *userRepoFake) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *userRepoFake) Create(_ context.Context, u user.User) (user.User, error) {
	for _, existing := range f.users {
		if existing.Email() == u.Email() {
			return user.User{}, user.ErrEmailTaken
		}
	}
	f.users[u.ID()] = u
	return u, nil
}

func (f *userRepoFake) Update(_ context.Context, u user.User) (user.User, error) {
	for id, existing := range f.users {
		if id != u.ID() && existing.Email() == u.Email() {
			return user.User{}, user.ErrEmailTaken
		}
	}
	f.users[u.ID()] = u
	return u, nil
}

type sessionRepoFake struct {
	sessions map[string]*session.Session
}

func (f *sessionRepoFake) GetByToken(_ context.Context, token string) (*session.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (f *sessionRepoFake) Create(_ context.Context, s *session.Session) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *sessionRepoFake) Delete(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *sessionRepoFake) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type resetTokenRepoFake struct {
	tokens map[string]*resettoken.ResetToken
}

func (f *resetTokenRepoFake) GetByToken(_ context.Context, token string) (*resettoken.ResetToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, resettoken.ErrNotFound
	}
	return t, nil
}

func (f *resetTokenRepoFake) Create(_ context.Context, t *resettoken.ResetToken) error {
	f.tokens[t.Token] = t
	return nil
}

func (f *resetTokenRepoFake) MarkUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	for _, t := range f.tokens {
		if t.ID == id {
			at := usedAt
			t.UsedAt = &at
		}
	}
	return nil
}

type stageRepoFake struct {
	stages []stage.Stage
}

func (f *stageRepoFake) List(_ context.Context, userID uuid.UUID) ([]stage.Stage, error) {
	var out []stage.Stage
	for _, s := range f.stages {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *stageRepoFake) GetByID(_ context.Context, userID, id uuid.UUID) (stage.Stage, error) {
	for _, s := range f.stages {
		if s.UserID() == userID && s.ID() == id {
			return s, nil
		}
	}
	return stage.Stage{}, stage.ErrNotFound
}

func (f *stageRepoFake) First(_ context.Context, userID uuid.UUID) (stage.Stage, error) {
	for _, s := range f.stages {
		if s.UserID() == userID {
			return s, nil
		}
	}
	return stage.Stage{}, stage.ErrNotFound
}

func (f *stageRepoFake) CountOwned(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	count := 0
	for _, id := range ids {
		for _, s := range f.stages {
			if s.UserID() == userID && s.ID() == id {
				count++
				break
			}
		}
	}
	return count, nil
}

func (f *stageRepoFake) CreateMany(_ context.Context, stages []stage.Stage) error {
	f.stages = append(f.stages, stages...)
	return nil
}

func (f *stageRepoFake) UpdateMany(_ context.Context, _ uuid.UUID, _ []stage.Update) error {
	return nil
}

type mailerFake struct {
	sent []string
}

func (f *mailerFake) SendPasswordReset(_ context.Context, _, resetURL string) error {
	f.sent = append(f.sent, resetURL)
	return nil
}

type harness struct {
	users       *userRepoFake
	sessions    *sessionRepoFake
	resetTokens *resetTokenRepoFake
	stages      *stageRepoFake
	mailer      *mailerFake
	router      *mux.Router
}

func newHarness() *harness {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	publisher := eventbus.NewEventPublisher(log)

	h := &harness{
		users:       &userRepoFake{users: map[uuid.UUID]user.User{}},
		sessions:    &sessionRepoFake{sessions: map[string]*session.Session{}},
		resetTokens: &resetTokenRepoFake{tokens: map[string]*resettoken.ResetToken{}},
		stages:      &stageRepoFake{},
		mailer:      &mailerFake{},
	}

	app := application.New(&application.ApplicationOptions{EventBus: publisher})

	userService := services.NewUserService(h.users, "")
	sessionService := services.NewSessionService(h.sessions)
	app.RegisterServices(
		userService,
		sessionService,
		services.NewAuthService(
			userService,
			sessionService,
			h.stages,
			h.resetTokens,
			h.mailer,
			publisher,
		),
	)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(composables.WithTx(req.Context(), noopTx{})))
		})
	})
	controllers.NewAuthController(app).Register(r)
	controllers.NewProfileController(app).Register(r)

	h.router = r
	return h
}

// seedUser creates an account directly in the fakes with an open session.
func (h *harness) seedUser(email, password string) (user.User, string) {
	hash, err := user.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u, err := h.users.Create(context.Background(), user.New("Ana", email, hash))
	if err != nil {
		panic(err)
	}
	token := "seeded-" + u.ID().String()
	h.sessions.sessions[token] = &session.Session{
		Token:     token,
		UserID:    u.ID(),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	return u, token
}

func authenticated(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{
		Name:  configuration.Use().SidCookieKey,
		Value: token,
	})
	return req
}
