package controllers_test

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/resettoken"
	"github.com/flowcrm/flowcrm/modules/core/domain/entities/session"
	coreservices "github.com/flowcrm/flowcrm/modules/core/services"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/controllers"
	"github.com/flowcrm/flowcrm/modules/crm/services"
	"github.com/flowcrm/flowcrm/pkg/application"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/eventbus"
)

const testSessionToken = "test-session-token"

// noopTx satisfies the transaction middleware, which reuses a transaction
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
	f.users[u.ID()] = u
	return u, nil
}

func (f *userRepoFake) Update(_ context.Context, u user.User) (user.User, error) {
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

type resetTokenRepoFake struct{}

func (f *resetTokenRepoFake) GetByToken(_ context.Context, _ string) (*resettoken.ResetToken, error) {
	return nil, resettoken.ErrNotFound
}
func (f *resetTokenRepoFake) Create(_ context.Context, _ *resettoken.ResetToken) error { return nil }
func (f *resetTokenRepoFake) MarkUsed(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type mailerFake struct{}

func (f *mailerFake) SendPasswordReset(_ context.Context, _, _ string) error { return nil }

type stageRepoFake struct {
	stages []stage.Stage
}

func (f *stageRepoFake) add(userID uuid.UUID, name string, order int) stage.Stage {
	s := stage.New(userID, name, order)
	f.stages = append(f.stages, s)
	return s
}

func (f *stageRepoFake) List(_ context.Context, userID uuid.UUID) ([]stage.Stage, error) {
	var out []stage.Stage
	for _, s := range f.stages {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
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

func (f *stageRepoFake) First(ctx context.Context, userID uuid.UUID) (stage.Stage, error) {
	all, _ := f.List(ctx, userID)
	if len(all) == 0 {
		return stage.Stage{}, stage.ErrNotFound
	}
	return all[0], nil
}

func (f *stageRepoFake) CountOwned(_ context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	owned := make(map[uuid.UUID]struct{})
	for _, s := range f.stages {
		if s.UserID() == userID {
			owned[s.ID()] = struct{}{}
		}
	}
	count := 0
	for _, id := range ids {
		if _, ok := owned[id]; ok {
			count++
		}
	}
	return count, nil
}

func (f *stageRepoFake) CreateMany(_ context.Context, stages []stage.Stage) error {
	f.stages = append(f.stages, stages...)
	return nil
}

func (f *stageRepoFake) UpdateMany(_ context.Context, userID uuid.UUID, updates []stage.Update) error {
	for _, u := range updates {
		for i, s := range f.stages {
			if s.UserID() == userID && s.ID() == u.ID {
				f.stages[i] = stage.Hydrate(s.ID(), s.UserID(), u.Name, u.Order, s.CreatedAt(), s.UpdatedAt())
			}
		}
	}
	return nil
}

type leadRepoFake struct {
	leads  []lead.Lead
	stages *stageRepoFake
}

func (f *leadRepoFake) add(userID uuid.UUID, name string, stageID *uuid.UUID, position int) lead.Lead {
	l, _ := f.Create(context.Background(), lead.New(userID, name, stageID, position))
	return l
}

func (f *leadRepoFake) List(_ context.Context, params *lead.FindParams) ([]lead.Lead, error) {
	var out []lead.Lead
	for _, l := range f.leads {
		if l.UserID() != params.UserID {
			continue
		}
		if params.WithStage && l.StageID() != nil {
			if s, err := f.stages.GetByID(context.Background(), params.UserID, *l.StageID()); err == nil {
				l = l.WithStage(s)
			}
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := f.stageOrder(out[i]), f.stageOrder(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i].Position() < out[j].Position()
	})
	return out, nil
}

func (f *leadRepoFake) stageOrder(l lead.Lead) int {
	if l.StageID() == nil {
		return 1 << 30
	}
	for _, s := range f.stages.stages {
		if s.ID() == *l.StageID() {
			return s.Order()
		}
	}
	return 1 << 30
}

func (f *leadRepoFake) GetByID(_ context.Context, userID, id uuid.UUID) (lead.Lead, error) {
	for _, l := range f.leads {
		if l.UserID() == userID && l.ID() == id {
			return l, nil
		}
	}
	return lead.Lead{}, lead.ErrNotFound
}

func (f *leadRepoFake) MaxPositionInStage(_ context.Context, userID, stageID uuid.UUID) (int, bool, error) {
	max, found := 0, false
	for _, l := range f.leads {
		if l.UserID() != userID || l.StageID() == nil || *l.StageID() != stageID {
			continue
		}
		if !found || l.Position() > max {
			max = l.Position()
		}
		found = true
	}
	return max, found, nil
}

func (f *leadRepoFake) Create(_ context.Context, l lead.Lead) (lead.Lead, error) {
	now := time.Now()
	created := lead.Hydrate(
		l.ID(), l.UserID(), l.StageID(),
		l.Name(), l.Company(), l.Email(), l.Phone(),
		l.Value(), l.Notes(), l.Position(),
		now, now,
	)
	f.leads = append(f.leads, created)
	return created, nil
}

func (f *leadRepoFake) Update(_ context.Context, l lead.Lead) (lead.Lead, error) {
	for i, existing := range f.leads {
		if existing.UserID() == l.UserID() && existing.ID() == l.ID() {
			f.leads[i] = l
			return l, nil
		}
	}
	return lead.Lead{}, lead.ErrNotFound
}

func (f *leadRepoFake) Delete(_ context.Context, userID, id uuid.UUID) error {
	for i, l := range f.leads {
		if l.UserID() == userID && l.ID() == id {
			f.leads = append(f.leads[:i], f.leads[i+1:]...)
			return nil
		}
	}
	return lead.ErrNotFound
}

func (f *leadRepoFake) MoveMany(_ context.Context, userID uuid.UUID, moves []lead.Move) error {
	for _, m := range moves {
		for i, l := range f.leads {
			if l.UserID() == userID && l.ID() == m.ID {
				stageID := m.StageID
				f.leads[i] = l.WithStageID(&stageID).WithPosition(m.Position)
			}
		}
	}
	return nil
}

type harness struct {
	owner  user.User
	stages *stageRepoFake
	leads  *leadRepoFake
	router *mux.Router
}

// newHarness assembles the CRM controllers over in-memory repositories with
// one authenticated user whose session cookie is testSessionToken.
func newHarness() *harness {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	publisher := eventbus.NewEventPublisher(log)

	owner := user.New("Ana", "ana@example.com", "hash")
	userRepo := &userRepoFake{users: map[uuid.UUID]user.User{owner.ID(): owner}}
	sessionRepo := &sessionRepoFake{sessions: map[string]*session.Session{
		testSessionToken: {
			Token:     testSessionToken,
			UserID:    owner.ID(),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		},
	}}

	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}

	app := application.New(&application.ApplicationOptions{EventBus: publisher})

	userService := coreservices.NewUserService(userRepo, "")
	sessionService := coreservices.NewSessionService(sessionRepo)
	app.RegisterServices(
		userService,
		sessionService,
		coreservices.NewAuthService(
			userService,
			sessionService,
			stages,
			&resetTokenRepoFake{},
			&mailerFake{},
			publisher,
		),
		services.NewLeadService(leads, stages, publisher),
		services.NewStageService(stages),
		services.NewReorderService(leads, stages, publisher),
	)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(composables.WithTx(req.Context(), noopTx{})))
		})
	})
	controllers.NewLeadAPIController(app).Register(r)
	controllers.NewStageAPIController(app).Register(r)

	return &harness{owner: owner, stages: stages, leads: leads, router: r}
}

func (h *harness) authenticated(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{
		Name:  configuration.Use().SidCookieKey,
		Value: testSessionToken,
	})
	return req
}
