package services_test

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
	"github.com/flowcrm/flowcrm/pkg/eventbus"
)

// noopTx satisfies the transaction composable. The embedded interface is
// never called because an existing transaction short-circuits InTx.
type noopTx struct {
	pgx.Tx
}

func testContext(u user.User) context.Context {
	ctx := composables.WithUser(context.Background(), u)
	return composables.WithTx(ctx, noopTx{})
}

func testPublisher() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

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
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order() != out[j].Order() {
			return out[i].Order() < out[j].Order()
		}
		a, b := out[i].ID(), out[j].ID()
		return bytes.Compare(a[:], b[:]) < 0
	})
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
	all, err := f.List(ctx, userID)
	if err != nil {
		return stage.Stage{}, err
	}
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

func (f *stageRepoFake) orderOf(id uuid.UUID) (int, bool) {
	for _, s := range f.stages {
		if s.ID() == id {
			return s.Order(), true
		}
	}
	return 0, false
}

type leadRepoFake struct {
	leads   []lead.Lead
	stages  *stageRepoFake
	seq     int
	moveErr error
}

func (f *leadRepoFake) nextTime() time.Time {
	f.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
}

func (f *leadRepoFake) add(userID uuid.UUID, name string, stageID *uuid.UUID, position int) lead.Lead {
	created, _ := f.Create(context.Background(), lead.New(userID, name, stageID, position))
	return created
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
		oi, oj := f.sortKey(out[i]), f.sortKey(out[j])
		if oi != oj {
			return oi < oj
		}
		if out[i].Position() != out[j].Position() {
			return out[i].Position() < out[j].Position()
		}
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out, nil
}

// sortKey mirrors the canonical ordering: stages by order then id, with
// stageless leads last.
func (f *leadRepoFake) sortKey(l lead.Lead) string {
	if l.StageID() == nil {
		return "\xff"
	}
	order, ok := f.stages.orderOf(*l.StageID())
	if !ok {
		return "\xff"
	}
	return string(rune('0'+order)) + l.StageID().String()
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
	now := f.nextTime()
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
			updated := lead.Hydrate(
				l.ID(), l.UserID(), l.StageID(),
				l.Name(), l.Company(), l.Email(), l.Phone(),
				l.Value(), l.Notes(), l.Position(),
				existing.CreatedAt(), f.nextTime(),
			)
			f.leads[i] = updated
			return updated, nil
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
	if f.moveErr != nil {
		return f.moveErr
	}
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
