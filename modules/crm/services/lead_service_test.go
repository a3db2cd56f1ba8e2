package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/modules/crm/services"
)

func newLeadService(stages *stageRepoFake, leads *leadRepoFake) *services.LeadService {
	return services.NewLeadService(leads, stages, testPublisher())
}

func TestLeadService_Create_AllocatesNextPosition(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	first := stages.add(owner.ID(), "New", 0)
	firstID := first.ID()
	leads.add(owner.ID(), "Acme", &firstID, 0)
	leads.add(owner.ID(), "Globex", &firstID, 1)

	svc := newLeadService(stages, leads)
	created, err := svc.Create(testContext(owner), &lead.CreateDTO{Name: "Initech"})
	require.NoError(t, err)

	require.NotNil(t, created.StageID())
	assert.Equal(t, firstID, *created.StageID())
	assert.Equal(t, 2, created.Position())
}

func TestLeadService_Create_EmptyStageStartsAtZero(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	stages.add(owner.ID(), "New", 0)
	empty := stages.add(owner.ID(), "Contacted", 1)

	svc := newLeadService(stages, leads)
	created, err := svc.Create(testContext(owner), &lead.CreateDTO{
		Name:    "Initech",
		StageID: empty.ID().String(),
	})
	require.NoError(t, err)

	require.NotNil(t, created.StageID())
	assert.Equal(t, empty.ID(), *created.StageID())
	assert.Equal(t, 0, created.Position())
}

func TestLeadService_Create_NoStagesYieldsStagelessLead(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}

	svc := newLeadService(stages, leads)
	created, err := svc.Create(testContext(owner), &lead.CreateDTO{Name: "Initech"})
	require.NoError(t, err)

	assert.Nil(t, created.StageID())
	assert.Equal(t, 0, created.Position())
}

func TestLeadService_Create_ForeignStageRejected(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	other := user.New("Bruno", "bruno@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	foreign := stages.add(other.ID(), "New", 0)

	svc := newLeadService(stages, leads)
	_, err := svc.Create(testContext(owner), &lead.CreateDTO{
		Name:    "Initech",
		StageID: foreign.ID().String(),
	})
	require.ErrorIs(t, err, stage.ErrInvalidReference)
	assert.Empty(t, leads.leads)
}

func TestLeadService_Update_KeepsStageAndValueWhenOmitted(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	s := stages.add(owner.ID(), "New", 0)
	sID := s.ID()
	value := decimal.NewFromInt(1500)

	svc := newLeadService(stages, leads)
	existing, err := svc.Create(testContext(owner), &lead.CreateDTO{Name: "Acme", Value: &value})
	require.NoError(t, err)

	updated, err := svc.Update(testContext(owner), existing.ID(), &lead.UpdateDTO{Name: "Acme Inc"})
	require.NoError(t, err)

	assert.Equal(t, "Acme Inc", updated.Name())
	require.NotNil(t, updated.StageID())
	assert.Equal(t, sID, *updated.StageID())
	require.NotNil(t, updated.Value())
	assert.True(t, value.Equal(*updated.Value()))
}

func TestLeadService_Update_ForeignStageRejected(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	other := user.New("Bruno", "bruno@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	s := stages.add(owner.ID(), "New", 0)
	sID := s.ID()
	foreign := stages.add(other.ID(), "New", 0)
	existing := leads.add(owner.ID(), "Acme", &sID, 0)

	svc := newLeadService(stages, leads)
	_, err := svc.Update(testContext(owner), existing.ID(), &lead.UpdateDTO{
		Name:    "Acme",
		StageID: foreign.ID().String(),
	})
	require.ErrorIs(t, err, stage.ErrInvalidReference)
}

func TestLeadService_Delete_UnknownLead(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}

	svc := newLeadService(stages, leads)
	err := svc.Delete(testContext(owner), user.New("x", "x@example.com", "hash").ID())
	require.ErrorIs(t, err, lead.ErrNotFound)
}

func TestLeadService_List_CanonicalOrder(t *testing.T) {
	owner := user.New("Ana", "ana@example.com", "hash")
	stages := &stageRepoFake{}
	leads := &leadRepoFake{stages: stages}
	todo := stages.add(owner.ID(), "To-Do", 0)
	doing := stages.add(owner.ID(), "Doing", 1)
	todoID, doingID := todo.ID(), doing.ID()

	leads.add(owner.ID(), "C", &doingID, 0)
	leads.add(owner.ID(), "B", &todoID, 1)
	leads.add(owner.ID(), "A", &todoID, 0)
	leads.add(owner.ID(), "Stageless", nil, 0)

	svc := newLeadService(stages, leads)
	got, gotStages, err := svc.List(testContext(owner))
	require.NoError(t, err)
	require.Len(t, gotStages, 2)

	names := make([]string, 0, len(got))
	for _, l := range got {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"A", "B", "C", "Stageless"}, names)
	require.NotNil(t, got[0].Stage())
	assert.Equal(t, "To-Do", got[0].Stage().Name())
}
