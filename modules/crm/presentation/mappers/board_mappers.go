package mappers

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/modules/crm/presentation/viewmodels"
)

func StageToViewModel(s stage.Stage) viewmodels.Stage {
	return viewmodels.Stage{
		ID:    s.ID().String(),
		Name:  s.Name(),
		Order: s.Order(),
	}
}

func LeadToViewModel(l lead.Lead) viewmodels.Lead {
	vm := viewmodels.Lead{
		ID:        l.ID().String(),
		Name:      l.Name(),
		Company:   l.Company(),
		Email:     l.Email(),
		Phone:     l.Phone(),
		Notes:     l.Notes(),
		Position:  l.Position(),
		CreatedAt: l.CreatedAt().Format(time.RFC3339),
		UpdatedAt: l.UpdatedAt().Format(time.RFC3339),
	}
	if id := l.StageID(); id != nil {
		s := id.String()
		vm.StageID = &s
	}
	if s := l.Stage(); s != nil {
		stageVM := StageToViewModel(*s)
		vm.Stage = &stageVM
	}
	if v := l.Value(); v != nil {
		raw := v.String()
		vm.Value = &raw
		vm.ValueDisplay = formatBRL(*v)
	}
	return vm
}

func BoardToViewModel(stages []stage.Stage, leads []lead.Lead) viewmodels.Board {
	board := viewmodels.Board{
		Stages: make([]viewmodels.Stage, 0, len(stages)),
		Leads:  make([]viewmodels.Lead, 0, len(leads)),
	}
	for _, s := range stages {
		board.Stages = append(board.Stages, StageToViewModel(s))
	}
	for _, l := range leads {
		board.Leads = append(board.Leads, LeadToViewModel(l))
	}
	return board
}

func formatBRL(v decimal.Decimal) string {
	cents := v.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.BRL).Display()
}
