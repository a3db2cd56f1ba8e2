package lead

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/flowcrm/flowcrm/pkg/constants"
	"github.com/flowcrm/flowcrm/pkg/serrors"
)

type CreateDTO struct {
	Name    string           `json:"name" validate:"required,min=2"`
	StageID string           `json:"stageId" validate:"omitempty,uuid"`
	Company string           `json:"company" validate:"omitempty"`
	Email   string           `json:"email" validate:"omitempty,email"`
	Phone   string           `json:"phone" validate:"omitempty"`
	Value   *decimal.Decimal `json:"value"`
	Notes   string           `json:"notes" validate:"omitempty,max=2000"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.StageID = strings.TrimSpace(d.StageID)
	d.Company = strings.TrimSpace(d.Company)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

// UpdateDTO carries the editable lead fields. Pointer fields distinguish
// "leave unchanged" from "clear".
type UpdateDTO struct {
	Name     string           `json:"name" validate:"required,min=2"`
	StageID  string           `json:"stageId" validate:"omitempty,uuid"`
	Company  string           `json:"company" validate:"omitempty"`
	Email    string           `json:"email" validate:"omitempty,email"`
	Phone    string           `json:"phone" validate:"omitempty"`
	Value    *decimal.Decimal `json:"value"`
	Notes    string           `json:"notes" validate:"omitempty,max=2000"`
	Position *int             `json:"position" validate:"omitempty"`
}

func (d *UpdateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.StageID = strings.TrimSpace(d.StageID)
	d.Company = strings.TrimSpace(d.Company)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
}

func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

// MoveDTO is one entry of a reorder batch.
type MoveDTO struct {
	ID       string `json:"id" validate:"required,uuid"`
	StageID  string `json:"stageId" validate:"required,uuid"`
	Position int    `json:"position" validate:"gte=0"`
}

type MoveBatchDTO struct {
	Moves []MoveDTO `json:"moves" validate:"required,min=1,dive"`
}

func (d *MoveBatchDTO) Ok() (serrors.ValidationErrors, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}
