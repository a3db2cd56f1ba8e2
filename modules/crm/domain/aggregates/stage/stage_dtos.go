package stage

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flowcrm/flowcrm/pkg/constants"
	"github.com/flowcrm/flowcrm/pkg/serrors"
)

type UpdateDTO struct {
	ID    string `json:"id" validate:"required,uuid"`
	Name  string `json:"name" validate:"required,min=2"`
	Order int    `json:"order" validate:"gte=0"`
}

type UpdateBatchDTO struct {
	Stages []UpdateDTO `json:"stages" validate:"required,min=1,dive"`
}

func (d *UpdateBatchDTO) Normalize() {
	for i := range d.Stages {
		d.Stages[i].Name = strings.TrimSpace(d.Stages[i].Name)
	}
}

func (d *UpdateBatchDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}
