package dtos

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flowcrm/flowcrm/pkg/constants"
	"github.com/flowcrm/flowcrm/pkg/serrors"
)

type RegisterDTO struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (d *RegisterDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d *RegisterDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d *LoginDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

type RequestPasswordResetDTO struct {
	Email string `json:"email" validate:"required,email"`
}

func (d *RequestPasswordResetDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

type ConfirmPasswordResetDTO struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func (d *ConfirmPasswordResetDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Token = strings.TrimSpace(d.Token)
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	return serrors.ValidationErrors{}, true
}

// UpdateProfileDTO carries profile edits. Password fields are optional but
// travel together; Avatar is a data URL or empty.
type UpdateProfileDTO struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"omitempty"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
	Avatar          string `json:"avatar" validate:"omitempty"`
}

func (d *UpdateProfileDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d *UpdateProfileDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.Process(err.(validator.ValidationErrors)), false
	}
	errs := serrors.ValidationErrors{}
	if d.NewPassword != "" && d.CurrentPassword == "" {
		errs["CurrentPassword"] = "current password is required to set a new one"
		return errs, false
	}
	return errs, true
}
