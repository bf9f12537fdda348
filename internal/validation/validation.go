// Package validation decides whether a client payload may become, or modify, a bug.
// Every function here is pure and safe for concurrent use.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/samber/lo"

	"github.com/joescharf/bugtrack/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ParsePayload decodes a request body into a Payload. Bodies that are empty, are
// not a JSON object, or carry a title/status of the wrong JSON type are rejected.
func ParsePayload(data []byte) (*models.Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body must be a JSON object", models.ErrInvalidPayload)
	}
	var p models.Payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}
	return &p, nil
}

// Validate applies the full acceptance rule: a non-blank title is required and
// status, when present, must be a known value. Description is never checked.
func Validate(p *models.Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is required", models.ErrInvalidPayload)
	}
	if err := validate.Struct(p); err != nil {
		return describe(err)
	}
	return nil
}

// Valid is the boolean form of Validate.
func Valid(p *models.Payload) bool {
	return Validate(p) == nil
}

// ValidatePatch checks only the fields present in p. Title may be omitted, but if
// supplied it must not be blank.
func ValidatePatch(p *models.Payload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is required", models.ErrInvalidPayload)
	}
	if p.Title != nil {
		if err := validate.Var(*p.Title, "notblank"); err != nil {
			return fmt.Errorf("%w: %s", models.ErrInvalidPayload, message("title", "notblank"))
		}
	}
	if p.Status != nil {
		if err := validate.Var(string(*p.Status), "oneof=open in-progress closed"); err != nil {
			return fmt.Errorf("%w: %s", models.ErrInvalidPayload, message("status", "oneof"))
		}
	}
	return nil
}

// FromBug builds the payload that would recreate b's editable fields.
func FromBug(b *models.Bug) *models.Payload {
	desc := models.FreeText(b.Description)
	return &models.Payload{
		Title:       lo.ToPtr(b.Title),
		Description: &desc,
		Status:      lo.ToPtr(b.Status),
	}
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}
	msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return message(fe.Field(), fe.Tag())
	})
	return fmt.Errorf("%w: %s", models.ErrInvalidPayload, strings.Join(msgs, "; "))
}

func message(field, tag string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "oneof":
		statuses := lo.Map(models.BugStatuses, func(s models.BugStatus, _ int) string { return string(s) })
		return field + " must be one of " + strings.Join(statuses, ", ")
	default:
		return field + " failed " + tag
	}
}
