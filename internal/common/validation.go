package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is the AppError returned for rejected request payloads.
func ValidationError(err error) *AppError {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fieldName(fe)] = ruleMessage(fe)
		}
	}
	appErr := BadRequest("VALIDATION_ERROR", "request validation failed", err)
	if len(fields) > 0 {
		appErr.Details = map[string]any{"fields": fields}
	}
	return appErr
}

// Validate runs v against payload and converts failures into a VALIDATION_ERROR.
func Validate(v *validator.Validate, payload any) error {
	if v == nil {
		return nil
	}
	if err := v.Struct(payload); err != nil {
		return ValidationError(err)
	}
	return nil
}

// NewValidator returns a validator that reports json tag names in field errors.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
