package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/common"
	"github.com/noah-isme/backend-menu/internal/db"
	"github.com/noah-isme/backend-menu/internal/lock"
	"github.com/noah-isme/backend-menu/internal/money"
	"github.com/noah-isme/backend-menu/internal/pricing"
)

// ErrMissingParentForInheritance is returned when a row is asked to inherit tax but has no
// parent to inherit from.
var ErrMissingParentForInheritance = errors.New("tax inheritance requires a parent")

// toAppError translates domain and storage errors into API errors. Unknown errors pass through
// and are rendered as 500 by common.WriteError.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if common.IsAppError(err) {
		return err
	}
	var cfgErr *pricing.InvalidConfigError
	switch {
	case errors.As(err, &cfgErr):
		return common.BadRequest("INVALID_CONFIG", cfgErr.Error(), err).
			WithDetails(map[string]any{"pricing_type": cfgErr.Type, "reason": cfgErr.Reason})
	case errors.Is(err, pricing.ErrInvalidConfig):
		return common.BadRequest("INVALID_CONFIG", err.Error(), err)
	case errors.Is(err, money.ErrInvalidNumericInput):
		return common.BadRequest("INVALID_NUMERIC_INPUT", err.Error(), err)
	case errors.Is(err, ErrMissingParentForInheritance):
		return common.Unprocessable("MISSING_PARENT_FOR_INHERITANCE", err.Error(), err)
	case errors.Is(err, pricing.ErrInvalidTax):
		return common.BadRequest("INVALID_TAX", err.Error(), err)
	case errors.Is(err, availability.ErrInvalidClock),
		errors.Is(err, availability.ErrInvalidWindow),
		errors.Is(err, availability.ErrInvalidWeekday):
		return common.BadRequest("INVALID_AVAILABILITY", err.Error(), err)
	case db.IsUniqueViolation(err):
		return common.Conflict("CONFLICT", "a record with this name already exists", err)
	case db.IsForeignKeyViolation(err):
		return common.Unprocessable("INVALID_PARENT", "referenced parent does not exist", err)
	case db.IsNotFound(err):
		return common.NewAppError("NOT_FOUND", "resource not found", http.StatusNotFound, err)
	case errors.Is(err, lock.ErrNotAcquired):
		return common.Conflict("BUSY", "another update for this scope is in progress", err)
	}
	return err
}

func notFound(entity string, err error) error {
	if db.IsNotFound(err) {
		return common.NewAppError("NOT_FOUND", entity+" not found", http.StatusNotFound, err)
	}
	return err
}

func badRequest(field, message string, err error) *common.AppError {
	return common.BadRequest("BAD_REQUEST", message, err).WithDetails(map[string]any{"field": field})
}

func invalidInput(field string, err error) *common.AppError {
	return common.BadRequest("VALIDATION_ERROR", fmt.Sprintf("%s: %v", field, err), err).
		WithDetails(map[string]any{"fields": map[string]string{field: err.Error()}})
}
