package handler

import (
	"github.com/microarena/api/internal/model"
	"github.com/microarena/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response by
// its kind. Errors without a kind are internal and their text is not
// exposed.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		return model.NewNotFoundError(err.Error())
	case service.KindConflict:
		return model.NewConflictError(err.Error())
	case service.KindForbidden:
		return model.NewForbiddenError(err.Error())
	case service.KindInvalidState:
		return model.NewInvalidStateError(err.Error())
	case service.KindValidation:
		field := service.FieldOf(err)
		if field == "" {
			field = "request"
		}
		return model.NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext is MapServiceError with the failed operation
// named in the detail of internal errors.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
