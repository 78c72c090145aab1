package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// formatValidationError turns validator errors into a field -> message map
// keyed by lower-cased field names.
func formatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "this field is required"
		case "oneof":
			errs[field] = fmt.Sprintf("must be one of: %s", e.Param())
		case "gte":
			errs[field] = fmt.Sprintf("must be at least %s", e.Param())
		case "lte":
			errs[field] = fmt.Sprintf("must be at most %s", e.Param())
		default:
			errs[field] = "invalid value"
		}
	}
	return errs
}
