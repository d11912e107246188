package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// formatValidationError converts validator errors into the user-facing
// message for the first failing field. Field names are reported in their
// JSON form (leading letter lower-cased).
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := jsonFieldName(fe.Field())

			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "email":
				return "invalid request: " + field + " must be a valid email"
			case "gte", "gt":
				return "invalid request: " + field + " is out of range"
			case "lte":
				return "invalid request: " + field + " is out of range"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
