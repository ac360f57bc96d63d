package serverutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags on a request DTO and returns
// a user-facing message for the first violation.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			field := strings.ToLower(first.Field())
			switch first.Tag() {
			case "required":
				return &ValidationError{Message: field + " is required"}
			case "email":
				return &ValidationError{Message: "invalid email address"}
			case "min":
				return &ValidationError{Message: field + " must be at least " + first.Param() + " characters"}
			case "oneof":
				return &ValidationError{Message: field + " must be one of: " + first.Param()}
			}
			return &ValidationError{Message: field + " is invalid"}
		}
		return err
	}
	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
