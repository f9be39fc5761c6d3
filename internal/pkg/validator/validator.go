package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"hotelstay/internal/pkg/apperror"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate struct fields
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// Check wraps Validate into a validation error.
func Check(v any) error {
	if fields := Validate(v); fields != nil {
		return apperror.ValidationFields(fields)
	}
	return nil
}
