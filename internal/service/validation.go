package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskflow/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// validateStruct runs the struct tag rules and turns the first failure into a
// client-facing validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.Internal("validation failed", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "oneof":
		return domain.Validation(fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "max":
		return domain.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "email":
		return domain.Validation(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	default:
		return domain.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
