package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "framework-search/internal/common/errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator for request structs bound by the
// HTTP handlers.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s and converts failures to a VALIDATION_FAILED error with
// one message per field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apperrors.NewBadRequestError(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = tagMessage(fe)
	}
	return apperrors.NewValidationError(fields)
}

func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return "\"" + fmt.Sprint(fe.Value()) + "\" is not a valid choice."
	case "gt", "gte", "min":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "dive":
		return "Invalid item."
	}
	return "Invalid value."
}
