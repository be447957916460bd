package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/utils"
)

// Validator adapts go-playground/validator to echo.Validator.  Field errors
// are reported under their JSON names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= utils.MaxPasswordBytes
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// normalizer is implemented by request bodies that clean their fields
// before validation.
type normalizer interface{ normalize() }

// bind decodes the body into req, normalizes and validates it.  When ok is
// false a 400 has already been written and err is what the handler should
// return.
func bind(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, utils.BadRequest(c, utils.MsgInvalidBody, nil)
	}
	if n, isN := req.(normalizer); isN {
		n.normalize()
	}
	if err := c.Validate(req); err != nil {
		fields := validationErrors(err)
		if fields == nil {
			return false, err
		}
		return false, utils.BadRequest(c, utils.MsgValidation, fields)
	}
	return true, nil
}

// validationErrors maps a validator error to field -> message, or nil when
// err is not a validation failure.
func validationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", fe.Param())
	case "bcryptmax":
		return fmt.Sprintf("Maximum length is %d bytes", utils.MaxPasswordBytes)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}
