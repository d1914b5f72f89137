package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/schoolsuite/school-service/internal/models"
)

// ValidationError represents a single field failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground struct validation plus the custom rules
// the request DTOs use.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

func (v *Validator) registerRules() {
	_ = v.validate.RegisterValidation("role_type", func(fl validator.FieldLevel) bool {
		switch models.RoleType(fl.Field().String()) {
		case models.RoleTypeSuperAdmin, models.RoleTypeSchoolOwner, models.RoleTypeTeacher,
			models.RoleTypeStudent, models.RoleTypeParent, models.RoleTypeStaff:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("enrollment_status", func(fl validator.FieldLevel) bool {
		switch models.EnrollmentStatus(fl.Field().String()) {
		case models.EnrollmentActive, models.EnrollmentInactive:
			return true
		}
		return false
	})
}

// Validate runs struct validation and converts failures into
// ValidationErrors. A nil return means the struct passed.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ToValidationErrors converts go-playground errors to the API shape.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "uuid":
		return "must be a valid uuid"
	case "role_type":
		return "must be a known role type"
	case "enrollment_status":
		return "must be active or inactive"
	default:
		return fmt.Sprintf("failed rule %s", fe.Tag())
	}
}
