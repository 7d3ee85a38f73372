package common

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"cvtailor/internal/errors"
	"cvtailor/internal/types"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateProfile checks the struct constraints declared on CandidateProfile
func ValidateProfile(profile *types.CandidateProfile) error {
	if profile == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidProfile, "Profile is required", nil)
	}

	err := validate.Struct(profile)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return errors.NewValidationError(errors.ErrCodeInvalidProfile, "Profile validation failed", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return errors.NewValidationError(errors.ErrCodeInvalidProfile,
		"Invalid profile: "+strings.Join(problems, "; "), err).
		WithContext("fields", len(problems))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "CandidateProfile.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed '%s' validation", field, fe.Tag())
	}
}
