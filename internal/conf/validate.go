// conf/validate.go

package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/birddb-export/internal/convert"
	"github.com/tphakala/birddb-export/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ErrorCategory reports the category used when ve is wrapped in an enhanced error.
func (ve ValidationError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// ValidateSettings validates the entire Settings struct and normalizes the mode name.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	mode, err := normalizeMode(settings.Mode)
	if err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	} else {
		settings.Mode = mode
	}

	if settings.Grouping.MaxGap < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("grouping.maxgap must not be negative, got %s", settings.Grouping.MaxGap))
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Context("errors", strings.Join(ve.Errors, "; ")).
			Build()
	}

	return nil
}

// normalizeMode checks the mode name without building an error, so a bad mode is reported once
// as part of the validation error.
func normalizeMode(value string) (string, error) {
	mode := convert.NormalizeMode(value)
	if !mode.Valid() {
		return "", fmt.Errorf("mode must be %q or %q, got %q", convert.ModeFlat, convert.ModeGrouped, value)
	}
	return string(mode), nil
}
