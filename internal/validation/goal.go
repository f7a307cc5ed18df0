package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength                = 200
	MaxGoalDescriptionLength      = 2000
	MaxMilestoneDescriptionLength = 1000
	MaxNotesLength                = 1000
)

// ValidateTitle validates goal and milestone titles
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return fmt.Errorf("title is required")
	}

	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return fmt.Errorf("title is too long (max %d characters)", MaxTitleLength)
	}

	return nil
}

// ValidateMaxLength checks an optional free-text field.
func ValidateMaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s is too long (max %d characters)", field, max)
	}
	return nil
}

func ValidatePercentage(field string, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%s must be between 0 and 100", field)
	}
	return nil
}
