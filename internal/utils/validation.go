package utils

import (
	"errors"
	"regexp"
	"strings"
)

const maxPlaceNameLength = 200

var (
	// Detect potentially dangerous characters - more focused on injection patterns
	dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/|;.*--`)

	// Detect HTML/script tags
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidatePlaceName validates a free-text place or city name.
func ValidatePlaceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name cannot be empty")
	}

	if len(name) > maxPlaceNameLength {
		return errors.New("name too long (max 200 characters)")
	}

	if dangerousPattern.MatchString(name) {
		return errors.New("name contains invalid characters")
	}

	return nil
}

// SanitizeInput removes HTML tags and surrounding whitespace
func SanitizeInput(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	return strings.TrimSpace(sanitized)
}

// ValidateAndSanitizePlaceName validates a place name and returns it sanitized.
func ValidateAndSanitizePlaceName(name string) (string, error) {
	if err := ValidatePlaceName(name); err != nil {
		return "", err
	}
	return SanitizeInput(name), nil
}

// ValidatePlaceParams validates the named place parameters and collects one
// error list per field.
func ValidatePlaceParams(places map[string]string) map[string][]string {
	fieldErrors := make(map[string][]string)
	for field, value := range places {
		if err := ValidatePlaceName(value); err != nil {
			fieldErrors[field] = append(fieldErrors[field], err.Error())
		}
	}
	return fieldErrors
}
