package utils

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 100
	MaxPerPage     = 1000
)

// ParseIntParam retrieves an int value from the provided URL query parameters.
// A missing key yields def. An invalid value yields def and an entry in fieldErrors.
func ParseIntParam(params url.Values, key string, def int, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := params.Get(key)
	if val == "" {
		return def, fieldErrors
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return def, fieldErrors
	}
	return n, fieldErrors
}

// ParsePagination reads page and per_page. Pages start at 1 and per_page is
// capped at MaxPerPage.
func ParsePagination(params url.Values) (page, perPage int, fieldErrors map[string][]string) {
	page, fieldErrors = ParseIntParam(params, "page", 1, nil)
	perPage, fieldErrors = ParseIntParam(params, "per_page", DefaultPerPage, fieldErrors)

	if page < 1 {
		fieldErrors["page"] = append(fieldErrors["page"], "page must be at least 1")
	}
	if perPage < 1 || perPage > MaxPerPage {
		fieldErrors["per_page"] = append(fieldErrors["per_page"], fmt.Sprintf("per_page must be between 1 and %d", MaxPerPage))
	}
	return page, perPage, fieldErrors
}
