package resolver

import (
	"errors"
	"fmt"
)

// StationNotFoundError is returned when a place name matches no station,
// neither by prefix nor through the closest registry city.
type StationNotFoundError struct {
	Name string
}

func (e *StationNotFoundError) Error() string {
	return fmt.Sprintf("No stations found similar to '%s'", e.Name)
}

// IsStationNotFound reports whether err is, or wraps, a StationNotFoundError.
func IsStationNotFound(err error) bool {
	var target *StationNotFoundError
	return errors.As(err, &target)
}
