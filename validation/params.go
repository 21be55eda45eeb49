package validation

import (
	"strconv"
	"strings"

	"github.com/kbukum/convoview/errors"
)

// PositiveID parses a path or query parameter as an id greater than zero.
func PositiveID(field, raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.InvalidInput(field, field+" must be a positive integer")
	}
	return uint(n), nil
}

// OptionalInt parses an optional integer parameter. Empty input yields nil.
func OptionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.InvalidInput(field, field+" must be an integer")
	}
	return &n, nil
}
