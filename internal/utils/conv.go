package utils

import (
	"strconv"
)

// PositiveIntOr parses s and returns fallback unless the result is > 0.
func PositiveIntOr(s string, fallback int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

// ParseID parses a positive database id.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
