package common

import (
	"strconv"
	"strings"
)

// ParseOptionalBool returns nil for empty input.
func ParseOptionalBool(value string) (*bool, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	return &b, nil
}
