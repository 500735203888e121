// Package options provides shared helpers for functional-option validation.
package options

import (
	"fmt"
	"strconv"

	"github.com/erraggy/oasbind/oaserrors"
)

// SingleSource ensures exactly one input source option was given.
// names lists the option names in the same order as sources.
func SingleSource(names []string, sources ...bool) error {
	count := 0
	for _, set := range sources {
		if set {
			count++
		}
	}
	switch {
	case count == 0:
		return &oaserrors.ConfigError{
			Option:  "source",
			Message: fmt.Sprintf("must specify an input source (use one of %v)", names),
		}
	case count > 1:
		return &oaserrors.ConfigError{
			Option:  "source",
			Message: fmt.Sprintf("must specify exactly one input source, got %d", count),
		}
	}
	return nil
}

// NonNegative returns a ConfigError when n is negative.
func NonNegative[T ~int | ~int64](option string, n T) error {
	if n < 0 {
		return &oaserrors.ConfigError{
			Option:  option,
			Value:   strconv.FormatInt(int64(n), 10),
			Message: "cannot be negative",
		}
	}
	return nil
}

// OrDefault returns n, or def when n is zero.
func OrDefault[T ~int | ~int64](n, def T) T {
	if n == 0 {
		return def
	}
	return n
}
