package prop

import (
	"fmt"
	"strings"
)

// StringConstraint constrains a string property such as a device id or a
// facing mode.
type StringConstraint interface {
	Compare(string) (float64, bool)
	Value() (string, bool)
}

// matchDistance is 0 for a match and 1 otherwise.
func matchDistance(match bool) float64 {
	if match {
		return 0
	}
	return 1
}

// String prefers the given value. Any other value is still acceptable.
type String string

// Compare implements StringConstraint.
func (s String) Compare(a string) (float64, bool) {
	return matchDistance(string(s) == a), true
}

// Value implements StringConstraint.
func (s String) Value() (string, bool) { return string(s), true }

func (s String) String() string {
	return string(s) + " (ideal)"
}

// StringExact only accepts the given value.
type StringExact string

// Compare implements StringConstraint.
func (s StringExact) Compare(a string) (float64, bool) {
	match := string(s) == a
	return matchDistance(match), match
}

// Value implements StringConstraint.
func (s StringExact) Value() (string, bool) { return string(s), true }

func (s StringExact) String() string {
	return string(s) + " (exact)"
}

// StringOneOf accepts any of the given values, e.g. a set of facing modes.
type StringOneOf []string

// Compare implements StringConstraint.
func (s StringOneOf) Compare(a string) (float64, bool) {
	for _, v := range s {
		if v == a {
			return 0, true
		}
	}
	return 1, false
}

// Value implements StringConstraint. A set has no single value.
func (StringOneOf) Value() (string, bool) { return "", false }

func (s StringOneOf) String() string {
	return fmt.Sprintf("[%s] (one of)", strings.Join(s, ","))
}
