package sampling

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidWeight is returned when a weight is NaN, infinite, zero or negative.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrEmptyDistribution is returned when sampling from a tree with no elements.
	ErrEmptyDistribution = errors.New("probability distribution is empty")
	// ErrNotFound is returned when looking up an element that was never added.
	ErrNotFound = errors.New("element not found")
)

// CheckWeight reports whether w can be used as an element weight.
func CheckWeight(w float64) error {
	switch {
	case math.IsNaN(w):
		return fmt.Errorf("%w: weight is NaN", ErrInvalidWeight)
	case w <= 0:
		return fmt.Errorf("%w: weight must be positive, received %v", ErrInvalidWeight, w)
	case math.IsInf(w, 1):
		return fmt.Errorf("%w: weight is infinite", ErrInvalidWeight)
	}
	return nil
}
