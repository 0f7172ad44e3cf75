package renderer

import (
	"errors"
	"fmt"
)

// Palette errors.
var (
	ErrTooManyJoints = errors.New("skeleton exceeds the joint palette capacity")
	ErrEmptyPalette  = errors.New("empty joint palette")
)

// ValidatePalette checks that a palette of n matrices fits the shader's
// fixed-size joint array of capacity entries.
func ValidatePalette(n, capacity int) error {
	if n <= 0 {
		return ErrEmptyPalette
	}
	if n > capacity {
		return fmt.Errorf("%w: %d joints, capacity %d", ErrTooManyJoints, n, capacity)
	}
	return nil
}
