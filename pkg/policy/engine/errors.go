package engine

import (
	"errors"
)

// ErrInvalidConfig indicates an invalid policy configuration.
var ErrInvalidConfig = errors.New("invalid policy configuration")
