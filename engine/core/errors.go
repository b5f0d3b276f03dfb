package core

import (
	"errors"
)

var (
	ErrInvalidConfig  = errors.New("invalid renderer configuration")
	ErrNotInitialized = errors.New("subsystem not initialized")
)
