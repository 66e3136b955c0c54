package admin

import (
	"errors"
)

var (
	ErrInvalidSection  = errors.New("invalid section parameters")
	ErrInvalidEvent    = errors.New("invalid event parameters")
	ErrAlreadyAttached = errors.New("section already attached to the event")
	ErrSectionNotFound = errors.New("section not found")
)
