package query

import (
	"errors"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrSectionNotFound = errors.New("event section not found")
)
