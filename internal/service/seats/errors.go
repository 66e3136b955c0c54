package seats

import (
	"errors"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrSectionInUse    = errors.New("section seats are referenced by active bookings")
)
