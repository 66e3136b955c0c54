package repository

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
)
